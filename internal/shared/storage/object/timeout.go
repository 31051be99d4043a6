package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrTimeout is wrapped into errors from calls that exceeded the store deadline.
var ErrTimeout = errors.New("object storage timed out")

// DefaultTimeout bounds a single store call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

type timeoutStore struct {
	next    ObjectStore
	timeout time.Duration
}

// WithTimeout bounds every call on next by d. Readers returned by Open stay
// under the same deadline until they are closed.
func WithTimeout(next ObjectStore, d time.Duration) ObjectStore {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutStore{next: next, timeout: d}
}

// Bounded returns store unchanged when it already carries a deadline and
// wraps it with DefaultTimeout otherwise.
func Bounded(store ObjectStore) ObjectStore {
	if store == nil {
		return nil
	}
	if _, ok := store.(*timeoutStore); ok {
		return store
	}
	return WithTimeout(store, DefaultTimeout)
}

func (s *timeoutStore) Save(ctx context.Context, folder string, fileName string, r io.Reader) (string, int64, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	key, size, mime, err := s.next.Save(ctx, folder, fileName, r)
	if err != nil {
		return "", 0, "", s.wrap(ctx, "save", err)
	}
	return key, size, mime, nil
}

func (s *timeoutStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	rc, err := s.next.Open(ctx, storageKey)
	if err != nil {
		cancel()
		return nil, s.wrap(ctx, "open", err)
	}
	return &cancelOnClose{ReadCloser: rc, cancel: cancel}, nil
}

func (s *timeoutStore) Delete(ctx context.Context, storageKey string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.next.Delete(ctx, storageKey); err != nil {
		return s.wrap(ctx, "delete", err)
	}
	return nil
}

func (s *timeoutStore) wrap(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s after %s: %w: %w", op, s.timeout, ErrTimeout, err)
	}
	return err
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
