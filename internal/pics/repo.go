package pics

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "pic not found" }

type Repo interface {
	List(ctx context.Context) ([]PIC, error)
	Get(ctx context.Context, id string) (PIC, error)
	Create(ctx context.Context, p PIC) (PIC, error)
	Update(ctx context.Context, p PIC) (PIC, error)
	Delete(ctx context.Context, id string) error
	// ExistingNames returns the subset of names that match a directory entry,
	// compared case-insensitively.
	ExistingNames(ctx context.Context, names []string) ([]string, error)
}
