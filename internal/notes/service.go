package notes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"urs-backend/internal/extract"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/storage/object"
	"urs-backend/internal/shared/telemetry"
)

const maxTitleLength = 255

// RequestLookup returns the agency of a request, or *apperr.NotFoundError.
type RequestLookup interface {
	Agency(ctx context.Context, requestID int64) (string, error)
}

type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Requests RequestLookup
	Now      func() time.Time
}

type Image struct {
	Name string
	Data []byte
}

type CreateInput struct {
	Title string
	Body  string
	Image *Image
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create stores an admin note. An attached image is uploaded before the row is written.
func (s *Service) Create(ctx context.Context, actor access.Principal, requestID int64, in CreateInput) (Note, error) {
	if !actor.IsAdmin() {
		return Note{}, apperr.Forbidden("only admins can add supporting notes")
	}
	title := strings.TrimSpace(in.Title)
	verr := &apperr.ValidationError{}
	if title == "" {
		verr.Add("title", "title is required")
	} else if len(title) > maxTitleLength {
		verr.Add("title", "title must be at most 255 characters")
	}
	if PlainText(in.Body) == "" {
		verr.Add("note", "note is required")
	}
	if in.Image != nil {
		if _, err := extract.ValidateImage(in.Image.Data); err != nil {
			verr.Add("image", "image must be a JPEG, PNG or GIF of at most 5 MB")
		}
	}
	if err := verr.OrNil(); err != nil {
		return Note{}, err
	}
	if _, err := s.Requests.Agency(ctx, requestID); err != nil {
		return Note{}, err
	}

	n := Note{
		RequestID: requestID,
		AuthorID:  actor.UserID,
		Title:     title,
		Body:      in.Body,
	}
	if in.Image != nil {
		name := strings.TrimSpace(in.Image.Name)
		if name == "" {
			name = "image"
		}
		key, _, _, err := s.store().Save(ctx, object.FolderNoteImages, name, bytes.NewReader(in.Image.Data))
		if err != nil {
			return Note{}, apperr.External("object storage", err)
		}
		n.ImageKey, n.ImageName = &key, &name
	}
	n.CreatedAt = s.now()
	n.UpdatedAt = n.CreatedAt

	created, err := s.Repo.Create(ctx, n)
	if err != nil {
		if n.ImageKey != nil {
			if delErr := s.store().Delete(ctx, *n.ImageKey); delErr != nil {
				telemetry.Warn("note.cleanup_failed", map[string]any{"key": *n.ImageKey, "error": delErr.Error()})
			}
		}
		return Note{}, err
	}
	return created, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID int64) ([]Note, error) {
	return s.Repo.ListByRequest(ctx, requestID)
}

// OpenImage streams a note's image to an actor allowed to see the request.
func (s *Service) OpenImage(ctx context.Context, actor access.Principal, id int64) (io.ReadCloser, Note, error) {
	n, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Note{}, apperr.NotFound("note")
		}
		return nil, Note{}, err
	}
	if !n.HasImage() {
		return nil, Note{}, apperr.NotFound("note image")
	}
	agency, err := s.Requests.Agency(ctx, n.RequestID)
	if err != nil {
		return nil, Note{}, err
	}
	if !actor.CanAccessAgency(agency) {
		return nil, Note{}, apperr.Forbidden("request belongs to another agency")
	}
	rc, err := s.store().Open(ctx, *n.ImageKey)
	if err != nil {
		return nil, Note{}, apperr.External("object storage", err)
	}
	return rc, n, nil
}

func (s *Service) store() object.ObjectStore {
	return object.Bounded(s.Store)
}
