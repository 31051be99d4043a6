package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"urs-backend/internal/extract"
	"urs-backend/internal/lifecycle"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/storage/object"
	"urs-backend/internal/shared/telemetry"
)

// EntryRef is what the service needs to know about the history entry an upload targets.
type EntryRef struct {
	RequestID int64
	Agency    string
	// Stage is the entry's progress value, or the request's current stage
	// when the entry records a verification.
	Stage lifecycle.ProgressStatus
}

// RequestLookup resolves the request side of an artifact. Implementations
// return *apperr.NotFoundError for unknown or mismatched ids.
type RequestLookup interface {
	ResolveEntry(ctx context.Context, requestID, entryID int64) (EntryRef, error)
	Agency(ctx context.Context, requestID int64) (string, error)
}

type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Requests RequestLookup
	Now      func() time.Time
}

// AddInput describes an upload attached to a history entry.
type AddInput struct {
	RequestID int64
	HistoryID int64
	Kind      Kind
	FileName  string
	Data      []byte
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Add validates and uploads the file, then records it. Nothing is written to
// the database when the upload fails.
func (s *Service) Add(ctx context.Context, actor access.Principal, in AddInput) (Artifact, error) {
	ref, err := s.Requests.ResolveEntry(ctx, in.RequestID, in.HistoryID)
	if err != nil {
		return Artifact{}, err
	}
	if !actor.CanAccessAgency(ref.Agency) {
		return Artifact{}, apperr.Forbidden("request belongs to another agency")
	}

	var (
		mime   string
		folder string
	)
	switch in.Kind {
	case KindDocument:
		if err := extract.ValidatePDF(in.Data); err != nil {
			return Artifact{}, fileError(err, "document must be a PDF of at most 2 MB")
		}
		mime, folder = extract.MimePDF, object.FolderSupportDocs
	case KindImage:
		m, err := extract.ValidateImage(in.Data)
		if err != nil {
			return Artifact{}, fileError(err, "image must be a JPEG, PNG or GIF of at most 5 MB")
		}
		mime, folder = m, object.FolderImages
	default:
		return Artifact{}, apperr.Invalid("kind", "kind must be document or image")
	}

	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = string(in.Kind)
	}
	key, _, _, err := s.store().Save(ctx, folder, name, bytes.NewReader(in.Data))
	if err != nil {
		return Artifact{}, apperr.External("object storage", err)
	}

	now := s.now()
	created, err := s.Repo.Create(ctx, Artifact{
		RequestID:    ref.RequestID,
		HistoryID:    in.HistoryID,
		Kind:         in.Kind,
		Stage:        ref.Stage,
		StorageKey:   key,
		DisplayName:  name,
		MimeType:     mime,
		Verification: lifecycle.VerificationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if delErr := s.store().Delete(ctx, key); delErr != nil {
			telemetry.Warn("artifact.cleanup_failed", map[string]any{"key": key, "error": delErr.Error()})
		}
		return Artifact{}, err
	}
	return created, nil
}

// Verify records an admin decision on the artifact alone.
func (s *Service) Verify(ctx context.Context, actor access.Principal, id int64, rawDecision, reason string) (Artifact, error) {
	if !actor.IsAdmin() {
		return Artifact{}, apperr.Forbidden("only admins can verify supporting files")
	}
	decision, err := lifecycle.ParseVerificationStatus(rawDecision)
	verr := &apperr.ValidationError{}
	if err != nil || decision == lifecycle.VerificationPending {
		verr.Add("verificationStatus", "verification status must be APPROVED or REJECTED")
	}
	reason = strings.TrimSpace(reason)
	if decision == lifecycle.VerificationRejected && reason == "" {
		verr.Add("reason", "reason is required when rejecting")
	}
	if err := verr.OrNil(); err != nil {
		return Artifact{}, err
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	updated, err := s.Repo.SetVerification(ctx, id, decision, reasonPtr, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Artifact{}, apperr.NotFound("artifact")
		}
		return Artifact{}, err
	}
	return updated, nil
}

// Open streams a stored artifact to an actor allowed to see its request.
func (s *Service) Open(ctx context.Context, actor access.Principal, id int64) (io.ReadCloser, Artifact, error) {
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Artifact{}, apperr.NotFound("artifact")
		}
		return nil, Artifact{}, err
	}
	agency, err := s.Requests.Agency(ctx, a.RequestID)
	if err != nil {
		return nil, Artifact{}, err
	}
	if !actor.CanAccessAgency(agency) {
		return nil, Artifact{}, apperr.Forbidden("request belongs to another agency")
	}
	rc, err := s.store().Open(ctx, a.StorageKey)
	if err != nil {
		return nil, Artifact{}, apperr.External("object storage", err)
	}
	return rc, a, nil
}

// ListByRequest returns every artifact of a request, oldest first.
func (s *Service) ListByRequest(ctx context.Context, requestID int64) ([]Artifact, error) {
	return s.Repo.ListByRequest(ctx, requestID)
}

func fileError(err error, message string) error {
	switch {
	case errors.Is(err, extract.ErrTooLarge):
		return apperr.Invalid("file", "file is too large")
	case errors.Is(err, extract.ErrEmpty):
		return apperr.Invalid("file", "file is empty")
	default:
		return apperr.Invalid("file", message)
	}
}

func (s *Service) store() object.ObjectStore {
	return object.Bounded(s.Store)
}
