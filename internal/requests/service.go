package requests

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"urs-backend/internal/activities"
	"urs-backend/internal/artifacts"
	"urs-backend/internal/extract"
	"urs-backend/internal/history"
	"urs-backend/internal/lifecycle"
	"urs-backend/internal/notes"
	"urs-backend/internal/notifications"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/metrics"
	"urs-backend/internal/shared/storage/object"
	"urs-backend/internal/shared/telemetry"
	"urs-backend/internal/users"
)

const (
	PageSize       = 10
	maxTitleLength = 255
	dateLayout     = "2006-01-02"
)

// Recipients resolves who is notified about a request of an agency.
type Recipients interface {
	RecipientIDs(ctx context.Context, agency string) ([]string, error)
}

type ArtifactLister interface {
	ListByRequest(ctx context.Context, requestID int64) ([]artifacts.Artifact, error)
}

type ActivityLister interface {
	ListByRequest(ctx context.Context, requestID int64) ([]activities.Activity, error)
}

type NoteLister interface {
	ListByRequest(ctx context.Context, requestID int64) ([]notes.Note, error)
}

type Service struct {
	Repo       Repo
	Store      object.ObjectStore
	Recipients Recipients
	Artifacts  ArtifactLister
	Activities ActivityLister
	Notes      NoteLister
	// AppBaseURL prefixes the links carried by notifications.
	AppBaseURL string
	Now        func() time.Time
}

type SubmitInput struct {
	Title       string
	Description string
	Agency      string
	FileName    string
	Data        []byte
}

type ListInput struct {
	Search string
	Status string
	Page   int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit validates and uploads the request PDF, then stores the request with
// its first history entry and notifications in one transaction.
func (s *Service) Submit(ctx context.Context, actor access.Principal, in SubmitInput) (Outcome, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	verr := &apperr.ValidationError{}
	if title == "" {
		verr.Add("title", "title is required")
	} else if len(title) > maxTitleLength {
		verr.Add("title", "title must be at most 255 characters")
	}
	if description == "" {
		verr.Add("description", "description is required")
	}
	agency := actor.Agency
	if actor.IsAdmin() {
		agency = strings.TrimSpace(in.Agency)
		if !users.ValidAgency(agency) {
			verr.Add("agency", "agency is not recognised")
		}
	} else if agency == "" {
		verr.Add("agency", "your account is not linked to an agency")
	}
	if err := extract.ValidatePDF(in.Data); err != nil {
		switch {
		case errors.Is(err, extract.ErrTooLarge):
			verr.Add("file", "file is too large")
		case errors.Is(err, extract.ErrEmpty):
			verr.Add("file", "file is empty")
		default:
			verr.Add("file", "file must be a PDF of at most 2 MB")
		}
	}
	if err := verr.OrNil(); err != nil {
		return Outcome{}, err
	}

	recipients, err := s.Recipients.RecipientIDs(ctx, agency)
	if err != nil {
		return Outcome{}, err
	}

	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		fileName = "request.pdf"
	}
	key, _, _, err := s.store().Save(ctx, object.FolderRequestPDFs, fileName, bytes.NewReader(in.Data))
	if err != nil {
		return Outcome{}, apperr.External("object storage", err)
	}

	now := s.now()
	start := dateOnly(now)
	req := Request{
		OwnerID:      actor.UserID,
		OwnerName:    actor.Name,
		Agency:       agency,
		Title:        title,
		Description:  description,
		StartDate:    start,
		EndDate:      start.AddDate(0, 1, 0),
		Progress:     lifecycle.FirstStage(),
		Verification: lifecycle.VerificationPending,
		FileKey:      key,
		FileName:     fileName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	first := history.Entry{
		ActorID:   actor.UserID,
		ActorName: actor.Name,
		Status:    lifecycle.ProgressEntry(lifecycle.FirstStage()),
		CreatedAt: now,
	}

	out, err := s.Repo.Create(ctx, req, first, s.notifier(recipients))
	if err != nil {
		if delErr := s.store().Delete(ctx, key); delErr != nil {
			telemetry.Warn("request.cleanup_failed", map[string]any{"key": key, "error": delErr.Error()})
		}
		return Outcome{}, err
	}
	metrics.IncRequestSubmitted()
	metrics.AddNotifications(len(out.Notifications))
	return out, nil
}

// List returns one page of the requests visible to actor.
func (s *Service) List(ctx context.Context, actor access.Principal, in ListInput) (Page, error) {
	page := max(in.Page, 1)
	result := Page{Items: []Request{}, Page: page, PerPage: PageSize}
	if !actor.IsAdmin() && actor.Agency == "" {
		return result, nil
	}

	f := Filter{
		Agency:  actor.AgencyScope(),
		Search:  strings.TrimSpace(in.Search),
		Page:    page,
		PerPage: PageSize,
	}
	if raw := strings.TrimSpace(in.Status); raw != "" {
		status, err := lifecycle.ParseProgressStatus(raw)
		if err != nil {
			return Page{}, apperr.Invalid("status", "status is invalid")
		}
		f.Progress = status
	}

	items, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	result.Items = items
	result.Total = total
	return result, nil
}

// Get returns a request the actor may see.
func (s *Service) Get(ctx context.Context, actor access.Principal, id int64) (Request, error) {
	req, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Request{}, apperr.NotFound("request")
		}
		return Request{}, err
	}
	if !actor.CanAccessAgency(req.Agency) {
		return Request{}, apperr.Forbidden("request belongs to another agency")
	}
	return req, nil
}

// Detail gathers the request with its history, artifacts, checklist and notes.
func (s *Service) Detail(ctx context.Context, actor access.Principal, id int64) (Detail, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{Request: req}
	if d.History, err = s.Repo.History(ctx, id); err != nil {
		return Detail{}, err
	}
	if s.Artifacts != nil {
		if d.Artifacts, err = s.Artifacts.ListByRequest(ctx, id); err != nil {
			return Detail{}, err
		}
	}
	if s.Activities != nil {
		if d.Activities, err = s.Activities.ListByRequest(ctx, id); err != nil {
			return Detail{}, err
		}
	}
	if s.Notes != nil {
		if d.Notes, err = s.Notes.ListByRequest(ctx, id); err != nil {
			return Detail{}, err
		}
	}
	return d, nil
}

// Verify records an admin decision and applies its consequences atomically.
func (s *Service) Verify(ctx context.Context, actor access.Principal, id int64, rawDecision, reason string) (Outcome, error) {
	decision, _ := lifecycle.ParseVerificationStatus(rawDecision)
	if err := lifecycle.CheckVerification(actor, decision, reason); err != nil {
		return Outcome{}, err
	}
	now := s.now()
	out, err := s.transition(ctx, actor, id, func(current Request) (Request, []history.Entry, error) {
		plan, err := lifecycle.PlanVerification(actor, current.State(), decision, reason)
		if err != nil {
			return Request{}, nil, err
		}
		return s.apply(actor, current, plan, now)
	})
	if err != nil {
		return Outcome{}, err
	}
	metrics.IncVerification(string(decision))
	return out, nil
}

// UpdateProgress sets the stage and end date of an approved request.
func (s *Service) UpdateProgress(ctx context.Context, actor access.Principal, id int64, rawStatus, rawEndDate, reason string) (Outcome, error) {
	if !actor.IsAdmin() {
		return Outcome{}, apperr.Forbidden("only admins can update progress")
	}
	now := s.now()
	target, _ := lifecycle.ParseProgressStatus(rawStatus)
	var endDate time.Time
	if raw := strings.TrimSpace(rawEndDate); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return Outcome{}, apperr.Invalid("endDate", "end date must use YYYY-MM-DD")
		}
		endDate = parsed
	}
	if err := lifecycle.CheckProgressUpdate(actor, target, endDate, now); err != nil {
		return Outcome{}, err
	}

	out, err := s.transition(ctx, actor, id, func(current Request) (Request, []history.Entry, error) {
		plan, err := lifecycle.PlanProgressUpdate(actor, current.State(), target, endDate, reason, now)
		if err != nil {
			return Request{}, nil, err
		}
		return s.apply(actor, current, plan, now)
	})
	if err != nil {
		return Outcome{}, err
	}
	metrics.IncProgressUpdate()
	return out, nil
}

// OpenFile streams the request's main PDF.
func (s *Service) OpenFile(ctx context.Context, actor access.Principal, id int64) (io.ReadCloser, Request, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, Request{}, err
	}
	rc, err := s.store().Open(ctx, req.FileKey)
	if err != nil {
		return nil, Request{}, apperr.External("object storage", err)
	}
	return rc, req, nil
}

// ResolveEntry locates a history entry of a request for attaching artifacts.
// Verification entries report the request's current stage.
func (s *Service) ResolveEntry(ctx context.Context, requestID, entryID int64) (artifacts.EntryRef, error) {
	req, err := s.Repo.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return artifacts.EntryRef{}, apperr.NotFound("request")
		}
		return artifacts.EntryRef{}, err
	}
	entry, err := s.Repo.HistoryEntry(ctx, requestID, entryID)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return artifacts.EntryRef{}, apperr.NotFound("history entry")
		}
		return artifacts.EntryRef{}, err
	}
	stage, ok := entry.Status.Progress()
	if !ok {
		stage = req.Progress
	}
	return artifacts.EntryRef{RequestID: req.ID, Agency: req.Agency, Stage: stage}, nil
}

// Agency returns the owning agency of a request.
func (s *Service) Agency(ctx context.Context, requestID int64) (string, error) {
	req, err := s.Repo.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.NotFound("request")
		}
		return "", err
	}
	return req.Agency, nil
}

func (s *Service) Exists(ctx context.Context, requestID int64) (bool, error) {
	_, err := s.Repo.Get(ctx, requestID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) transition(ctx context.Context, actor access.Principal, id int64, mutate Mutation) (Outcome, error) {
	req, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Outcome{}, apperr.NotFound("request")
		}
		return Outcome{}, err
	}
	recipients, err := s.Recipients.RecipientIDs(ctx, req.Agency)
	if err != nil {
		return Outcome{}, err
	}
	out, err := s.Repo.Transition(ctx, id, mutate, s.notifier(recipients))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Outcome{}, apperr.NotFound("request")
		}
		return Outcome{}, err
	}
	metrics.AddNotifications(len(out.Notifications))
	telemetry.Info("request.transition", map[string]any{
		"request_id":    id,
		"actor_id":      actor.UserID,
		"progress":      string(out.Request.Progress),
		"verification":  string(out.Request.Verification),
		"entries":       len(out.Entries),
		"notifications": len(out.Notifications),
	})
	return out, nil
}

func (s *Service) apply(actor access.Principal, current Request, plan lifecycle.Plan, now time.Time) (Request, []history.Entry, error) {
	next := current.WithState(plan.Next)
	next.UpdatedAt = now
	entries := history.FromSteps(current.ID, actor.UserID, now, plan.Steps)
	for i := range entries {
		entries[i].ActorName = actor.Name
	}
	return next, entries, nil
}

func (s *Service) notifier(recipients []string) NotifyFunc {
	return func(req Request, entry history.Entry) []notifications.Notification {
		subject := notifications.Subject{RequestID: req.ID, Title: req.Title, Link: s.Link(req.ID)}
		return notifications.ForEntry(subject, entry, recipients)
	}
}

// Link is the UI address of a request.
func (s *Service) Link(id int64) string {
	return strings.TrimRight(s.AppBaseURL, "/") + "/requests/" + strconv.FormatInt(id, 10)
}

// Describe summarizes the entries of an outcome for request logs.
func Describe(entries []history.Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, string(e.Kind())+":"+e.Status.Value())
	}
	return strings.Join(parts, ",")
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) store() object.ObjectStore {
	return object.Bounded(s.Store)
}
