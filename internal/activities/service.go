package activities

import (
	"context"
	"errors"
	"strings"
	"time"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/metrics"
)

const maxNameLength = 255

// RequestChecker confirms a request exists before a checklist is attached to it.
type RequestChecker interface {
	Exists(ctx context.Context, requestID int64) (bool, error)
}

// PICDirectory reports which person-in-charge names are not registered.
type PICDirectory interface {
	Unknown(ctx context.Context, names []string) ([]string, error)
}

type Service struct {
	Repo     Repo
	Requests RequestChecker
	// PICs, when set, restricts activity PIC names to the directory.
	PICs PICDirectory
}

// CreateInput is the payload for a new activity.
type CreateInput struct {
	Description   string
	StartDate     *time.Time
	EndDate       *time.Time
	PIC           []string
	SubActivities []string
}

func (s *Service) Create(ctx context.Context, actor access.Principal, requestID int64, in CreateInput) (Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return Activity{}, err
	}
	verr := &apperr.ValidationError{}
	description := validateFields(verr, in.Description, in.StartDate, in.EndDate)
	names := cleanNames(in.SubActivities)
	if len(names) == 0 {
		verr.Add("subActivities", "at least one sub-activity is required")
	}
	for _, n := range names {
		if len(n) > maxNameLength {
			verr.Add("subActivities", "sub-activity names must be at most 255 characters")
		}
	}
	pic := cleanNames(in.PIC)
	if err := s.checkPIC(ctx, verr, pic); err != nil {
		return Activity{}, err
	}
	if err := verr.OrNil(); err != nil {
		return Activity{}, err
	}

	if s.Requests != nil {
		ok, err := s.Requests.Exists(ctx, requestID)
		if err != nil {
			return Activity{}, err
		}
		if !ok {
			return Activity{}, apperr.NotFound("request")
		}
	}

	created, err := s.Repo.Create(ctx, Activity{
		RequestID:   requestID,
		Description: description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		PIC:         pic,
	}, names)
	if err != nil {
		return Activity{}, mapError(err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, actor access.Principal, id int64, patch Patch) (Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return Activity{}, err
	}
	verr := &apperr.ValidationError{}
	patch.Description = validateFields(verr, patch.Description, patch.StartDate, patch.EndDate)
	patch.PIC = cleanNames(patch.PIC)
	if err := s.checkPIC(ctx, verr, patch.PIC); err != nil {
		return Activity{}, err
	}
	if err := verr.OrNil(); err != nil {
		return Activity{}, err
	}
	updated, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return Activity{}, mapError(err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Principal, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapError(s.Repo.Delete(ctx, id))
}

// Reorder renumbers the request's activities following orderedIDs, which
// must name every activity of the request exactly once.
func (s *Service) Reorder(ctx context.Context, actor access.Principal, requestID int64, orderedIDs []int64) ([]Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(orderedIDs) == 0 {
		return nil, apperr.Invalid("orderedIds", "ordered ids are required")
	}
	if err := s.Repo.Reorder(ctx, requestID, orderedIDs); err != nil {
		if errors.Is(err, ErrOrderMismatch) {
			metrics.IncReorderRejected()
		}
		return nil, mapError(err)
	}
	return s.Repo.ListByRequest(ctx, requestID)
}

func (s *Service) AddSubActivities(ctx context.Context, actor access.Principal, activityID int64, rawNames []string) (Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return Activity{}, err
	}
	names := cleanNames(rawNames)
	if len(names) == 0 {
		return Activity{}, apperr.Invalid("names", "at least one sub-activity name is required")
	}
	for _, n := range names {
		if len(n) > maxNameLength {
			return Activity{}, apperr.Invalid("names", "sub-activity names must be at most 255 characters")
		}
	}
	updated, err := s.Repo.AddSubs(ctx, activityID, names)
	if err != nil {
		return Activity{}, mapError(err)
	}
	return updated, nil
}

func (s *Service) ToggleSubActivity(ctx context.Context, actor access.Principal, subID int64) (Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return Activity{}, err
	}
	updated, err := s.Repo.ToggleSub(ctx, subID)
	if err != nil {
		return Activity{}, mapError(err)
	}
	return updated, nil
}

func (s *Service) DeleteSubActivity(ctx context.Context, actor access.Principal, subID int64) (Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return Activity{}, err
	}
	updated, err := s.Repo.DeleteSub(ctx, subID)
	if err != nil {
		return Activity{}, mapError(err)
	}
	return updated, nil
}

// SetCompleted marks an activity without sub-activities. Activities that
// have sub-activities derive their completion and reject this call.
func (s *Service) SetCompleted(ctx context.Context, actor access.Principal, id int64, completed bool) (Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return Activity{}, err
	}
	updated, err := s.Repo.SetCompleted(ctx, id, completed)
	if err != nil {
		return Activity{}, mapError(err)
	}
	return updated, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID int64) ([]Activity, error) {
	return s.Repo.ListByRequest(ctx, requestID)
}

func (s *Service) checkPIC(ctx context.Context, verr *apperr.ValidationError, names []string) error {
	if s.PICs == nil || len(names) == 0 {
		return nil
	}
	unknown, err := s.PICs.Unknown(ctx, names)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		verr.Add("pic", "unknown person in charge: "+strings.Join(unknown, ", "))
	}
	return nil
}

func requireAdmin(actor access.Principal) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins can manage the development checklist")
	}
	return nil
}

func validateFields(verr *apperr.ValidationError, description string, start, end *time.Time) string {
	description = strings.TrimSpace(description)
	if description == "" {
		verr.Add("description", "description is required")
	}
	if start != nil && end != nil && end.Before(*start) {
		verr.Add("endDate", "end date must not be before start date")
	}
	return description
}

func cleanNames(raw []string) []string {
	var out []string
	for _, n := range raw {
		if trimmed := strings.TrimSpace(n); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("activity")
	case errors.Is(err, ErrSubNotFound):
		return apperr.NotFound("sub-activity")
	case errors.Is(err, ErrRequestNotFound):
		return apperr.NotFound("request")
	case errors.Is(err, ErrHasSubActivities):
		return apperr.Precondition("completion is derived from sub-activities")
	case errors.Is(err, ErrOrderMismatch):
		return apperr.Invalid("orderedIds", "ordered ids must list every activity of the request exactly once")
	default:
		return err
	}
}
