package lifecycle

import (
	"strings"
	"time"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
)

// AutoAdvanceReason is recorded on the progress entry appended by an approval.
const AutoAdvanceReason = "auto-advanced after approval"

// State is the part of a request the engine reads and rewrites.
type State struct {
	Progress     ProgressStatus
	Verification VerificationStatus
	EndDate      time.Time
}

// Step is one history entry to append, in order.
type Step struct {
	Status HistoryStatus
	Reason *string
}

// Plan is the outcome of a transition: the new state plus the entries that record it.
// Callers persist both in one transaction or not at all.
type Plan struct {
	Next  State
	Steps []Step
}

// CheckVerification runs the checks that do not depend on the request's current state.
func CheckVerification(actor access.Principal, decision VerificationStatus, reason string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins can verify requests")
	}
	verr := &apperr.ValidationError{}
	if !decision.Valid() {
		verr.Add("verificationStatus", "verification status is invalid")
	}
	if decision == VerificationRejected && strings.TrimSpace(reason) == "" {
		verr.Add("reason", "reason is required when rejecting")
	}
	return verr.OrNil()
}

// PlanVerification records decision on a request in state current.
//
// Approval advances exactly one stage when a next stage exists. Rejection
// always sends the request back to the first stage.
func PlanVerification(actor access.Principal, current State, decision VerificationStatus, reason string) (Plan, error) {
	if err := CheckVerification(actor, decision, reason); err != nil {
		return Plan{}, err
	}

	next := current
	next.Verification = decision
	steps := []Step{{Status: VerificationEntry(decision), Reason: optional(reason)}}

	switch decision {
	case VerificationApproved:
		if stage, ok := current.Progress.Next(); ok {
			next.Progress = stage
			auto := AutoAdvanceReason
			steps = append(steps, Step{Status: ProgressEntry(stage), Reason: &auto})
		}
	case VerificationRejected:
		next.Progress = FirstStage()
	}

	return Plan{Next: next, Steps: steps}, nil
}

// CheckProgressUpdate runs the role and input checks for a manual progress edit.
func CheckProgressUpdate(actor access.Principal, target ProgressStatus, endDate, today time.Time) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins can update progress")
	}
	verr := &apperr.ValidationError{}
	if !target.Valid() {
		verr.Add("status", "status is invalid")
	}
	if endDate.IsZero() {
		verr.Add("endDate", "end date is required")
	} else if dateOnly(endDate).Before(dateOnly(today)) {
		verr.Add("endDate", "end date must be today or later")
	}
	return verr.OrNil()
}

// PlanProgressUpdate sets the stage and end date directly. Any stage may be
// targeted, forward or backward, once the request has been approved.
func PlanProgressUpdate(actor access.Principal, current State, target ProgressStatus, endDate time.Time, reason string, today time.Time) (Plan, error) {
	if err := CheckProgressUpdate(actor, target, endDate, today); err != nil {
		return Plan{}, err
	}
	if current.Verification != VerificationApproved {
		return Plan{}, apperr.Precondition("progress can only be updated on an approved request")
	}

	next := current
	next.Progress = target
	next.EndDate = dateOnly(endDate)
	return Plan{
		Next:  next,
		Steps: []Step{{Status: ProgressEntry(target), Reason: optional(reason)}},
	}, nil
}

func optional(reason string) *string {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
