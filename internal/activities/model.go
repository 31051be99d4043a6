package activities

import "time"

// Activity is one item of a request's development checklist.
type Activity struct {
	ID            int64
	RequestID     int64
	Iteration     int
	Description   string
	StartDate     *time.Time
	EndDate       *time.Time
	PIC           []string
	Completed     bool
	SubActivities []SubActivity
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SubActivity struct {
	ID         int64
	ActivityID int64
	Name       string
	Completed  bool
}

// Patch carries the editable fields of an activity.
type Patch struct {
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	PIC         []string
}

// DeriveCompletion folds sub-activity state into the parent flag.
// An activity without sub-activities is never complete by derivation.
func DeriveCompletion(subs []SubActivity) bool {
	if len(subs) == 0 {
		return false
	}
	for _, s := range subs {
		if !s.Completed {
			return false
		}
	}
	return true
}
