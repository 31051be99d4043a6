package requests

import (
	"time"

	"urs-backend/internal/activities"
	"urs-backend/internal/artifacts"
	"urs-backend/internal/history"
	"urs-backend/internal/lifecycle"
	"urs-backend/internal/notes"
)

// Request is an application-development request submitted by an agency.
type Request struct {
	ID           int64
	OwnerID      string
	OwnerName    string
	Agency       string
	Title        string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	Progress     lifecycle.ProgressStatus
	Verification lifecycle.VerificationStatus
	FileKey      string
	FileName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// State is the part of the request the transition engine works on.
func (r Request) State() lifecycle.State {
	return lifecycle.State{Progress: r.Progress, Verification: r.Verification, EndDate: r.EndDate}
}

// WithState returns a copy of r carrying s.
func (r Request) WithState(s lifecycle.State) Request {
	r.Progress = s.Progress
	r.Verification = s.Verification
	r.EndDate = s.EndDate
	return r
}

// Filter narrows a listing. PerPage <= 0 returns every match.
type Filter struct {
	Agency   string
	Search   string
	Progress lifecycle.ProgressStatus
	Page     int
	PerPage  int
}

// Page is one page of a listing.
type Page struct {
	Items   []Request
	Total   int
	Page    int
	PerPage int
}

// Detail is everything shown on a request's page.
type Detail struct {
	Request    Request
	History    []history.Entry
	Artifacts  []artifacts.Artifact
	Activities []activities.Activity
	Notes      []notes.Note
}
