package artifacts

import (
	"time"

	"urs-backend/internal/lifecycle"
)

// Kind distinguishes supporting documents from images.
type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
)

// Artifact is a supporting file attached to one history entry.
// Its verification is independent of the parent request's statuses.
type Artifact struct {
	ID           int64
	RequestID    int64
	HistoryID    int64
	Kind         Kind
	Stage        lifecycle.ProgressStatus
	StorageKey   string
	DisplayName  string
	MimeType     string
	Verification lifecycle.VerificationStatus
	Reason       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
