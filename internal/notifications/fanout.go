package notifications

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"urs-backend/internal/history"
	"urs-backend/internal/lifecycle"
)

const (
	TitleProgress     = "Request update"
	TitleVerification = "Verification result"
)

// Subject identifies the request a batch is about.
type Subject struct {
	RequestID int64
	Title     string
	Link      string
}

// Message renders the body shared by every notification of one entry.
func Message(requestTitle string, status lifecycle.HistoryStatus) string {
	return fmt.Sprintf("Status of request '%s' was updated to '%s'", requestTitle, status.Label())
}

// ForEntry derives one notification per distinct recipient for entry.
// The entry must already carry its stored ID.
func ForEntry(subject Subject, entry history.Entry, recipients []string) []Notification {
	title := TitleProgress
	if entry.Kind() == lifecycle.KindVerification {
		title = TitleVerification
	}
	message := Message(subject.Title, entry.Status)

	seen := make(map[string]struct{}, len(recipients))
	out := make([]Notification, 0, len(recipients))
	for _, userID := range recipients {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			RequestID: subject.RequestID,
			HistoryID: entry.ID,
			Title:     title,
			Message:   message,
			Link:      subject.Link,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}
