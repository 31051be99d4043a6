package notifications

import "time"

// Notification is one inbox item derived from a history entry.
type Notification struct {
	ID        string
	UserID    string
	RequestID int64
	HistoryID int64
	Title     string
	Message   string
	Link      string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// IsRead reports whether the recipient has opened the notification.
func (n Notification) IsRead() bool { return n.ReadAt != nil }
