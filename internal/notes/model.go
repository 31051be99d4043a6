package notes

import "time"

// Note is an admin's supporting note on a request. Body holds rich-text HTML.
type Note struct {
	ID        int64
	RequestID int64
	AuthorID  string
	Title     string
	Body      string
	ImageKey  *string
	ImageName *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n Note) HasImage() bool { return n.ImageKey != nil && *n.ImageKey != "" }
