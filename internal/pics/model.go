package pics

import "time"

// PIC is a person in charge who can be assigned to development activities.
type PIC struct {
	ID        string
	Name      string
	Position  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Response struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

func ToResponse(p PIC) Response {
	return Response{ID: p.ID, Name: p.Name, Position: p.Position}
}
