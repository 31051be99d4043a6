package users

import (
	"time"

	"urs-backend/internal/shared/access"
)

type User struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      access.Role `json:"role"`
	Agency    string      `json:"agency"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Principal returns the acting identity for this user.
func (u User) Principal() access.Principal {
	return access.Principal{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Agency: u.Agency,
	}
}
