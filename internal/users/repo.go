package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	// Upsert inserts the user or updates the row with the same email.
	// It returns the stored user, whose ID is the original one on update.
	Upsert(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	// ListRecipients returns every admin plus every user of agency.
	ListRecipients(ctx context.Context, agency string) ([]User, error)
}
