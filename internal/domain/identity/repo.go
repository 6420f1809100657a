package identity

import (
	"context"

	"github.com/google/uuid"
)

type AccountRepository interface {
	// Create writes the account, its profile and its single role row in one
	// transaction. A taken email yields ErrDuplicateEmail.
	Create(ctx context.Context, a *Account, p *Profile, role Role) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	List(ctx context.Context) ([]*UserAccount, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) error
}

type ProfileRepository interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error)
	ListByRole(ctx context.Context, role Role) ([]Profile, error)
}

type RoleRepository interface {
	// GetRole returns the raw role string stored for the user, or
	// db.ErrNoRows when there is none.
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
}
