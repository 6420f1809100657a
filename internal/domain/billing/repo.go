package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
)

type InvoiceRepository interface {
	// ListOwned is scoped to the owner column of role, newest first.
	ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Invoice, error)
}

// The practice-wide repositories below are unscoped. UpdateStatus returns
// db.ErrNoRows for an unknown id.

type ClaimRepository interface {
	List(ctx context.Context) ([]*Claim, error)
	UpdateStatus(ctx context.Context, id string, status ClaimStatus) error
}

type PaymentRepository interface {
	List(ctx context.Context) ([]*Payment, error)
	UpdateStatus(ctx context.Context, id string, status PaymentStatus) error
}

type SubscriptionRepository interface {
	List(ctx context.Context) ([]*Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error
}
