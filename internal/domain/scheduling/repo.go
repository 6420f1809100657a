package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
)

// ListOptions narrows a scoped appointment listing.
type ListOptions struct {
	TelehealthOnly bool
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	// ListOwned returns the appointments where the owner column for role
	// equals ownerID, oldest first.
	ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID, opts ListOptions) ([]*Appointment, error)
	// UpdateStatus changes one row owned by ownerID. A row that does not
	// exist or is not owned yields db.ErrNoRows.
	UpdateStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status AppointmentStatus) error
}
