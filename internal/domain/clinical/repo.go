package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
)

// Listings are scoped to the owner column of role and newest first.

type RecordRepository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*MedicalRecord, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Prescription, error)
	// UpdateStatus yields db.ErrNoRows when id is not owned by ownerID.
	UpdateStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status PrescriptionStatus) error
}
