package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/validation"
)

// RoleResolver confirms who is on the other side of a booking.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (identity.Role, error)
}

type Service struct {
	appointments AppointmentRepository
	roles        RoleResolver
}

func NewService(appts AppointmentRepository, roles RoleResolver) *Service {
	return &Service{appointments: appts, roles: roles}
}

// Book creates a scheduled appointment for patientID. Every check runs
// before the write.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookRequest) (*Appointment, error) {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, validation.FieldErrors{"doctor_id": "must be a valid id"}
	}
	role, err := s.roles.ResolveRole(ctx, doctorID)
	if errors.Is(err, identity.ErrRoleNotFound) || (err == nil && role != identity.RoleDoctor) {
		return nil, validation.FieldErrors{"doctor_id": "must reference a doctor"}
	}
	if err != nil {
		return nil, fmt.Errorf("check doctor: %w", err)
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      req.AppointmentDate,
		Type:      strings.TrimSpace(req.AppointmentType),
		Status:    AppointmentScheduled,
		Reason:    strings.TrimSpace(req.ReasonForVisit),
		Notes:     strings.TrimSpace(req.Notes),
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListOwned(ctx, role, ownerID, ListOptions{})
}

// ListTelehealth returns only appointments whose type marks them as remote.
func (s *Service) ListTelehealth(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Appointment, error) {
	return s.appointments.ListOwned(ctx, role, ownerID, ListOptions{TelehealthOnly: true})
}

func (s *Service) UpdateStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status AppointmentStatus) error {
	return s.appointments.UpdateStatus(ctx, role, ownerID, id, status)
}
