package clinical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/validation"
)

type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (identity.Role, error)
}

type Service struct {
	records       RecordRepository
	prescriptions PrescriptionRepository
	roles         RoleResolver
}

func NewService(records RecordRepository, prescriptions PrescriptionRepository, roles RoleResolver) *Service {
	return &Service{records: records, prescriptions: prescriptions, roles: roles}
}

// patientID parses raw and checks it names a patient.
func (s *Service) patientID(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validation.FieldErrors{"patient_id": "must be a valid id"}
	}
	role, err := s.roles.ResolveRole(ctx, id)
	if errors.Is(err, identity.ErrRoleNotFound) || (err == nil && role != identity.RolePatient) {
		return uuid.Nil, validation.FieldErrors{"patient_id": "must reference a patient"}
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("check patient: %w", err)
	}
	return id, nil
}

// -- Medical Record --

func (s *Service) CreateRecord(ctx context.Context, doctorID uuid.UUID, req RecordRequest) (*MedicalRecord, error) {
	patientID, err := s.patientID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	rec := &MedicalRecord{
		PatientID:         patientID,
		DoctorID:          doctorID,
		Diagnosis:         strings.TrimSpace(req.Diagnosis),
		ConsultationNotes: strings.TrimSpace(req.ConsultationNotes),
		TreatmentPlan:     strings.TrimSpace(req.TreatmentPlan),
		VitalSigns:        req.VitalSigns,
	}
	if req.AppointmentID != "" {
		apptID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			return nil, validation.FieldErrors{"appointment_id": "must be a valid id"}
		}
		rec.AppointmentID = &apptID
	}
	if rec.VitalSigns == nil {
		rec.VitalSigns = VitalSigns{}
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) ListRecords(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*MedicalRecord, error) {
	return s.records.ListOwned(ctx, role, ownerID)
}

// -- Prescription --

// Prescribe writes a new prescription. New prescriptions start active.
func (s *Service) Prescribe(ctx context.Context, doctorID uuid.UUID, req PrescriptionRequest) (*Prescription, error) {
	patientID, err := s.patientID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	p := &Prescription{
		PatientID:      patientID,
		DoctorID:       doctorID,
		MedicationName: strings.TrimSpace(req.MedicationName),
		Dosage:         strings.TrimSpace(req.Dosage),
		Frequency:      strings.TrimSpace(req.Frequency),
		Duration:       strings.TrimSpace(req.Duration),
		Instructions:   strings.TrimSpace(req.Instructions),
		Status:         PrescriptionActive,
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPrescriptions(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListOwned(ctx, role, ownerID)
}

func (s *Service) UpdatePrescriptionStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status PrescriptionStatus) error {
	return s.prescriptions.UpdateStatus(ctx, role, ownerID, id, status)
}
