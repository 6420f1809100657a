package clinical

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/presentation"
)

type PrescriptionStatus uint8

const (
	PrescriptionActive PrescriptionStatus = iota
	PrescriptionCompleted
	PrescriptionCancelled
	PrescriptionPending
	prescriptionStatusCount
)

var prescriptionStatusNames = [...]string{"active", "completed", "cancelled", "pending"}

var prescriptionStatusBadges = [...]presentation.Badge{
	{Label: "Active", Tone: presentation.ToneSuccess},
	{Label: "Completed", Tone: presentation.ToneInfo},
	{Label: "Cancelled", Tone: presentation.ToneDanger},
	{Label: "Pending", Tone: presentation.ToneWarning},
}

var (
	_ = [1]struct{}{}[len(prescriptionStatusNames)-int(prescriptionStatusCount)]
	_ = [1]struct{}{}[len(prescriptionStatusBadges)-int(prescriptionStatusCount)]
)

func ParsePrescriptionStatus(s string) (PrescriptionStatus, error) {
	return presentation.Parse[PrescriptionStatus]("prescription status", prescriptionStatusNames[:], s)
}

func PrescriptionStatuses() []PrescriptionStatus {
	return presentation.All(prescriptionStatusCount)
}

func (s PrescriptionStatus) String() string { return presentation.Name(prescriptionStatusNames[:], s) }
func (s PrescriptionStatus) Badge() presentation.Badge {
	return presentation.BadgeOf(prescriptionStatusBadges[:], s)
}
func (s PrescriptionStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *PrescriptionStatus) UnmarshalText(b []byte) error {
	v, err := ParsePrescriptionStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// VitalSigns is an open set of measurements, e.g. "blood_pressure": "120/80".
type VitalSigns map[string]interface{}

// MedicalRecord is a consultation note. Records are never edited.
type MedicalRecord struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID          uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID     *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis         string     `db:"diagnosis" json:"diagnosis"`
	ConsultationNotes string     `db:"consultation_notes" json:"consultation_notes"`
	TreatmentPlan     string     `db:"treatment_plan" json:"treatment_plan"`
	VitalSigns        VitalSigns `db:"vital_signs" json:"vital_signs"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`

	Counterpart *identity.Profile `json:"counterpart"`
}

func (r *MedicalRecord) CounterpartID(viewer identity.Role) (uuid.UUID, bool) {
	return counterpart(viewer, r.PatientID, r.DoctorID)
}

type Prescription struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	PatientID      uuid.UUID          `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	MedicationName string             `db:"medication_name" json:"medication_name"`
	Dosage         string             `db:"dosage" json:"dosage"`
	Frequency      string             `db:"frequency" json:"frequency"`
	Duration       string             `db:"duration" json:"duration"`
	Instructions   string             `db:"instructions" json:"instructions"`
	Status         PrescriptionStatus `db:"status" json:"status"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`

	Counterpart *identity.Profile `json:"counterpart"`
}

func (p *Prescription) CounterpartID(viewer identity.Role) (uuid.UUID, bool) {
	return counterpart(viewer, p.PatientID, p.DoctorID)
}

func counterpart(viewer identity.Role, patientID, doctorID uuid.UUID) (uuid.UUID, bool) {
	switch viewer {
	case identity.RoleDoctor:
		return patientID, true
	case identity.RolePatient:
		return doctorID, true
	}
	return uuid.Nil, false
}

type RecordRequest struct {
	PatientID         string     `json:"patient_id" validate:"required,uuid"`
	AppointmentID     string     `json:"appointment_id" validate:"omitempty,uuid"`
	Diagnosis         string     `json:"diagnosis" validate:"notblank"`
	ConsultationNotes string     `json:"consultation_notes" validate:"notblank"`
	TreatmentPlan     string     `json:"treatment_plan" validate:"notblank"`
	VitalSigns        VitalSigns `json:"vital_signs"`
}

type PrescriptionRequest struct {
	PatientID      string `json:"patient_id" validate:"required,uuid"`
	MedicationName string `json:"medication_name" validate:"notblank,max=255"`
	Dosage         string `json:"dosage" validate:"notblank,max=100"`
	Frequency      string `json:"frequency" validate:"notblank,max=100"`
	Duration       string `json:"duration" validate:"notblank,max=100"`
	Instructions   string `json:"instructions" validate:"notblank"`
}
