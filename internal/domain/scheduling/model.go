package scheduling

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/presentation"
)

type AppointmentStatus uint8

const (
	AppointmentScheduled AppointmentStatus = iota
	AppointmentCompleted
	AppointmentCancelled
	AppointmentNoShow
	appointmentStatusCount
)

var appointmentStatusNames = [...]string{"scheduled", "completed", "cancelled", "no_show"}

var appointmentStatusBadges = [...]presentation.Badge{
	{Label: "Scheduled", Tone: presentation.ToneInfo},
	{Label: "Completed", Tone: presentation.ToneSuccess},
	{Label: "Cancelled", Tone: presentation.ToneDanger},
	{Label: "No Show", Tone: presentation.ToneWarning},
}

var (
	_ = [1]struct{}{}[len(appointmentStatusNames)-int(appointmentStatusCount)]
	_ = [1]struct{}{}[len(appointmentStatusBadges)-int(appointmentStatusCount)]
)

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	return presentation.Parse[AppointmentStatus]("appointment status", appointmentStatusNames[:], s)
}

// AppointmentStatuses returns every status in declaration order.
func AppointmentStatuses() []AppointmentStatus {
	return presentation.All(appointmentStatusCount)
}

func (s AppointmentStatus) String() string { return presentation.Name(appointmentStatusNames[:], s) }
func (s AppointmentStatus) Badge() presentation.Badge {
	return presentation.BadgeOf(appointmentStatusBadges[:], s)
}
func (s AppointmentStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *AppointmentStatus) UnmarshalText(b []byte) error {
	v, err := ParseAppointmentStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Appointment is a booked visit between a patient and a doctor.
type Appointment struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      time.Time         `db:"appointment_date" json:"appointment_date"`
	Type      string            `db:"appointment_type" json:"appointment_type"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Reason    string            `db:"reason_for_visit" json:"reason_for_visit"`
	Notes     string            `db:"notes" json:"notes"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`

	// Counterpart is the other party's profile: the patient for a doctor,
	// the doctor for a patient. Nil when no profile was found.
	Counterpart *identity.Profile `json:"counterpart"`
}

// TelehealthMarker is matched case-insensitively against the appointment type.
const TelehealthMarker = "telehealth"

func (a *Appointment) IsTelehealth() bool {
	return strings.Contains(strings.ToLower(a.Type), TelehealthMarker)
}

// CounterpartID is the id of the other party from the point of view of role.
func (a *Appointment) CounterpartID(viewer identity.Role) (uuid.UUID, bool) {
	switch viewer {
	case identity.RoleDoctor:
		return a.PatientID, true
	case identity.RolePatient:
		return a.DoctorID, true
	}
	return uuid.Nil, false
}

// BookRequest is the patient booking form.
type BookRequest struct {
	DoctorID        string    `json:"doctor_id" validate:"required,uuid"`
	AppointmentDate time.Time `json:"appointment_date" validate:"required"`
	AppointmentType string    `json:"appointment_type" validate:"notblank,max=100"`
	ReasonForVisit  string    `json:"reason_for_visit" validate:"notblank"`
	Notes           string    `json:"notes"`
}
