package clinical

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/db"
)

// -- Medical Record --

type recordRepoPG struct {
	pool *pgxpool.Pool
}

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	if m.VitalSigns == nil {
		m.VitalSigns = VitalSigns{}
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO medical_record (id, patient_id, doctor_id, appointment_id, diagnosis,
			consultation_notes, treatment_plan, vital_signs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		m.ID, m.PatientID, m.DoctorID, m.AppointmentID, m.Diagnosis,
		m.ConsultationNotes, m.TreatmentPlan, map[string]interface{}(m.VitalSigns),
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create medical record: %w", err)
	}
	return nil
}

func (r *recordRepoPG) ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*MedicalRecord, error) {
	col, err := role.OwnerColumn()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, appointment_id, diagnosis, consultation_notes,
			treatment_plan, vital_signs, created_at
		FROM medical_record WHERE `+col+` = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()
	var out []*MedicalRecord
	for rows.Next() {
		var m MedicalRecord
		var vitals map[string]interface{}
		if err := rows.Scan(&m.ID, &m.PatientID, &m.DoctorID, &m.AppointmentID, &m.Diagnosis,
			&m.ConsultationNotes, &m.TreatmentPlan, &vitals, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.VitalSigns = vitals
		out = append(out, &m)
	}
	return out, rows.Err()
}

// -- Prescription --

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO prescription (id, patient_id, doctor_id, medication_name, dosage, frequency,
			duration, instructions, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		p.ID, p.PatientID, p.DoctorID, p.MedicationName, p.Dosage, p.Frequency,
		p.Duration, p.Instructions, p.Status.String(),
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepoPG) ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Prescription, error) {
	col, err := role.OwnerColumn()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, medication_name, dosage, frequency, duration,
			instructions, status, created_at
		FROM prescription WHERE `+col+` = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()
	var out []*Prescription
	for rows.Next() {
		var p Prescription
		var status string
		if err := rows.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.MedicationName, &p.Dosage,
			&p.Frequency, &p.Duration, &p.Instructions, &status, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Status, err = ParsePrescriptionStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *prescriptionRepoPG) UpdateStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status PrescriptionStatus) error {
	col, err := role.OwnerColumn()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE prescription SET status = $1 WHERE id = $2 AND `+col+` = $3`,
		status.String(), id, ownerID)
	if err != nil {
		return fmt.Errorf("update prescription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNoRows
	}
	return nil
}
