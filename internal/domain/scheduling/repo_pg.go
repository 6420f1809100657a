package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/db"
)

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_id, doctor_id, appointment_date, appointment_type, status,
	reason_for_visit, notes, created_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	if err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Type, &status,
		&a.Reason, &a.Notes, &a.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.Status, err = ParseAppointmentStatus(status); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, appointment_date, appointment_type,
			status, reason_for_visit, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Type, a.Status.String(), a.Reason, a.Notes,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepoPG) ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID, opts ListOptions) ([]*Appointment, error) {
	col, err := role.OwnerColumn()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + apptCols + ` FROM appointment WHERE ` + col + ` = $1`
	args := []interface{}{ownerID}
	if opts.TelehealthOnly {
		query += ` AND appointment_type ILIKE $2`
		args = append(args, "%"+TelehealthMarker+"%")
	}
	query += ` ORDER BY appointment_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status AppointmentStatus) error {
	col, err := role.OwnerColumn()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointment SET status = $1 WHERE id = $2 AND `+col+` = $3`,
		status.String(), id, ownerID)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNoRows
	}
	return nil
}
