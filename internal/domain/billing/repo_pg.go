package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/db"
)

func affected(tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		return fmt.Errorf("update %s status: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNoRows
	}
	return nil
}

// -- Invoice --

type invoiceRepoPG struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepoPG{pool: pool}
}

func (r *invoiceRepoPG) ListOwned(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Invoice, error) {
	col, err := role.OwnerColumn()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, amount::float8, due_date, paid_date, status,
			invoice_number, description, created_at
		FROM invoice WHERE `+col+` = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []*Invoice
	for rows.Next() {
		var inv Invoice
		var status string
		if err := rows.Scan(&inv.ID, &inv.PatientID, &inv.DoctorID, &inv.Amount, &inv.DueDate,
			&inv.PaidDate, &status, &inv.InvoiceNumber, &inv.Description, &inv.CreatedAt); err != nil {
			return nil, err
		}
		if inv.Status, err = ParseInvoiceStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

// -- Claim --

type claimRepoPG struct {
	pool *pgxpool.Pool
}

func NewClaimRepoPG(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepoPG{pool: pool}
}

func (r *claimRepoPG) List(ctx context.Context) ([]*Claim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_name, doctor_name, procedure, amount::float8, status, submitted, pmb_code
		FROM pmb_claim ORDER BY submitted DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	var out []*Claim
	for rows.Next() {
		var c Claim
		var status string
		if err := rows.Scan(&c.ID, &c.Patient, &c.Doctor, &c.Procedure, &c.Amount, &status,
			&c.Submitted, &c.PMBCode); err != nil {
			return nil, err
		}
		if c.Status, err = ParseClaimStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *claimRepoPG) UpdateStatus(ctx context.Context, id string, status ClaimStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE pmb_claim SET status = $1 WHERE id = $2`, status.String(), id)
	return affected(tag, err, "claim")
}

// -- Payment --

type paymentRepoPG struct {
	pool *pgxpool.Pool
}

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepoPG{pool: pool}
}

func (r *paymentRepoPG) List(ctx context.Context) ([]*Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, payer, amount::float8, status, method, paid_on, invoice_ref
		FROM payment ORDER BY paid_on DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var out []*Payment
	for rows.Next() {
		var p Payment
		var status string
		if err := rows.Scan(&p.ID, &p.Payer, &p.Amount, &status, &p.Method, &p.PaidOn, &p.InvoiceRef); err != nil {
			return nil, err
		}
		if p.Status, err = ParsePaymentStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *paymentRepoPG) UpdateStatus(ctx context.Context, id string, status PaymentStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payment SET status = $1 WHERE id = $2`, status.String(), id)
	return affected(tag, err, "payment")
}

// -- Subscription --

type subscriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepoPG(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepoPG{pool: pool}
}

func (r *subscriptionRepoPG) List(ctx context.Context) ([]*Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, subscriber, plan, status, amount::float8, next_billing
		FROM subscription ORDER BY next_billing ASC NULLS LAST, subscriber`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	var out []*Subscription
	for rows.Next() {
		var s Subscription
		var plan, status string
		if err := rows.Scan(&s.ID, &s.Subscriber, &plan, &status, &s.Amount, &s.NextBilling); err != nil {
			return nil, err
		}
		if s.Plan, err = ParsePlan(plan); err != nil {
			return nil, err
		}
		if s.Status, err = ParseSubscriptionStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *subscriptionRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE subscription SET status = $1 WHERE id = $2`, status.String(), id)
	return affected(tag, err, "subscription")
}
