package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinithetics/emr/internal/platform/db"
)

// =========== Account Repository ===========

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) Create(ctx context.Context, a *Account, p *Profile, role Role) error {
	a.ID = uuid.New()
	p.ID = a.ID
	err := db.WithTx(ctx, r.pool, func(q db.Querier) error {
		if err := q.QueryRow(ctx, `
			INSERT INTO app_user (id, email, password_hash, status)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`,
			a.ID, a.Email, a.PasswordHash, a.Status.String()).Scan(&a.CreatedAt); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO profile (id, first_name, last_name, email)
			VALUES ($1, $2, $3, $4)`,
			p.ID, p.FirstName, p.LastName, p.Email); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, a.ID, role.String())
		return err
	})
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *accountRepoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, status, created_at
		FROM app_user WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &status, &a.CreatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	if a.Status, err = ParseUserStatus(status); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepoPG) List(ctx context.Context) ([]*UserAccount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, p.first_name, p.last_name, COALESCE(ur.role, ''), u.status, u.created_at
		FROM app_user u
		JOIN profile p ON p.id = u.id
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*UserAccount
	for rows.Next() {
		var u UserAccount
		var status string
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &status, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Status, err = ParseUserStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *accountRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE app_user SET status = $2 WHERE id = $1`, id, status.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNoRows
	}
	return nil
}

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository { return &profileRepoPG{pool: pool} }

const profileCols = `p.id, p.first_name, p.last_name, p.email`

func scanProfiles(rows pgx.Rows) ([]Profile, error) {
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profileRepoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileCols+` FROM profile p WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

func (r *profileRepoPG) ListByRole(ctx context.Context, role Role) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileCols+`
		FROM profile p
		JOIN user_roles ur ON ur.user_id = p.id
		JOIN app_user u ON u.id = p.id
		WHERE ur.role = $1 AND u.status = $2
		ORDER BY p.last_name, p.first_name`, role.String(), UserActive.String())
	if err != nil {
		return nil, err
	}
	return scanProfiles(rows)
}

// =========== Role Repository ===========

type roleRepoPG struct{ pool *pgxpool.Pool }

func NewRoleRepoPG(pool *pgxpool.Pool) RoleRepository { return &roleRepoPG{pool: pool} }

func (r *roleRepoPG) GetRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&role)
	if err != nil {
		return "", db.NotFound(err)
	}
	return role, nil
}
