package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinithetics/emr/internal/platform/db"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password too short")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrRoleNotSelectable  = errors.New("role cannot be chosen at sign-up")
	ErrRoleNotFound       = errors.New("role not found")
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// User-facing messages for authentication failures.
const (
	MsgInvalidCredentials = "Invalid email or password. Please check your credentials."
	MsgDuplicateEmail     = "An account with this email already exists. Please sign in instead."
	MsgWeakPassword       = "Password must be at least 6 characters long."
	MsgUnexpected         = "An unexpected error occurred. Please try again."
)

// AuthMessage maps a sign-in or sign-up error to the message shown to the
// user. Anything unrecognised gets the generic message.
func AuthMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountSuspended):
		return MsgInvalidCredentials
	case errors.Is(err, ErrDuplicateEmail):
		return MsgDuplicateEmail
	case errors.Is(err, ErrWeakPassword):
		return MsgWeakPassword
	default:
		return MsgUnexpected
	}
}

type Service struct {
	accounts AccountRepository
	profiles ProfileRepository
	roles    RoleRepository
	hashCost int
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewService(accounts AccountRepository, profiles ProfileRepository, roles RoleRepository) *Service {
	return newServiceWithCost(accounts, profiles, roles, bcrypt.DefaultCost)
}

func newServiceWithCost(accounts AccountRepository, profiles ProfileRepository, roles RoleRepository, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("clinithetics-placeholder"), cost)
	return &Service{accounts: accounts, profiles: profiles, roles: roles, hashCost: cost, dummyHash: dummy}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a patient or doctor.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Identity, error) {
	role, err := ParseRole(req.Role)
	if err != nil || !role.SelfSelectable() {
		return nil, ErrRoleNotSelectable
	}
	return s.CreateUser(ctx, req, role)
}

// CreateUser registers a user with any role. Only the operator CLI calls it
// directly; it is the sole way to create a super admin.
func (s *Service) CreateUser(ctx context.Context, req SignUpRequest, role Role) (*Identity, error) {
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &Account{Email: email, PasswordHash: string(hash), Status: UserActive}
	prof := &Profile{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
	}
	if err := s.accounts.Create(ctx, acct, prof, role); err != nil {
		return nil, err
	}
	return &Identity{ID: acct.ID, Email: acct.Email}, nil
}

// SignIn checks credentials. Unknown email and wrong password are not
// distinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	acct, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, db.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if acct.Status == UserSuspended {
		return nil, ErrAccountSuspended
	}
	return &Identity{ID: acct.ID, Email: acct.Email}, nil
}

// ResolveRole returns the single role of a user. A missing row or a value
// outside the known roles is ErrRoleNotFound; no default is assumed.
func (s *Service) ResolveRole(ctx context.Context, userID uuid.UUID) (Role, error) {
	raw, err := s.roles.GetRole(ctx, userID)
	if errors.Is(err, db.ErrNoRows) {
		return 0, ErrRoleNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve role: %w", err)
	}
	role, err := ParseRole(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRoleNotFound, err)
	}
	return role, nil
}

// ProfilesByIDs looks up profiles for a set of user ids. An empty set does
// not reach the repository.
func (s *Service) ProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.profiles.ListByIDs(ctx, ids)
}

// ListDoctors is the directory patients pick from when booking.
func (s *Service) ListDoctors(ctx context.Context) ([]Profile, error) {
	return s.profiles.ListByRole(ctx, RoleDoctor)
}

func (s *Service) ListUsers(ctx context.Context) ([]*UserAccount, error) {
	return s.accounts.List(ctx)
}

func (s *Service) UpdateUserStatus(ctx context.Context, id uuid.UUID, status UserStatus) error {
	return s.accounts.UpdateStatus(ctx, id, status)
}
