package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/platform/presentation"
)

// Role decides which dashboard a user gets. Every user has exactly one.
type Role uint8

const (
	RoleSuperAdmin Role = iota
	RoleDoctor
	RolePatient
	roleCount
)

var roleNames = [...]string{"super_admin", "doctor", "patient"}

var roleBadges = [...]presentation.Badge{
	{Label: "Super Admin", Tone: presentation.ToneDanger},
	{Label: "Doctor", Tone: presentation.ToneInfo},
	{Label: "Patient", Tone: presentation.ToneSuccess},
}

var (
	_ = [1]struct{}{}[len(roleNames)-int(roleCount)]
	_ = [1]struct{}{}[len(roleBadges)-int(roleCount)]
)

func ParseRole(s string) (Role, error) {
	return presentation.Parse[Role]("role", roleNames[:], s)
}

func (r Role) String() string               { return presentation.Name(roleNames[:], r) }
func (r Role) Badge() presentation.Badge    { return presentation.BadgeOf(roleBadges[:], r) }
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// SelfSelectable reports whether the role may be chosen at sign-up.
func (r Role) SelfSelectable() bool {
	return r == RoleDoctor || r == RolePatient
}

// UserStatus gates sign-in.
type UserStatus uint8

const (
	UserActive UserStatus = iota
	UserSuspended
	userStatusCount
)

var userStatusNames = [...]string{"active", "suspended"}

var userStatusBadges = [...]presentation.Badge{
	{Label: "Active", Tone: presentation.ToneSuccess},
	{Label: "Suspended", Tone: presentation.ToneDanger},
}

var (
	_ = [1]struct{}{}[len(userStatusNames)-int(userStatusCount)]
	_ = [1]struct{}{}[len(userStatusBadges)-int(userStatusCount)]
)

func ParseUserStatus(s string) (UserStatus, error) {
	return presentation.Parse[UserStatus]("user status", userStatusNames[:], s)
}

// UserStatuses lists every status name in declaration order.
func UserStatuses() []string { return userStatusNames[:] }

func (s UserStatus) String() string               { return presentation.Name(userStatusNames[:], s) }
func (s UserStatus) Badge() presentation.Badge    { return presentation.BadgeOf(userStatusBadges[:], s) }
func (s UserStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *UserStatus) UnmarshalText(b []byte) error {
	v, err := ParseUserStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Identity is an authenticated user.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Account is the credential row behind an identity.
type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       UserStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Profile is the public part of a user, joined onto other entities as the
// counterpart of a row.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
}

// UnknownName stands in for a counterpart whose profile could not be found.
const UnknownName = "Unknown"

// DisplayName is safe on a nil profile.
func DisplayName(p *Profile) string {
	if p == nil {
		return UnknownName
	}
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return UnknownName
	}
	return name
}

// ProfileEmail is safe on a nil profile.
func ProfileEmail(p *Profile) string {
	if p == nil {
		return ""
	}
	return p.Email
}

// UserAccount is a row of the admin user list.
type UserAccount struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Role      string     `db:"role" json:"role"`
	Status    UserStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Name is the display name of the account holder.
func (u *UserAccount) Name() string {
	return DisplayName(&Profile{FirstName: u.FirstName, LastName: u.LastName})
}

// SignUpRequest is the sign-up form. Password is checked by the service so
// that a short password yields its dedicated message.
type SignUpRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password"`
	FirstName string `json:"first_name" validate:"notblank,max=100"`
	LastName  string `json:"last_name" validate:"notblank,max=100"`
	Role      string `json:"role" validate:"required,oneof=patient doctor"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrUnscopedRole is returned when a role has no rows of its own.
var ErrUnscopedRole = errors.New("role has no owner column")

// OwnerColumn names the foreign key that scopes a doctor's or a patient's
// rows. Super admins see unscoped data and have none.
func (r Role) OwnerColumn() (string, error) {
	switch r {
	case RoleDoctor:
		return "doctor_id", nil
	case RolePatient:
		return "patient_id", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnscopedRole, r)
	}
}
