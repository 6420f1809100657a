package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/presentation"
)

// -- Invoice --

type InvoiceStatus uint8

const (
	InvoicePaid InvoiceStatus = iota
	InvoicePending
	InvoiceOverdue
	InvoiceCancelled
	invoiceStatusCount
)

var invoiceStatusNames = [...]string{"paid", "pending", "overdue", "cancelled"}

var invoiceStatusBadges = [...]presentation.Badge{
	{Label: "Paid", Tone: presentation.ToneSuccess},
	{Label: "Pending", Tone: presentation.ToneWarning},
	{Label: "Overdue", Tone: presentation.ToneDanger},
	{Label: "Cancelled", Tone: presentation.ToneNeutral},
}

var (
	_ = [1]struct{}{}[len(invoiceStatusNames)-int(invoiceStatusCount)]
	_ = [1]struct{}{}[len(invoiceStatusBadges)-int(invoiceStatusCount)]
)

func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	return presentation.Parse[InvoiceStatus]("invoice status", invoiceStatusNames[:], s)
}

func InvoiceStatuses() []InvoiceStatus {
	return presentation.All(invoiceStatusCount)
}

func (s InvoiceStatus) String() string { return presentation.Name(invoiceStatusNames[:], s) }
func (s InvoiceStatus) Badge() presentation.Badge {
	return presentation.BadgeOf(invoiceStatusBadges[:], s)
}
func (s InvoiceStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *InvoiceStatus) UnmarshalText(b []byte) error {
	v, err := ParseInvoiceStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Invoice is read-only here; settling it happens elsewhere.
type Invoice struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Amount        float64       `db:"amount" json:"amount"`
	DueDate       *time.Time    `db:"due_date" json:"due_date,omitempty"`
	PaidDate      *time.Time    `db:"paid_date" json:"paid_date,omitempty"`
	Status        InvoiceStatus `db:"status" json:"status"`
	InvoiceNumber string        `db:"invoice_number" json:"invoice_number"`
	Description   string        `db:"description" json:"description"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`

	Counterpart *identity.Profile `json:"counterpart"`
}

func (i *Invoice) CounterpartID(viewer identity.Role) (uuid.UUID, bool) {
	switch viewer {
	case identity.RoleDoctor:
		return i.PatientID, true
	case identity.RolePatient:
		return i.DoctorID, true
	}
	return uuid.Nil, false
}

// -- PMB Claim --

type ClaimStatus uint8

const (
	ClaimPending ClaimStatus = iota
	ClaimApproved
	ClaimRejected
	ClaimUnderReview
	claimStatusCount
)

var claimStatusNames = [...]string{"pending", "approved", "rejected", "under_review"}

var claimStatusBadges = [...]presentation.Badge{
	{Label: "Pending", Tone: presentation.ToneWarning},
	{Label: "Approved", Tone: presentation.ToneSuccess},
	{Label: "Rejected", Tone: presentation.ToneDanger},
	{Label: "Under Review", Tone: presentation.ToneInfo},
}

var (
	_ = [1]struct{}{}[len(claimStatusNames)-int(claimStatusCount)]
	_ = [1]struct{}{}[len(claimStatusBadges)-int(claimStatusCount)]
)

func ParseClaimStatus(s string) (ClaimStatus, error) {
	return presentation.Parse[ClaimStatus]("claim status", claimStatusNames[:], s)
}

func ClaimStatuses() []ClaimStatus {
	return presentation.All(claimStatusCount)
}

func (s ClaimStatus) String() string               { return presentation.Name(claimStatusNames[:], s) }
func (s ClaimStatus) Badge() presentation.Badge    { return presentation.BadgeOf(claimStatusBadges[:], s) }
func (s ClaimStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *ClaimStatus) UnmarshalText(b []byte) error {
	v, err := ParseClaimStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Claim is a Prescribed Minimum Benefit claim submitted to a medical scheme.
type Claim struct {
	ID        string      `db:"id" json:"id"`
	Patient   string      `db:"patient_name" json:"patient"`
	Doctor    string      `db:"doctor_name" json:"doctor"`
	Procedure string      `db:"procedure" json:"procedure"`
	Amount    float64     `db:"amount" json:"amount"`
	Status    ClaimStatus `db:"status" json:"status"`
	Submitted time.Time   `db:"submitted" json:"submitted"`
	PMBCode   string      `db:"pmb_code" json:"pmb_code"`
}

// -- Payment --

type PaymentStatus uint8

const (
	PaymentCompleted PaymentStatus = iota
	PaymentPending
	PaymentFailed
	PaymentRefunded
	paymentStatusCount
)

var paymentStatusNames = [...]string{"completed", "pending", "failed", "refunded"}

var paymentStatusBadges = [...]presentation.Badge{
	{Label: "Completed", Tone: presentation.ToneSuccess},
	{Label: "Pending", Tone: presentation.ToneWarning},
	{Label: "Failed", Tone: presentation.ToneDanger},
	{Label: "Refunded", Tone: presentation.ToneNeutral},
}

var (
	_ = [1]struct{}{}[len(paymentStatusNames)-int(paymentStatusCount)]
	_ = [1]struct{}{}[len(paymentStatusBadges)-int(paymentStatusCount)]
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	return presentation.Parse[PaymentStatus]("payment status", paymentStatusNames[:], s)
}

func PaymentStatuses() []PaymentStatus {
	return presentation.All(paymentStatusCount)
}

func (s PaymentStatus) String() string { return presentation.Name(paymentStatusNames[:], s) }
func (s PaymentStatus) Badge() presentation.Badge {
	return presentation.BadgeOf(paymentStatusBadges[:], s)
}
func (s PaymentStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *PaymentStatus) UnmarshalText(b []byte) error {
	v, err := ParsePaymentStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Payment struct {
	ID         string        `db:"id" json:"id"`
	Payer      string        `db:"payer" json:"payer"`
	Amount     float64       `db:"amount" json:"amount"`
	Status     PaymentStatus `db:"status" json:"status"`
	Method     string        `db:"method" json:"method"`
	PaidOn     time.Time     `db:"paid_on" json:"paid_on"`
	InvoiceRef string        `db:"invoice_ref" json:"invoice_ref"`
}

// -- Subscription --

type SubscriptionStatus uint8

const (
	SubscriptionActive SubscriptionStatus = iota
	SubscriptionCancelled
	SubscriptionPastDue
	subscriptionStatusCount
)

var subscriptionStatusNames = [...]string{"active", "cancelled", "past_due"}

var subscriptionStatusBadges = [...]presentation.Badge{
	{Label: "Active", Tone: presentation.ToneSuccess},
	{Label: "Cancelled", Tone: presentation.ToneDanger},
	{Label: "Past Due", Tone: presentation.ToneWarning},
}

var (
	_ = [1]struct{}{}[len(subscriptionStatusNames)-int(subscriptionStatusCount)]
	_ = [1]struct{}{}[len(subscriptionStatusBadges)-int(subscriptionStatusCount)]
)

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	return presentation.Parse[SubscriptionStatus]("subscription status", subscriptionStatusNames[:], s)
}

func SubscriptionStatuses() []SubscriptionStatus {
	return presentation.All(subscriptionStatusCount)
}

func (s SubscriptionStatus) String() string { return presentation.Name(subscriptionStatusNames[:], s) }
func (s SubscriptionStatus) Badge() presentation.Badge {
	return presentation.BadgeOf(subscriptionStatusBadges[:], s)
}
func (s SubscriptionStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *SubscriptionStatus) UnmarshalText(b []byte) error {
	v, err := ParseSubscriptionStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type Subscription struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	Subscriber  string             `db:"subscriber" json:"subscriber"`
	Plan        Plan               `db:"plan" json:"plan"`
	Status      SubscriptionStatus `db:"status" json:"status"`
	Amount      float64            `db:"amount" json:"amount"`
	NextBilling *time.Time         `db:"next_billing" json:"next_billing,omitempty"`
}
