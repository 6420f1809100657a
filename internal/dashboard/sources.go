package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/billing"
	"github.com/clinithetics/emr/internal/domain/clinical"
	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/domain/scheduling"
	"github.com/clinithetics/emr/internal/platform/join"
	"github.com/clinithetics/emr/internal/platform/presentation"
)

// Module names, as used in URLs.
const (
	ModuleAppointments  = "appointments"
	ModuleTelehealth    = "telehealth"
	ModuleRecords       = "records"
	ModulePrescriptions = "prescriptions"
	ModuleInvoices      = "invoices"
	ModuleClaims        = "claims"
	ModulePayments      = "payments"
	ModuleSubscriptions = "subscriptions"
	ModuleUsers         = "users"
)

type ProfileLookup interface {
	ProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.Profile, error)
}

type AppointmentService interface {
	ListAppointments(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*scheduling.Appointment, error)
	ListTelehealth(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*scheduling.Appointment, error)
	UpdateStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status scheduling.AppointmentStatus) error
}

type ClinicalService interface {
	ListRecords(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*clinical.MedicalRecord, error)
	ListPrescriptions(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*clinical.Prescription, error)
	UpdatePrescriptionStatus(ctx context.Context, role identity.Role, ownerID, id uuid.UUID, status clinical.PrescriptionStatus) error
}

type BillingService interface {
	ListInvoices(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*billing.Invoice, error)
	ListClaims(ctx context.Context) ([]*billing.Claim, error)
	UpdateClaimStatus(ctx context.Context, id string, status billing.ClaimStatus) error
	ListPayments(ctx context.Context) ([]*billing.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status billing.PaymentStatus) error
	ListSubscriptions(ctx context.Context) ([]*billing.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status billing.SubscriptionStatus) error
}

type UserService interface {
	ListUsers(ctx context.Context) ([]*identity.UserAccount, error)
	UpdateUserStatus(ctx context.Context, id uuid.UUID, status identity.UserStatus) error
}

// Services are the collaborators the modules read from and write to.
type Services struct {
	Profiles     ProfileLookup
	Appointments AppointmentService
	Clinical     ClinicalService
	Billing      BillingService
	Users        UserService
}

// Catalog builds the modules of a session from its role.
type Catalog struct {
	svc Services
	env Env
}

func NewCatalog(svc Services, env Env) *Catalog {
	if env.Now == nil {
		env.Now = time.Now
	}
	return &Catalog{svc: svc, env: env}
}

// Layout is what one role sees: its modules in tab order and the overview
// computed from them.
type Layout struct {
	Panels   []Panel
	Overview func() []Stat
}

func (c *Catalog) Layout(role identity.Role, owner uuid.UUID) (Layout, error) {
	switch role {
	case identity.RoleDoctor:
		appts := c.appointments(role, owner, false)
		records := c.records(role, owner)
		rx := c.prescriptions(role, owner)
		invoices := c.invoices(role, owner)
		tele := c.appointments(role, owner, true)
		return Layout{
			Panels: []Panel{appts, records, rx, invoices, tele},
			Overview: func() []Stat {
				return doctorStats(c.now(), appts.Items(), rx.Summary(), invoices.Items())
			},
		}, nil
	case identity.RolePatient:
		appts := c.appointments(role, owner, false)
		records := c.records(role, owner)
		rx := c.prescriptions(role, owner)
		invoices := c.invoices(role, owner)
		tele := c.appointments(role, owner, true)
		return Layout{
			Panels: []Panel{appts, records, rx, invoices, tele},
			Overview: func() []Stat {
				return patientStats(c.now(), appts.Items(), rx.Summary(), invoices.Summary())
			},
		}, nil
	case identity.RoleSuperAdmin:
		users := c.users()
		subs := c.subscriptions()
		payments := c.payments()
		claims := c.claims()
		return Layout{
			Panels: []Panel{users, subs, payments, claims},
			Overview: func() []Stat {
				return adminStats(users.Summary(), subs.Summary(), payments.Summary(), claims.Summary())
			},
		}, nil
	}
	return Layout{}, fmt.Errorf("%w: no layout for role %s", ErrUnknownModule, role)
}

func (c *Catalog) now() time.Time { return c.env.Now() }

// counterparted rows carry the id of the other party for a viewer.
type counterparted interface {
	CounterpartID(viewer identity.Role) (uuid.UUID, bool)
}

// withCounterparts fetches the profiles of the other party of every row and
// attaches them. Rows without a matching profile get nil.
func withCounterparts[T counterparted](ctx context.Context, profiles ProfileLookup, viewer identity.Role, rows []T, attach func(T, *identity.Profile) T) ([]T, error) {
	key := func(r T) (uuid.UUID, bool) { return r.CounterpartID(viewer) }
	ids := join.DistinctKeys(rows, key)
	var found []identity.Profile
	if len(ids) > 0 {
		var err error
		if found, err = profiles.ProfilesByIDs(ctx, ids); err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}
	return join.Join(rows, found, key, func(p identity.Profile) uuid.UUID { return p.ID }, attach), nil
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

// -- Appointments / Telehealth --

func (c *Catalog) appointments(role identity.Role, owner uuid.UUID, telehealth bool) *Module[*scheduling.Appointment, scheduling.AppointmentStatus] {
	src := Source[*scheduling.Appointment, scheduling.AppointmentStatus]{
		Name:  ModuleAppointments,
		Label: "Appointments",
		Fetch: func(ctx context.Context) ([]*scheduling.Appointment, error) {
			list := c.svc.Appointments.ListAppointments
			if telehealth {
				list = c.svc.Appointments.ListTelehealth
			}
			rows, err := list(ctx, role, owner)
			if err != nil {
				return nil, err
			}
			return withCounterparts(ctx, c.svc.Profiles, role, rows,
				func(a *scheduling.Appointment, p *identity.Profile) *scheduling.Appointment {
					cp := *a
					cp.Counterpart = p
					return &cp
				})
		},
		ID: func(a *scheduling.Appointment) string { return a.ID.String() },
		Fields: func(a *scheduling.Appointment) []string {
			return []string{
				identity.DisplayName(a.Counterpart), identity.ProfileEmail(a.Counterpart),
				a.Type, a.Reason, dateKey(a.Date), a.Status.String(),
			}
		},
		Statuses: scheduling.AppointmentStatuses(),
		Status:   func(a *scheduling.Appointment) scheduling.AppointmentStatus { return a.Status },
		WithStatus: func(a *scheduling.Appointment, s scheduling.AppointmentStatus) *scheduling.Appointment {
			cp := *a
			cp.Status = s
			return &cp
		},
		Parse: scheduling.ParseAppointmentStatus,
		Write: func(ctx context.Context, id string, s scheduling.AppointmentStatus) error {
			apptID, err := uuid.Parse(id)
			if err != nil {
				return ErrNotInScope
			}
			return c.svc.Appointments.UpdateStatus(ctx, role, owner, apptID, s)
		},
	}
	if telehealth {
		src.Name, src.Label = ModuleTelehealth, "Telehealth"
	}
	if role == identity.RolePatient {
		if telehealth {
			src.Write = nil
		} else {
			src.Allowed = []scheduling.AppointmentStatus{scheduling.AppointmentCancelled}
		}
	}
	return NewModule(src, c.env)
}

// -- Medical Records --

func (c *Catalog) records(role identity.Role, owner uuid.UUID) *Module[*clinical.MedicalRecord, recordStatus] {
	label := "Medical Records"
	if role == identity.RoleDoctor {
		label = "Patients"
	}
	return NewModule(Source[*clinical.MedicalRecord, recordStatus]{
		Name:  ModuleRecords,
		Label: label,
		Fetch: func(ctx context.Context) ([]*clinical.MedicalRecord, error) {
			rows, err := c.svc.Clinical.ListRecords(ctx, role, owner)
			if err != nil {
				return nil, err
			}
			return withCounterparts(ctx, c.svc.Profiles, role, rows,
				func(r *clinical.MedicalRecord, p *identity.Profile) *clinical.MedicalRecord {
					cp := *r
					cp.Counterpart = p
					return &cp
				})
		},
		ID: func(r *clinical.MedicalRecord) string { return r.ID.String() },
		Fields: func(r *clinical.MedicalRecord) []string {
			return []string{
				identity.DisplayName(r.Counterpart), identity.ProfileEmail(r.Counterpart),
				r.Diagnosis, r.TreatmentPlan,
			}
		},
		Statuses:   []recordStatus{recordFiled},
		Status:     func(*clinical.MedicalRecord) recordStatus { return recordFiled },
		WithStatus: func(r *clinical.MedicalRecord, _ recordStatus) *clinical.MedicalRecord { return r },
		Parse:      parseRecordStatus,
	}, c.env)
}

// recordStatus gives append-only records a single status so they fit the
// module contract.
type recordStatus uint8

const recordFiled recordStatus = 0

func (recordStatus) String() string { return "filed" }
func (recordStatus) Badge() presentation.Badge {
	return presentation.Badge{Label: "Filed", Tone: presentation.ToneNeutral}
}
func (s recordStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func parseRecordStatus(s string) (recordStatus, error) {
	if s == recordFiled.String() {
		return recordFiled, nil
	}
	return 0, fmt.Errorf("unknown record status %q", s)
}

// -- Prescriptions --

func (c *Catalog) prescriptions(role identity.Role, owner uuid.UUID) *Module[*clinical.Prescription, clinical.PrescriptionStatus] {
	src := Source[*clinical.Prescription, clinical.PrescriptionStatus]{
		Name:  ModulePrescriptions,
		Label: "Prescriptions",
		Fetch: func(ctx context.Context) ([]*clinical.Prescription, error) {
			rows, err := c.svc.Clinical.ListPrescriptions(ctx, role, owner)
			if err != nil {
				return nil, err
			}
			return withCounterparts(ctx, c.svc.Profiles, role, rows,
				func(p *clinical.Prescription, prof *identity.Profile) *clinical.Prescription {
					cp := *p
					cp.Counterpart = prof
					return &cp
				})
		},
		ID: func(p *clinical.Prescription) string { return p.ID.String() },
		Fields: func(p *clinical.Prescription) []string {
			return []string{
				identity.DisplayName(p.Counterpart), identity.ProfileEmail(p.Counterpart),
				p.MedicationName, p.Dosage,
			}
		},
		Statuses: clinical.PrescriptionStatuses(),
		Status:   func(p *clinical.Prescription) clinical.PrescriptionStatus { return p.Status },
		WithStatus: func(p *clinical.Prescription, s clinical.PrescriptionStatus) *clinical.Prescription {
			cp := *p
			cp.Status = s
			return &cp
		},
		Parse: clinical.ParsePrescriptionStatus,
	}
	if role == identity.RoleDoctor {
		src.Write = func(ctx context.Context, id string, s clinical.PrescriptionStatus) error {
			rxID, err := uuid.Parse(id)
			if err != nil {
				return ErrNotInScope
			}
			return c.svc.Clinical.UpdatePrescriptionStatus(ctx, role, owner, rxID, s)
		}
	}
	return NewModule(src, c.env)
}

// -- Invoices --

func (c *Catalog) invoices(role identity.Role, owner uuid.UUID) *Module[*billing.Invoice, billing.InvoiceStatus] {
	return NewModule(Source[*billing.Invoice, billing.InvoiceStatus]{
		Name:  ModuleInvoices,
		Label: "Invoices",
		Fetch: func(ctx context.Context) ([]*billing.Invoice, error) {
			rows, err := c.svc.Billing.ListInvoices(ctx, role, owner)
			if err != nil {
				return nil, err
			}
			return withCounterparts(ctx, c.svc.Profiles, role, rows,
				func(inv *billing.Invoice, p *identity.Profile) *billing.Invoice {
					cp := *inv
					cp.Counterpart = p
					return &cp
				})
		},
		ID: func(inv *billing.Invoice) string { return inv.ID.String() },
		Fields: func(inv *billing.Invoice) []string {
			return []string{
				identity.DisplayName(inv.Counterpart), identity.ProfileEmail(inv.Counterpart),
				inv.InvoiceNumber, inv.Description,
			}
		},
		Statuses: billing.InvoiceStatuses(),
		Status:   func(inv *billing.Invoice) billing.InvoiceStatus { return inv.Status },
		WithStatus: func(inv *billing.Invoice, s billing.InvoiceStatus) *billing.Invoice {
			cp := *inv
			cp.Status = s
			return &cp
		},
		Parse:  billing.ParseInvoiceStatus,
		Amount: func(inv *billing.Invoice) float64 { return inv.Amount },
	}, c.env)
}

// -- PMB Claims --

func (c *Catalog) claims() *Module[*billing.Claim, billing.ClaimStatus] {
	return NewModule(Source[*billing.Claim, billing.ClaimStatus]{
		Name:  ModuleClaims,
		Label: "PMB Claims",
		Fetch: c.svc.Billing.ListClaims,
		ID:    func(cl *billing.Claim) string { return cl.ID },
		Fields: func(cl *billing.Claim) []string {
			return []string{cl.Patient, cl.Doctor, cl.ID, cl.Procedure}
		},
		Statuses: billing.ClaimStatuses(),
		Status:   func(cl *billing.Claim) billing.ClaimStatus { return cl.Status },
		WithStatus: func(cl *billing.Claim, s billing.ClaimStatus) *billing.Claim {
			cp := *cl
			cp.Status = s
			return &cp
		},
		Parse:  billing.ParseClaimStatus,
		Amount: func(cl *billing.Claim) float64 { return cl.Amount },
		Write:  c.svc.Billing.UpdateClaimStatus,
	}, c.env)
}

// -- Payments --

func (c *Catalog) payments() *Module[*billing.Payment, billing.PaymentStatus] {
	return NewModule(Source[*billing.Payment, billing.PaymentStatus]{
		Name:  ModulePayments,
		Label: "Payments",
		Fetch: c.svc.Billing.ListPayments,
		ID:    func(p *billing.Payment) string { return p.ID },
		Fields: func(p *billing.Payment) []string {
			return []string{p.Payer, p.ID, p.InvoiceRef}
		},
		Statuses: billing.PaymentStatuses(),
		Status:   func(p *billing.Payment) billing.PaymentStatus { return p.Status },
		WithStatus: func(p *billing.Payment, s billing.PaymentStatus) *billing.Payment {
			cp := *p
			cp.Status = s
			return &cp
		},
		Parse:  billing.ParsePaymentStatus,
		Amount: func(p *billing.Payment) float64 { return p.Amount },
		Write:  c.svc.Billing.UpdatePaymentStatus,
	}, c.env)
}

// -- Subscriptions --

func (c *Catalog) subscriptions() *Module[*billing.Subscription, billing.SubscriptionStatus] {
	return NewModule(Source[*billing.Subscription, billing.SubscriptionStatus]{
		Name:  ModuleSubscriptions,
		Label: "Subscriptions",
		Fetch: c.svc.Billing.ListSubscriptions,
		ID:    func(s *billing.Subscription) string { return s.ID.String() },
		Fields: func(s *billing.Subscription) []string {
			return []string{s.Subscriber, s.Plan.String()}
		},
		Statuses: billing.SubscriptionStatuses(),
		Status:   func(s *billing.Subscription) billing.SubscriptionStatus { return s.Status },
		WithStatus: func(s *billing.Subscription, st billing.SubscriptionStatus) *billing.Subscription {
			cp := *s
			cp.Status = st
			return &cp
		},
		Parse:  billing.ParseSubscriptionStatus,
		Amount: func(s *billing.Subscription) float64 { return s.Amount },
		Write: func(ctx context.Context, id string, s billing.SubscriptionStatus) error {
			subID, err := uuid.Parse(id)
			if err != nil {
				return ErrNotInScope
			}
			return c.svc.Billing.UpdateSubscriptionStatus(ctx, subID, s)
		},
	}, c.env)
}

// -- Users --

func (c *Catalog) users() *Module[*identity.UserAccount, identity.UserStatus] {
	return NewModule(Source[*identity.UserAccount, identity.UserStatus]{
		Name:  ModuleUsers,
		Label: "Users",
		Fetch: c.svc.Users.ListUsers,
		ID:    func(u *identity.UserAccount) string { return u.ID.String() },
		Fields: func(u *identity.UserAccount) []string {
			return []string{u.Name(), u.Email, u.Role}
		},
		Statuses: []identity.UserStatus{identity.UserActive, identity.UserSuspended},
		Status:   func(u *identity.UserAccount) identity.UserStatus { return u.Status },
		WithStatus: func(u *identity.UserAccount, s identity.UserStatus) *identity.UserAccount {
			cp := *u
			cp.Status = s
			return &cp
		},
		Parse: identity.ParseUserStatus,
		Write: func(ctx context.Context, id string, s identity.UserStatus) error {
			userID, err := uuid.Parse(id)
			if err != nil {
				return ErrNotInScope
			}
			return c.svc.Users.UpdateUserStatus(ctx, userID, s)
		},
	}, c.env)
}
