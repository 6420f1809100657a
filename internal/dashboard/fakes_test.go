package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinithetics/emr/internal/domain/billing"
	"github.com/clinithetics/emr/internal/domain/clinical"
	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/domain/scheduling"
	"github.com/clinithetics/emr/internal/platform/db"
)

var testNow = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func testEnv() Env {
	return Env{Log: zerolog.Nop(), Now: func() time.Time { return testNow }}
}

func owns(role identity.Role, owner, doctorID, patientID uuid.UUID) bool {
	switch role {
	case identity.RoleDoctor:
		return doctorID == owner
	case identity.RolePatient:
		return patientID == owner
	}
	return false
}

// -- Profiles --

type fakeProfiles struct {
	mu       sync.Mutex
	profiles []identity.Profile
	calls    int
	err      error
}

func (f *fakeProfiles) ProfilesByIDs(_ context.Context, ids []uuid.UUID) ([]identity.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []identity.Profile
	for _, p := range f.profiles {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// -- Appointments --

type listCall struct {
	role  identity.Role
	owner uuid.UUID
}

type fakeAppointments struct {
	mu        sync.Mutex
	rows      []*scheduling.Appointment
	lists     []listCall
	writes    int
	listErr   error
	updateErr error
}

func (f *fakeAppointments) list(role identity.Role, owner uuid.UUID, teleOnly bool) ([]*scheduling.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, listCall{role, owner})
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*scheduling.Appointment
	for _, a := range f.rows {
		if !owns(role, owner, a.DoctorID, a.PatientID) || (teleOnly && !a.IsTelehealth()) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAppointments) ListAppointments(_ context.Context, role identity.Role, owner uuid.UUID) ([]*scheduling.Appointment, error) {
	return f.list(role, owner, false)
}

func (f *fakeAppointments) ListTelehealth(_ context.Context, role identity.Role, owner uuid.UUID) ([]*scheduling.Appointment, error) {
	return f.list(role, owner, true)
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, role identity.Role, owner, id uuid.UUID, s scheduling.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, a := range f.rows {
		if a.ID == id && owns(role, owner, a.DoctorID, a.PatientID) {
			a.Status = s
			return nil
		}
	}
	return db.ErrNoRows
}

func (f *fakeAppointments) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// -- Clinical --

type fakeClinical struct {
	mu      sync.Mutex
	records []*clinical.MedicalRecord
	rx      []*clinical.Prescription
}

func (f *fakeClinical) ListRecords(_ context.Context, role identity.Role, owner uuid.UUID) ([]*clinical.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*clinical.MedicalRecord
	for _, r := range f.records {
		if owns(role, owner, r.DoctorID, r.PatientID) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeClinical) ListPrescriptions(_ context.Context, role identity.Role, owner uuid.UUID) ([]*clinical.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*clinical.Prescription
	for _, p := range f.rx {
		if owns(role, owner, p.DoctorID, p.PatientID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeClinical) UpdatePrescriptionStatus(_ context.Context, role identity.Role, owner, id uuid.UUID, s clinical.PrescriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rx {
		if p.ID == id && owns(role, owner, p.DoctorID, p.PatientID) {
			p.Status = s
			return nil
		}
	}
	return db.ErrNoRows
}

// -- Billing --

type fakeBilling struct {
	mu       sync.Mutex
	invoices []*billing.Invoice
	claims   []*billing.Claim
	payments []*billing.Payment
	subs     []*billing.Subscription
}

func (f *fakeBilling) ListInvoices(_ context.Context, role identity.Role, owner uuid.UUID) ([]*billing.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*billing.Invoice
	for _, inv := range f.invoices {
		if owns(role, owner, inv.DoctorID, inv.PatientID) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBilling) ListClaims(context.Context) ([]*billing.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*billing.Claim, 0, len(f.claims))
	for _, c := range f.claims {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBilling) UpdateClaimStatus(_ context.Context, id string, s billing.ClaimStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.claims {
		if c.ID == id {
			c.Status = s
			return nil
		}
	}
	return db.ErrNoRows
}

func (f *fakeBilling) ListPayments(context.Context) ([]*billing.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*billing.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBilling) UpdatePaymentStatus(_ context.Context, id string, s billing.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ID == id {
			p.Status = s
			return nil
		}
	}
	return db.ErrNoRows
}

func (f *fakeBilling) ListSubscriptions(context.Context) ([]*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*billing.Subscription, 0, len(f.subs))
	for _, s := range f.subs {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeBilling) UpdateSubscriptionStatus(_ context.Context, id uuid.UUID, s billing.SubscriptionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == id {
			sub.Status = s
			return nil
		}
	}
	return db.ErrNoRows
}

// -- Users --

type fakeUsers struct {
	mu    sync.Mutex
	users []*identity.UserAccount
}

func (f *fakeUsers) ListUsers(context.Context) ([]*identity.UserAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*identity.UserAccount, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsers) UpdateUserStatus(_ context.Context, id uuid.UUID, s identity.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.Status = s
			return nil
		}
	}
	return db.ErrNoRows
}

// -- Roles --

type fakeRoles struct {
	mu    sync.Mutex
	roles map[uuid.UUID]identity.Role
	err   error
	calls int
}

func (f *fakeRoles) ResolveRole(_ context.Context, id uuid.UUID) (identity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	r, ok := f.roles[id]
	if !ok {
		return 0, identity.ErrRoleNotFound
	}
	return r, nil
}

// -- Fixture --

type fixture struct {
	profiles *fakeProfiles
	appts    *fakeAppointments
	clinical *fakeClinical
	billing  *fakeBilling
	users    *fakeUsers
	roles    *fakeRoles

	doctor, otherDoctor, patient, admin uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		profiles:    &fakeProfiles{},
		appts:       &fakeAppointments{},
		clinical:    &fakeClinical{},
		billing:     &fakeBilling{},
		users:       &fakeUsers{},
		doctor:      uuid.New(),
		otherDoctor: uuid.New(),
		patient:     uuid.New(),
		admin:       uuid.New(),
	}
	f.roles = &fakeRoles{roles: map[uuid.UUID]identity.Role{
		f.doctor:      identity.RoleDoctor,
		f.otherDoctor: identity.RoleDoctor,
		f.patient:     identity.RolePatient,
		f.admin:       identity.RoleSuperAdmin,
	}}
	f.profiles.profiles = []identity.Profile{
		{ID: f.doctor, FirstName: "Michael", LastName: "Chen", Email: "chen@clinic.example"},
		{ID: f.patient, FirstName: "Sarah", LastName: "Johnson", Email: "sarah@example.com"},
	}
	return f
}

func (f *fixture) services() Services {
	return Services{
		Profiles:     f.profiles,
		Appointments: f.appts,
		Clinical:     f.clinical,
		Billing:      f.billing,
		Users:        f.users,
	}
}

func (f *fixture) catalog() *Catalog {
	return NewCatalog(f.services(), testEnv())
}

func (f *fixture) registry() *Registry {
	return NewRegistry(f.catalog(), f.roles, testEnv())
}

func (f *fixture) addAppointment(doctor, patient uuid.UUID, at time.Time, typ string, status scheduling.AppointmentStatus) *scheduling.Appointment {
	a := &scheduling.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctor,
		PatientID: patient,
		Date:      at,
		Type:      typ,
		Status:    status,
		Reason:    "Routine check",
	}
	f.appts.rows = append(f.appts.rows, a)
	return a
}

// panelOf returns the typed module named name from a layout.
func panelOf[T any, S Status](t interface{ Fatalf(string, ...interface{}) }, l Layout, name string) *Module[T, S] {
	for _, p := range l.Panels {
		if p.Name() == name {
			m, ok := p.(*Module[T, S])
			if !ok {
				t.Fatalf("panel %s has type %T", name, p)
			}
			return m
		}
	}
	t.Fatalf("no panel %s", name)
	return nil
}
