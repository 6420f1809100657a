package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/db"
)

// -- Mock Repositories --

type mockInvoiceRepo struct {
	items []*Invoice
}

func (m *mockInvoiceRepo) ListOwned(_ context.Context, role identity.Role, ownerID uuid.UUID) ([]*Invoice, error) {
	if _, err := role.OwnerColumn(); err != nil {
		return nil, err
	}
	var out []*Invoice
	for _, inv := range m.items {
		if (role == identity.RolePatient && inv.PatientID == ownerID) || (role == identity.RoleDoctor && inv.DoctorID == ownerID) {
			out = append(out, inv)
		}
	}
	return out, nil
}

type mockClaimRepo struct {
	items map[string]*Claim
}

func (m *mockClaimRepo) List(_ context.Context) ([]*Claim, error) {
	var out []*Claim
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockClaimRepo) UpdateStatus(_ context.Context, id string, status ClaimStatus) error {
	c, ok := m.items[id]
	if !ok {
		return db.ErrNoRows
	}
	c.Status = status
	return nil
}

type mockPaymentRepo struct {
	items map[string]*Payment
}

func (m *mockPaymentRepo) List(_ context.Context) ([]*Payment, error) {
	var out []*Payment
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, id string, status PaymentStatus) error {
	p, ok := m.items[id]
	if !ok {
		return db.ErrNoRows
	}
	p.Status = status
	return nil
}

type mockSubscriptionRepo struct {
	items map[uuid.UUID]*Subscription
}

func (m *mockSubscriptionRepo) List(_ context.Context) ([]*Subscription, error) {
	var out []*Subscription
	for _, s := range m.items {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSubscriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status SubscriptionStatus) error {
	s, ok := m.items[id]
	if !ok {
		return db.ErrNoRows
	}
	s.Status = status
	return nil
}

type testRepos struct {
	invoices *mockInvoiceRepo
	claims   *mockClaimRepo
	payments *mockPaymentRepo
	subs     *mockSubscriptionRepo
}

func newTestService() (*Service, *testRepos) {
	r := &testRepos{
		invoices: &mockInvoiceRepo{},
		claims:   &mockClaimRepo{items: map[string]*Claim{"PMB-2024-001": {ID: "PMB-2024-001", Status: ClaimPending, Amount: 2850}}},
		payments: &mockPaymentRepo{items: map[string]*Payment{"PAY-001": {ID: "PAY-001", Status: PaymentFailed}}},
		subs:     &mockSubscriptionRepo{items: make(map[uuid.UUID]*Subscription)},
	}
	return NewService(r.invoices, r.claims, r.payments, r.subs), r
}

// -- Tests --

func TestService_ListInvoices_Scoped(t *testing.T) {
	svc, r := newTestService()
	me, other := uuid.New(), uuid.New()
	r.invoices.items = []*Invoice{
		{ID: uuid.New(), PatientID: me, InvoiceNumber: "INV-1"},
		{ID: uuid.New(), PatientID: other, InvoiceNumber: "INV-2"},
	}
	got, err := svc.ListInvoices(context.Background(), identity.RolePatient, me)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].InvoiceNumber != "INV-1" {
		t.Errorf("expected only INV-1, got %+v", got)
	}
}

func TestService_ListInvoices_UnscopedRole(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ListInvoices(context.Background(), identity.RoleSuperAdmin, uuid.New())
	if !errors.Is(err, identity.ErrUnscopedRole) {
		t.Fatalf("expected ErrUnscopedRole, got %v", err)
	}
}

func TestService_UpdateClaimStatus(t *testing.T) {
	svc, r := newTestService()
	if err := svc.UpdateClaimStatus(context.Background(), "PMB-2024-001", ClaimApproved); err != nil {
		t.Fatal(err)
	}
	if r.claims.items["PMB-2024-001"].Status != ClaimApproved {
		t.Error("expected claim to be approved")
	}
	if err := svc.UpdateClaimStatus(context.Background(), "PMB-2024-999", ClaimApproved); !errors.Is(err, db.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestService_UpdatePaymentStatus_Retry(t *testing.T) {
	svc, r := newTestService()
	if err := svc.UpdatePaymentStatus(context.Background(), "PAY-001", PaymentPending); err != nil {
		t.Fatal(err)
	}
	if r.payments.items["PAY-001"].Status != PaymentPending {
		t.Error("retrying a failed payment moves it back to pending")
	}
}

func TestService_UpdateSubscriptionStatus(t *testing.T) {
	svc, r := newTestService()
	id := uuid.New()
	r.subs.items[id] = &Subscription{ID: id, Plan: PlanPro, Status: SubscriptionActive}
	if err := svc.UpdateSubscriptionStatus(context.Background(), id, SubscriptionCancelled); err != nil {
		t.Fatal(err)
	}
	if r.subs.items[id].Status != SubscriptionCancelled {
		t.Error("expected cancelled subscription")
	}
}
