package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/identity"
)

type Service struct {
	invoices      InvoiceRepository
	claims        ClaimRepository
	payments      PaymentRepository
	subscriptions SubscriptionRepository
}

func NewService(inv InvoiceRepository, cl ClaimRepository, pay PaymentRepository, sub SubscriptionRepository) *Service {
	return &Service{invoices: inv, claims: cl, payments: pay, subscriptions: sub}
}

// -- Invoice --

func (s *Service) ListInvoices(ctx context.Context, role identity.Role, ownerID uuid.UUID) ([]*Invoice, error) {
	return s.invoices.ListOwned(ctx, role, ownerID)
}

// -- Claim --

func (s *Service) ListClaims(ctx context.Context) ([]*Claim, error) {
	return s.claims.List(ctx)
}

func (s *Service) UpdateClaimStatus(ctx context.Context, id string, status ClaimStatus) error {
	return s.claims.UpdateStatus(ctx, id, status)
}

// -- Payment --

func (s *Service) ListPayments(ctx context.Context) ([]*Payment, error) {
	return s.payments.List(ctx)
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	return s.payments.UpdateStatus(ctx, id, status)
}

// -- Subscription --

func (s *Service) ListSubscriptions(ctx context.Context) ([]*Subscription, error) {
	return s.subscriptions.List(ctx)
}

func (s *Service) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status SubscriptionStatus) error {
	return s.subscriptions.UpdateStatus(ctx, id, status)
}

// -- Plans --

func (s *Service) Plans() []PlanInfo {
	return Catalog()
}
