package dashboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinithetics/emr/internal/domain/billing"
	"github.com/clinithetics/emr/internal/domain/clinical"
	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/domain/scheduling"
)

// Stat is one card of the overview tab.
type Stat struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Value  interface{} `json:"value"`
	Detail string      `json:"detail,omitempty"`
}

// Tab is a dashboard tab. Count is the unfiltered row count of its module.
type Tab struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count *int   `json:"count,omitempty"`
	State *State `json:"state,omitempty"`
}

// Shell is the dashboard frame for one session.
type Shell struct {
	Route    Route             `json:"route"`
	Role     identity.Role     `json:"role"`
	Identity identity.Identity `json:"identity"`
	Tabs     []Tab             `json:"tabs"`
	Stats    []Stat            `json:"stats"`
}

const overviewTab = "overview"

func buildTabs(panels []Panel) []Tab {
	tabs := make([]Tab, 0, len(panels)+1)
	tabs = append(tabs, Tab{Key: overviewTab, Label: "Overview"})
	for _, p := range panels {
		count := p.Summary().Total
		state := p.State()
		tabs = append(tabs, Tab{Key: p.Name(), Label: p.Label(), Count: &count, State: &state})
	}
	return tabs
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// startOfWeek is Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// paidRevenue sums paid invoices settled on now's day and in now's month.
func paidRevenue(now time.Time, invoices []*billing.Invoice) (today, month float64) {
	y, m, _ := now.Date()
	for _, inv := range invoices {
		if inv.Status != billing.InvoicePaid || inv.PaidDate == nil {
			continue
		}
		paid := inv.PaidDate.In(now.Location())
		if py, pm, _ := paid.Date(); py != y || pm != m || paid.After(now) {
			continue
		}
		month += inv.Amount
		if sameDay(now, paid) {
			today += inv.Amount
		}
	}
	return today, month
}

func doctorStats(now time.Time, appts []*scheduling.Appointment, rx Summary, invoices []*billing.Invoice) []Stat {
	var today, upcoming int
	weekStart := startOfWeek(now)
	seen := make(map[uuid.UUID]struct{})
	for _, a := range appts {
		if sameDay(now, a.Date) {
			today++
		}
		if a.Status == scheduling.AppointmentScheduled && a.Date.After(now) {
			upcoming++
		}
		if a.Status == scheduling.AppointmentCompleted && !a.Date.Before(weekStart) && !a.Date.After(now) {
			seen[a.PatientID] = struct{}{}
		}
	}
	revenueToday, revenueMonth := paidRevenue(now, invoices)
	return []Stat{
		{Key: "todays_appointments", Label: "Today's Appointments", Value: today, Detail: fmt.Sprintf("%d upcoming", upcoming)},
		{Key: "patients_seen", Label: "Patients Seen", Value: len(seen), Detail: "this week"},
		{Key: "prescriptions", Label: "Prescriptions", Value: rx.Total,
			Detail: fmt.Sprintf("%d pending", rx.Count(clinical.PrescriptionPending.String()))},
		{Key: "revenue_today", Label: "Revenue Today", Value: revenueToday,
			Detail: fmt.Sprintf("%.2f this month", revenueMonth)},
	}
}

func patientStats(now time.Time, appts []*scheduling.Appointment, rx, invoices Summary) []Stat {
	var next *scheduling.Appointment
	for _, a := range appts {
		if a.Status != scheduling.AppointmentScheduled || a.Date.Before(now) {
			continue
		}
		if next == nil || a.Date.Before(next.Date) {
			next = a
		}
	}
	nextStat := Stat{Key: "next_appointment", Label: "Next Appointment", Value: nil, Detail: "none scheduled"}
	if next != nil {
		nextStat.Value = next.Date
		nextStat.Detail = fmt.Sprintf("%s with %s", next.Type, identity.DisplayName(next.Counterpart))
	}

	pending, overdue := billing.InvoicePending.String(), billing.InvoiceOverdue.String()
	due := invoices.Count(pending) + invoices.Count(overdue)
	return []Stat{
		nextStat,
		{Key: "active_prescriptions", Label: "Active Prescriptions", Value: rx.Count(clinical.PrescriptionActive.String())},
		{Key: "upcoming_payments", Label: "Upcoming Payments", Value: invoices.AmountOf(pending) + invoices.AmountOf(overdue),
			Detail: fmt.Sprintf("%d invoices due", due)},
	}
}

func adminStats(users, subs, payments, claims Summary) []Stat {
	active := subs.Count(billing.SubscriptionActive.String())
	open := claims.Count(billing.ClaimPending.String()) + claims.Count(billing.ClaimUnderReview.String())
	return []Stat{
		{Key: "total_users", Label: "Total Users", Value: users.Total,
			Detail: fmt.Sprintf("%d active", users.Count(identity.UserActive.String()))},
		{Key: "monthly_revenue", Label: "Monthly Revenue", Value: subs.AmountOf(billing.SubscriptionActive.String()),
			Detail: fmt.Sprintf("%d active subscriptions", active)},
		{Key: "active_claims", Label: "Active Claims", Value: open,
			Detail: fmt.Sprintf("%d approved", claims.Count(billing.ClaimApproved.String()))},
		{Key: "payment_revenue", Label: "Payments Received", Value: payments.AmountOf(billing.PaymentCompleted.String()),
			Detail: fmt.Sprintf("%d failed", payments.Count(billing.PaymentFailed.String()))},
	}
}
