package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/clinithetics/emr/internal/platform/presentation"
	"github.com/clinithetics/emr/pkg/pagination"
)

// Panel is a module with its row type erased, as the workspace and the
// handlers see it.
type Panel interface {
	Name() string
	Label() string
	State() State
	Load(ctx context.Context) error
	Summary() Summary
	View(query string, p pagination.Params) View
	Update(ctx context.Context, id, status string) (interface{}, error)
}

var _ Panel = (*Module[struct{}, State])(nil)

const (
	LevelError   = "error"
	LevelSuccess = "success"
)

type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type StatusCount struct {
	Status string             `json:"status"`
	Badge  presentation.Badge `json:"badge"`
	Count  int                `json:"count"`
	Amount float64            `json:"amount"`
}

// Summary is computed over the full collection.
type Summary struct {
	Total    int           `json:"total"`
	Amount   float64       `json:"amount"`
	ByStatus []StatusCount `json:"by_status"`
}

// Count returns the number of rows in status, zero when absent.
func (s Summary) Count(status string) int {
	for _, c := range s.ByStatus {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

// AmountOf returns the summed amount of rows in status.
func (s Summary) AmountOf(status string) float64 {
	for _, c := range s.ByStatus {
		if c.Status == status {
			return c.Amount
		}
	}
	return 0
}

type View struct {
	Module       string               `json:"module"`
	Label        string               `json:"label"`
	State        State                `json:"state"`
	Query        string               `json:"query"`
	Summary      Summary              `json:"summary"`
	Page         *pagination.Response `json:"page"`
	Actions      []string             `json:"actions"`
	LoadedAt     *time.Time           `json:"loaded_at,omitempty"`
	Notification *Notification        `json:"notification,omitempty"`
}

// Filter keeps the rows where any field contains query, ignoring case. An
// empty query keeps every row. The input is never modified.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	if q == "" {
		return append(out, items...)
	}
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Summarize counts rows per status in enum order, including statuses with no
// rows. amount may be nil.
func Summarize[T any, S Status](items []T, statuses []S, status func(T) S, amount func(T) float64) Summary {
	sum := Summary{Total: len(items), ByStatus: make([]StatusCount, len(statuses))}
	index := make(map[S]int, len(statuses))
	for i, s := range statuses {
		index[s] = i
		sum.ByStatus[i] = StatusCount{Status: s.String(), Badge: s.Badge()}
	}
	for _, it := range items {
		var amt float64
		if amount != nil {
			amt = amount(it)
			sum.Amount += amt
		}
		if i, ok := index[status(it)]; ok {
			sum.ByStatus[i].Count++
			sum.ByStatus[i].Amount += amt
		}
	}
	return sum
}

// Page slices out one page of items.
func Page[T any](items []T, p pagination.Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}
