package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinithetics/emr/internal/platform/db"
	"github.com/clinithetics/emr/internal/platform/presentation"
	"github.com/clinithetics/emr/pkg/pagination"
)

var (
	ErrNotInScope       = errors.New("item is not in this view")
	ErrReadOnly         = errors.New("this view does not allow status changes")
	ErrStatusNotAllowed = errors.New("status change not allowed")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrUnknownModule    = errors.New("unknown module")
	// ErrDiscarded is returned by Load when a newer load started or the
	// load was cancelled (sign-out, client gone) before the fetch returned.
	ErrDiscarded = errors.New("load result discarded")
)

// Status is the constraint satisfied by every closed status enum.
type Status interface {
	~uint8
	String() string
	Badge() presentation.Badge
}

// Source describes one data module: how its rows are fetched, searched,
// summarised and updated.
type Source[T any, S Status] struct {
	Name  string
	Label string

	// Fetch runs the scoped query and the counterpart join.
	Fetch func(ctx context.Context) ([]T, error)
	ID    func(T) string
	// Fields are the searchable values of a row.
	Fields func(T) []string

	Statuses   []S
	Status     func(T) S
	WithStatus func(T, S) T
	Parse      func(string) (S, error)
	// Amount is nil for modules without a money column.
	Amount func(T) float64

	// Write persists a status change. Nil makes the module read-only.
	Write func(ctx context.Context, id string, s S) error
	// Allowed restricts the target statuses. Empty means any.
	Allowed []S
}

// Env carries the ambient dependencies of a module.
type Env struct {
	Log     zerolog.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// Module holds the last loaded collection of one Source for one session.
type Module[T any, S Status] struct {
	src Source[T, S]
	env Env

	mu       sync.Mutex
	state    State
	items    []T
	err      error
	gen      uint64
	loadedAt time.Time
}

func NewModule[T any, S Status](src Source[T, S], env Env) *Module[T, S] {
	if env.Now == nil {
		env.Now = time.Now
	}
	return &Module[T, S]{src: src, env: env}
}

func (m *Module[T, S]) Name() string  { return m.src.Name }
func (m *Module[T, S]) Label() string { return m.src.Label }

func (m *Module[T, S]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Items returns the full, unfiltered collection. The slice must not be
// modified.
func (m *Module[T, S]) Items() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items
}

// settled is the state to fall back to when a load is abandoned.
func (m *Module[T, S]) settled() State {
	switch {
	case m.err != nil:
		return StateFailed
	case !m.loadedAt.IsZero():
		return StateReady
	default:
		return StateIdle
	}
}

// Load fetches the collection. On failure the previous collection is kept
// and the module becomes Failed.
func (m *Module[T, S]) Load(ctx context.Context) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state = StateLoading
	m.mu.Unlock()

	start := time.Now()
	items, err := m.src.Fetch(ctx)
	elapsed := time.Since(start)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Cancellation means the session ended or the caller went away. A
	// deadline is an ordinary failed read and must reach the user.
	if gen != m.gen || errors.Is(ctx.Err(), context.Canceled) {
		if gen == m.gen {
			m.state = m.settled()
		}
		m.env.Metrics.observeLoad(m.src.Name, outcomeDiscarded, elapsed)
		return ErrDiscarded
	}
	if err != nil {
		m.err = err
		m.state = StateFailed
		m.env.Metrics.observeLoad(m.src.Name, outcomeFailed, elapsed)
		m.env.Log.Warn().Err(err).Str("module", m.src.Name).Msg("module load failed")
		return fmt.Errorf("load %s: %w", m.src.Name, err)
	}

	if items == nil {
		items = []T{}
	}
	m.items = items
	m.err = nil
	m.state = StateReady
	m.loadedAt = m.env.Now()
	m.env.Metrics.observeLoad(m.src.Name, outcomeReady, elapsed)
	return nil
}

// Summary counts the full collection per status. The search query never
// affects it.
func (m *Module[T, S]) Summary() Summary {
	return Summarize(m.Items(), m.src.Statuses, m.src.Status, m.src.Amount)
}

// View returns the filtered, paged collection together with the unfiltered
// summary.
func (m *Module[T, S]) View(query string, p pagination.Params) View {
	m.mu.Lock()
	items, state, err, loadedAt := m.items, m.state, m.err, m.loadedAt
	m.mu.Unlock()

	filtered := Filter(items, query, m.src.Fields)
	v := View{
		Module:  m.src.Name,
		Label:   m.src.Label,
		State:   state,
		Query:   query,
		Summary: Summarize(items, m.src.Statuses, m.src.Status, m.src.Amount),
		Page:    pagination.NewResponse(Page(filtered, p), len(filtered), p.Limit, p.Offset),
		Actions: m.actions(),
	}
	if !loadedAt.IsZero() {
		v.LoadedAt = &loadedAt
	}
	if state == StateFailed && err != nil {
		v.Notification = &Notification{
			Level:   LevelError,
			Message: fmt.Sprintf("Could not load %s. Please try again.", m.src.Label),
		}
	}
	return v
}

func (m *Module[T, S]) actions() []string {
	if m.src.Write == nil {
		return []string{}
	}
	targets := m.src.Allowed
	if len(targets) == 0 {
		targets = m.src.Statuses
	}
	out := make([]string, len(targets))
	for i, s := range targets {
		out[i] = s.String()
	}
	return out
}

func (m *Module[T, S]) permits(s S) bool {
	if len(m.src.Allowed) == 0 {
		return true
	}
	for _, a := range m.src.Allowed {
		if a == s {
			return true
		}
	}
	return false
}

func (m *Module[T, S]) indexOf(id string) int {
	for i, it := range m.items {
		if m.src.ID(it) == id {
			return i
		}
	}
	return -1
}

// UpdateStatus writes a status change for a row of the current collection
// and applies it locally without a re-fetch. On failure nothing changes.
func (m *Module[T, S]) UpdateStatus(ctx context.Context, id, raw string) (T, error) {
	var zero T
	if m.src.Write == nil {
		return zero, ErrReadOnly
	}
	status, err := m.src.Parse(raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}
	if !m.permits(status) {
		return zero, fmt.Errorf("%w: %s", ErrStatusNotAllowed, status)
	}

	m.mu.Lock()
	i := m.indexOf(id)
	var current T
	if i >= 0 {
		current = m.items[i]
	}
	m.mu.Unlock()
	if i < 0 {
		return zero, ErrNotInScope
	}

	if err := m.src.Write(ctx, id, status); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return zero, ErrNotInScope
		}
		return zero, fmt.Errorf("update %s %s: %w", m.src.Name, id, err)
	}

	updated := m.src.WithStatus(current, status)

	m.mu.Lock()
	defer m.mu.Unlock()
	// A reload may have replaced the collection while the write ran.
	if j := m.indexOf(id); j >= 0 {
		next := make([]T, len(m.items))
		copy(next, m.items)
		next[j] = updated
		m.items = next
	}
	return updated, nil
}

// Update is the type-erased form of UpdateStatus.
func (m *Module[T, S]) Update(ctx context.Context, id, status string) (interface{}, error) {
	return m.UpdateStatus(ctx, id, status)
}
