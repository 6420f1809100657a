package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/platform/auth"
)

// ErrSessionEnded is returned by Ensure for a session that was closed while
// one of its requests was still in flight.
var ErrSessionEnded = errors.New("session ended")

// tombstoneTTL outlives any in-flight request of a closed session.
const tombstoneTTL = 5 * time.Minute

type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (identity.Role, error)
}

// Registry holds the workspace of every live session, keyed by session id.
type Registry struct {
	catalog *Catalog
	roles   RoleResolver
	log     zerolog.Logger
	metrics *Metrics
	now     func() time.Time

	mu     sync.Mutex
	spaces map[string]*Workspace
	ended  map[string]time.Time
	done   chan struct{}
	once   sync.Once
}

func NewRegistry(catalog *Catalog, roles RoleResolver, env Env) *Registry {
	if env.Now == nil {
		env.Now = time.Now
	}
	return &Registry{
		catalog: catalog,
		roles:   roles,
		log:     env.Log,
		metrics: env.Metrics,
		now:     env.Now,
		spaces:  make(map[string]*Workspace),
		ended:   make(map[string]time.Time),
		done:    make(chan struct{}),
	}
}

// establish resolves the role of id once and settles the router. Any
// failure leaves the workspace Denied.
func (r *Registry) establish(ctx context.Context, sessionID string, id identity.Identity, expiresAt time.Time) *Workspace {
	w := newWorkspace(sessionID, id, expiresAt)
	role, err := r.roles.ResolveRole(ctx, id.ID)
	if err == nil {
		var layout Layout
		if layout, err = r.catalog.Layout(role, id.ID); err == nil {
			w.setLayout(layout)
		}
	}
	route := w.router.Resolved(role, err)
	ev := r.log.Info()
	if err != nil {
		ev = r.log.Warn().Err(err)
	}
	ev.Str("session_id", sessionID).Str("user_id", id.ID.String()).Str("route", route.String()).
		Msg("workspace established")
	return w
}

// Open creates the workspace of a new session, replacing any workspace
// already held under the same id.
func (r *Registry) Open(ctx context.Context, sessionID string, id identity.Identity, expiresAt time.Time) *Workspace {
	w := r.establish(ctx, sessionID, id, expiresAt)
	r.mu.Lock()
	if old, ok := r.spaces[sessionID]; ok {
		old.Close()
	}
	r.spaces[sessionID] = w
	n := len(r.spaces)
	r.mu.Unlock()
	r.metrics.setWorkspaces(n)
	return w
}

func (r *Registry) Get(sessionID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.spaces[sessionID]
	return w, ok
}

// Ensure returns the workspace of an authenticated session, establishing
// it from the token claims when the process has none (e.g. after a restart).
func (r *Registry) Ensure(ctx context.Context, claims *auth.Claims) (*Workspace, error) {
	if w, ok := r.Get(claims.ID); ok {
		return w, nil
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	w := r.establish(ctx, claims.ID, identity.Identity{ID: userID, Email: claims.Email}, expiresAt)

	r.mu.Lock()
	if _, gone := r.ended[claims.ID]; gone {
		r.mu.Unlock()
		w.Close()
		return nil, ErrSessionEnded
	}
	if existing, ok := r.spaces[claims.ID]; ok {
		r.mu.Unlock()
		w.Close()
		return existing, nil
	}
	r.spaces[claims.ID] = w
	n := len(r.spaces)
	r.mu.Unlock()
	r.metrics.setWorkspaces(n)
	return w, nil
}

// Close ends a session's workspace and keeps a tombstone so that a request
// already past authentication cannot re-create it. It reports whether a
// workspace existed.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	w, ok := r.spaces[sessionID]
	delete(r.spaces, sessionID)
	r.ended[sessionID] = r.now().Add(tombstoneTTL)
	n := len(r.spaces)
	r.mu.Unlock()
	if ok {
		w.Close()
		r.log.Info().Str("session_id", sessionID).Msg("workspace closed")
	}
	r.metrics.setWorkspaces(n)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

// Refresh reloads the named modules of the session in ctx. Modules the
// session does not have are skipped. Failures end up in the module state.
func (r *Registry) Refresh(ctx context.Context, modules ...string) {
	w, ok := r.Get(auth.SessionIDFromContext(ctx))
	if !ok {
		return
	}
	for _, name := range modules {
		p, err := w.Panel(name)
		if err != nil {
			continue
		}
		if err := w.Load(ctx, p); err != nil {
			r.log.Warn().Err(err).Str("module", name).Msg("refresh after write failed")
		}
	}
}

// StartSweeper closes expired workspaces every interval until Stop.
func (r *Registry) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Sweep closes every workspace whose session has expired.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	var expired []*Workspace
	for id, w := range r.spaces {
		if !w.expiresAt.IsZero() && now.After(w.expiresAt) {
			expired = append(expired, w)
			delete(r.spaces, id)
		}
	}
	for id, until := range r.ended {
		if now.After(until) {
			delete(r.ended, id)
		}
	}
	n := len(r.spaces)
	r.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	r.metrics.setWorkspaces(n)
	return len(expired)
}

// Stop ends the sweeper and closes every workspace. Safe to call more than
// once.
func (r *Registry) Stop() {
	r.once.Do(func() {
		close(r.done)
		r.mu.Lock()
		spaces := r.spaces
		r.spaces = make(map[string]*Workspace)
		r.mu.Unlock()
		for _, w := range spaces {
			w.Close()
		}
		r.metrics.setWorkspaces(0)
	})
}
