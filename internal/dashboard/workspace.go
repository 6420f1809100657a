package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinithetics/emr/internal/domain/identity"
)

// Workspace is the state of one signed-in session: its settled route and
// the modules of its role. It lives from sign-in to sign-out; closing it
// cancels every load still running for the session.
type Workspace struct {
	sessionID string
	identity  identity.Identity
	expiresAt time.Time
	router    *Router
	layout    Layout
	panels    map[string]Panel

	ctx    context.Context
	cancel context.CancelFunc
}

func newWorkspace(sessionID string, id identity.Identity, expiresAt time.Time) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())
	return &Workspace{
		sessionID: sessionID,
		identity:  id,
		expiresAt: expiresAt,
		router:    NewRouter(),
		panels:    make(map[string]Panel),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (w *Workspace) SessionID() string           { return w.sessionID }
func (w *Workspace) Identity() identity.Identity { return w.identity }
func (w *Workspace) ExpiresAt() time.Time        { return w.expiresAt }
func (w *Workspace) Route() Route                { return w.router.Route() }
func (w *Workspace) Role() identity.Role         { return w.router.Role() }

func (w *Workspace) setLayout(l Layout) {
	w.layout = l
	for _, p := range l.Panels {
		w.panels[p.Name()] = p
	}
}

// Panels returns the modules in tab order.
func (w *Workspace) Panels() []Panel {
	return w.layout.Panels
}

func (w *Workspace) Panel(name string) (Panel, error) {
	p, ok := w.panels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return p, nil
}

// Close cancels outstanding loads. Results that arrive afterwards are
// discarded.
func (w *Workspace) Close() {
	w.cancel()
}

func (w *Workspace) Closed() bool {
	return w.ctx.Err() != nil
}

// bind derives a context that ends when either ctx or the workspace ends.
func (w *Workspace) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Load (re)loads one module.
func (w *Workspace) Load(ctx context.Context, p Panel) error {
	ctx, done := w.bind(ctx)
	defer done()
	return p.Load(ctx)
}

// LoadAll loads the given modules concurrently, every module on its own. A
// failing module does not stop the others; the first failure is returned.
func (w *Workspace) LoadAll(ctx context.Context, panels []Panel) error {
	ctx, done := w.bind(ctx)
	defer done()

	var g errgroup.Group
	for _, p := range panels {
		g.Go(func() error {
			if err := p.Load(ctx); err != nil && !errors.Is(err, ErrDiscarded) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// LoadIdle loads every module that has never been loaded.
func (w *Workspace) LoadIdle(ctx context.Context) error {
	var idle []Panel
	for _, p := range w.layout.Panels {
		if p.State() == StateIdle {
			idle = append(idle, p)
		}
	}
	if len(idle) == 0 {
		return nil
	}
	return w.LoadAll(ctx, idle)
}

// Shell renders the dashboard frame from the current module collections.
func (w *Workspace) Shell() Shell {
	s := Shell{
		Route:    w.Route(),
		Role:     w.Role(),
		Identity: w.identity,
		Tabs:     buildTabs(w.layout.Panels),
		Stats:    []Stat{},
	}
	if w.layout.Overview != nil {
		s.Stats = w.layout.Overview()
	}
	return s
}
