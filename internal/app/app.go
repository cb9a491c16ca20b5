// Package app wires one signed-in session: repository, sync coordinator,
// editing arbiter and lifecycle controller over a single gateway.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"todosync/internal/editing"
	"todosync/internal/gateway"
	"todosync/internal/lifecycle"
	"todosync/internal/model"
	"todosync/internal/repository"
	"todosync/internal/syncer"
)

// DefaultListName is the list created when the store has none.
const DefaultListName = "My Tasks"

// App is the state of one session.
type App struct {
	gw     gateway.Gateway
	log    *slog.Logger
	notify lifecycle.Notifier

	repo      *repository.Repository
	status    *syncer.Status
	coord     *syncer.Coordinator
	creations *syncer.Creations
	arb       *editing.Arbiter
	ctl       *lifecycle.Controller

	mu      sync.Mutex
	sinks   map[int]lifecycle.Notifier
	nextObs int
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithNotifier sets the sink for user-visible notices.
func WithNotifier(n lifecycle.Notifier) Option {
	return func(a *App) { a.notify = n }
}

// New creates an App over gw. Call Bootstrap before use.
func New(gw gateway.Gateway, opts ...Option) *App {
	a := &App{gw: gw, log: slog.Default(), sinks: make(map[int]lifecycle.Notifier)}
	for _, opt := range opts {
		opt(a)
	}
	if a.notify == nil {
		a.notify = func(lifecycle.Notice) {}
	}

	a.repo = repository.New()
	a.status = syncer.NewStatus()
	a.coord = syncer.NewCoordinator(a.status,
		syncer.WithLogger(a.log),
		syncer.WithFailureHandler(func(m *syncer.Mutation) {
			a.emit(lifecycle.FailureNotice(m))
		}),
	)
	a.creations = syncer.NewCreations()
	a.arb = editing.New(a.repo, a.coord, gw, a.creations, a.log)
	a.ctl = lifecycle.New(lifecycle.Deps{
		Repo:      a.repo,
		Coord:     a.coord,
		Gateway:   gw,
		Creations: a.creations,
		Arbiter:   a.arb,
		Notify:    a.emit,
		Log:       a.log,
	})
	return a
}

// Subscribe registers fn for every notice in addition to the WithNotifier
// sink. fn runs on the goroutine raising the notice and must not block.
func (a *App) Subscribe(fn lifecycle.Notifier) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextObs
	a.nextObs++
	a.sinks[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.sinks, id)
	}
}

func (a *App) emit(n lifecycle.Notice) {
	a.notify(n)
	a.mu.Lock()
	fns := make([]lifecycle.Notifier, 0, len(a.sinks))
	for _, fn := range a.sinks {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(n)
	}
}

// SignIn validates the credentials locally and exchanges them for a session.
// Invalid input fails with *model.ValidationError before any remote call.
func (a *App) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	return SignIn(ctx, a.gw, email, password)
}

// SignIn validates the credentials and authenticates them against gw.
func SignIn(ctx context.Context, gw gateway.Gateway, email, password string) (model.Session, error) {
	if err := model.ValidateCredentials(email, password); err != nil {
		return model.Session{}, err
	}
	sess, err := gw.Authenticate(ctx, email, password)
	if err != nil {
		return model.Session{}, model.NewRemoteError("authenticate", err)
	}
	return sess, nil
}

// SignUp validates the credentials and registers a new account.
func SignUp(ctx context.Context, reg gateway.Registrar, email, password string) (model.Session, error) {
	if err := model.ValidateCredentials(email, password); err != nil {
		return model.Session{}, err
	}
	sess, err := reg.Register(ctx, email, password)
	if err != nil {
		return model.Session{}, model.NewRemoteError("register", err)
	}
	return sess, nil
}

// Bootstrap loads every list into the repository and marks the session
// synced. A load failure fails the whole boot. An empty store gets a
// default list so there is always one to show.
func (a *App) Bootstrap(ctx context.Context) error {
	lists, err := a.gw.LoadAllLists(ctx)
	if err != nil {
		return model.NewRemoteError("loadAllLists", err)
	}
	a.repo.ReplaceLists(lists)
	a.coord.Reset()
	a.log.Debug("bootstrap", "lists", len(lists))

	if a.repo.Len() == 0 {
		if _, _, err := a.ctl.CreateList(ctx, DefaultListName, model.DefaultColor); err != nil {
			return fmt.Errorf("create default list: %w", err)
		}
	}
	return a.ctl.SelectIndex(0)
}

// Teardown waits for in-flight calls and drops all session state.
func (a *App) Teardown(ctx context.Context) error {
	err := a.coord.Wait(ctx)
	a.arb.Cancel()
	a.ctl.Reset()
	a.repo.Clear()
	a.creations.Clear()
	a.coord.Reset()
	return err
}

// Gateway returns the gateway the session talks to.
func (a *App) Gateway() gateway.Gateway { return a.gw }

// Repository returns the local view of lists.
func (a *App) Repository() *repository.Repository { return a.repo }

// Status returns the sync state signal.
func (a *App) Status() *syncer.Status { return a.status }

// Coordinator returns the sync coordinator.
func (a *App) Coordinator() *syncer.Coordinator { return a.coord }

// Arbiter returns the editing arbiter.
func (a *App) Arbiter() *editing.Arbiter { return a.arb }

// Controller returns the lifecycle controller.
func (a *App) Controller() *lifecycle.Controller { return a.ctl }

// Wait blocks until every in-flight remote call resolved and returns the
// error of the last failed one, if any failed.
func (a *App) Wait(ctx context.Context) error {
	if err := a.coord.Wait(ctx); err != nil {
		return err
	}
	if m := a.coord.LastFailure(); m != nil {
		return m.Err()
	}
	return nil
}
