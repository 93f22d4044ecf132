package service

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

// ViewState is the dispatcher's state: Unresolved until the principal is known, then the
// view matching its role.
type ViewState string

const (
	ViewUnresolved ViewState = "unresolved"
	ViewTeacher    ViewState = "teacher"
	ViewCounselor  ViewState = "counselor"
	ViewAdmin      ViewState = "admin"
	ViewSuperAdmin ViewState = "superadmin"
	ViewOther      ViewState = "other"
)

// ErrDispatcherClosed is returned by Wait when the dispatcher closed before resolving.
var ErrDispatcherClosed = errors.New("dispatcher closed before resolution")

// StateForRole maps a resolved role to its terminal view state.
func StateForRole(role models.Role) ViewState {
	switch role {
	case models.RoleTeacher:
		return ViewTeacher
	case models.RoleCounselor:
		return ViewCounselor
	case models.RoleAdmin:
		return ViewAdmin
	case models.RoleSuperAdmin:
		return ViewSuperAdmin
	default:
		return ViewOther
	}
}

// PrincipalResolver resolves the caller's principal.
type PrincipalResolver func(ctx context.Context) models.Principal

// Dispatcher resolves the principal once in the background and commits the first result.
// After Close any late result is dropped.
type Dispatcher struct {
	resolve PrincipalResolver

	mu        sync.Mutex
	started   bool
	closed    bool
	state     ViewState
	principal models.Principal
	done      chan struct{}
	cancel    context.CancelFunc
}

// NewDispatcher builds a dispatcher in the Unresolved state.
func NewDispatcher(resolve PrincipalResolver) *Dispatcher {
	return &Dispatcher{
		resolve: resolve,
		state:   ViewUnresolved,
		done:    make(chan struct{}),
	}
}

// Start launches resolution. Calls after the first, or after Close, do nothing.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.closed {
		d.mu.Unlock()
		return
	}
	d.started = true
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		defer cancel()
		principal := d.resolve(runCtx)
		d.commit(principal)
	}()
}

// commit stores the first resolution and reports whether it was accepted.
func (d *Dispatcher) commit(principal models.Principal) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.state != ViewUnresolved {
		return false
	}
	d.principal = principal
	d.state = StateForRole(principal.Role)
	close(d.done)
	return true
}

// Close stops accepting results. The current state is kept.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.cancel != nil {
		d.cancel()
	}
	if d.state == ViewUnresolved {
		close(d.done)
	}
}

// State returns the current state and principal without blocking.
func (d *Dispatcher) State() (ViewState, models.Principal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.principal
}

// Wait blocks until the dispatcher leaves Unresolved, is closed, or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) (ViewState, models.Principal, error) {
	select {
	case <-d.done:
	case <-ctx.Done():
		return ViewUnresolved, models.Principal{}, ctx.Err()
	}
	state, principal := d.State()
	if state == ViewUnresolved {
		return state, principal, ErrDispatcherClosed
	}
	return state, principal, nil
}
