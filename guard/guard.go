// Package guard implements the per-mount route guard.
//
// A Guard starts pending and stays there until the session store resolves.
// It then grants the route, or redirects once to a public target. Redirecting
// is terminal for the mount; a mount that cannot redirect is denied instead.
package guard

import (
	"log/slog"
	"sync"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/authz"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// Phase is the guard's lifecycle position.
type Phase string

const (
	PhasePending     Phase = "pending"
	PhaseGranted     Phase = "granted"
	PhaseRedirecting Phase = "redirecting"
	PhaseDenied      Phase = "denied"
)

// Redirector performs navigation to target.
type Redirector func(target string)

// Source is the read side of the session store.
type Source interface {
	State() models.State
	Subscribe(fn func(models.State)) (unsubscribe func())
}

// Options configures a Guard.
type Options struct {
	// Redirect is called at most once per mount. Without it a denied route
	// ends in PhaseDenied.
	Redirect Redirector
	// Target defaults to the public landing route.
	Target string
	Logger *slog.Logger
}

// Guard protects one mounted route.
type Guard struct {
	route    string
	view     *authz.View
	redirect Redirector
	target   string
	log      *slog.Logger

	mu          sync.Mutex
	phase       Phase
	redirected  bool
	lastVersion uint64
	unmounted   bool
	unsubscribe func()
}

// New creates a pending guard for route.
func New(route string, view *authz.View, opts Options) *Guard {
	target := opts.Target
	if target == "" {
		target = authz.RouteLanding
	}
	return &Guard{
		route:    authz.Normalize(route),
		view:     view,
		redirect: opts.Redirect,
		target:   authz.Normalize(target),
		log:      logger.For(opts.Logger, "guard"),
		phase:    PhasePending,
	}
}

// Attach subscribes the guard to src and evaluates the current state.
func (g *Guard) Attach(src Source) Phase {
	unsubscribe := src.Subscribe(func(st models.State) { g.Evaluate(st) })

	g.mu.Lock()
	if g.unmounted {
		g.mu.Unlock()
		unsubscribe()
		return g.Phase()
	}
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	return g.Evaluate(src.State())
}

// Evaluate applies st and returns the resulting phase. Snapshots older than
// one already applied are ignored, and nothing changes after Unmount.
func (g *Guard) Evaluate(st models.State) Phase {
	g.mu.Lock()
	next, doRedirect := g.step(st)
	g.mu.Unlock()

	if doRedirect {
		g.log.Info("redirecting", "route", g.route, "target", g.target, "role", st.Role)
		g.redirect(g.target)
	}
	return next
}

// step is the transition function. The caller holds g.mu.
func (g *Guard) step(st models.State) (Phase, bool) {
	if g.unmounted || g.phase == PhaseRedirecting {
		return g.phase, false
	}
	if st.Version < g.lastVersion {
		return g.phase, false
	}
	g.lastVersion = st.Version

	if !st.Resolved() {
		return g.phase, false
	}

	if g.view.Allowed(st.Role, g.route) {
		g.phase = PhaseGranted
		return g.phase, false
	}

	if g.redirect == nil || g.target == g.route || g.redirected {
		g.phase = PhaseDenied
		return g.phase, false
	}

	g.phase = PhaseRedirecting
	g.redirected = true
	return g.phase, true
}

// Phase returns the current phase.
func (g *Guard) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Route returns the normalized guarded route.
func (g *Guard) Route() string {
	return g.route
}

// Unmount detaches the guard. Later state changes and bound callbacks are ignored.
func (g *Guard) Unmount() {
	g.mu.Lock()
	g.unmounted = true
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether Unmount has not been called.
func (g *Guard) Mounted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.unmounted
}

// Bind wraps a UI callback so it becomes a no-op once the guard is unmounted.
func (g *Guard) Bind(fn func()) func() {
	return func() {
		if g.Mounted() {
			fn()
		}
	}
}
