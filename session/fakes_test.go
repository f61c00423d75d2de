package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeAccount struct {
	userID   string
	password string
	role     string
	fullName *string
}

// fakeGateway is an in-memory credential authority.
type fakeGateway struct {
	clock *fakeClock
	ttl   time.Duration

	mu       sync.Mutex
	accounts map[string]*fakeAccount  // email -> account
	sessions map[string]*models.Grant // credential -> grant
	calls    map[string]int
	seq      int

	// signInGate, when set, blocks SignIn until it is closed.
	signInGate chan struct{}
	// signInStarted is signalled once per SignIn call after it enters the gateway.
	signInStarted chan struct{}
	restoreGate   chan struct{}
	signOutErr    error
	restoreErr    error
}

func newFakeGateway(clock *fakeClock) *fakeGateway {
	return &fakeGateway{
		clock:    clock,
		ttl:      time.Hour,
		accounts: make(map[string]*fakeAccount),
		sessions: make(map[string]*models.Grant),
		calls:    make(map[string]int),
	}
}

func (g *fakeGateway) addAccount(email, password, role string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts[email] = &fakeAccount{userID: "u-" + email, password: password, role: role}
}

func (g *fakeGateway) setRole(email, role string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts[email].role = role
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) issue(email string, acc *fakeAccount) *models.Grant {
	g.seq++
	now := g.clock.Now()
	grant := &models.Grant{
		SessionID:  fmt.Sprintf("sess-%d", g.seq),
		UserID:     acc.userID,
		Email:      email,
		Role:       acc.role,
		FullName:   acc.fullName,
		IssuedAt:   now,
		ExpiresAt:  now.Add(g.ttl),
		Credential: fmt.Sprintf("cred-%d", g.seq),
	}
	g.sessions[grant.Credential] = grant
	return grant
}

func (g *fakeGateway) SignIn(ctx context.Context, email, password string) (*models.Grant, error) {
	g.mu.Lock()
	g.calls["signin"]++
	gate, started := g.signInGate, g.signInStarted
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	acc, ok := g.accounts[email]
	if !ok || acc.password != password {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrInvalidCredentials)
	}
	return g.issue(email, acc), nil
}

func (g *fakeGateway) SignUp(ctx context.Context, email, password, fullName string) (*models.Grant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["signup"]++

	if _, exists := g.accounts[email]; exists {
		return nil, fmt.Errorf("%w: email already in use", pkg.ErrAlreadyExists)
	}
	acc := &fakeAccount{userID: "u-" + email, password: password, role: "user", fullName: &fullName}
	g.accounts[email] = acc
	return g.issue(email, acc), nil
}

func (g *fakeGateway) SignOut(ctx context.Context, credential string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["signout"]++
	if g.signOutErr != nil {
		return g.signOutErr
	}
	delete(g.sessions, credential)
	return nil
}

func (g *fakeGateway) RestoreSession(ctx context.Context, credential string) (*models.Grant, error) {
	g.mu.Lock()
	g.calls["restore"]++
	gate := g.restoreGate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.restoreErr != nil {
		return nil, g.restoreErr
	}
	prev, ok := g.sessions[credential]
	if !ok || !g.clock.Now().Before(prev.ExpiresAt) {
		return nil, nil
	}

	acc := g.accounts[prev.Email]
	next := *prev
	next.Role = acc.role
	next.FullName = acc.fullName
	next.IssuedAt = g.clock.Now()
	return &next, nil
}

// fakeProfiles serves a fixed name for whoever owns the credential.
type fakeProfiles struct {
	gateway *fakeGateway
	name    string

	mu    sync.Mutex
	calls int
}

func (p *fakeProfiles) Profile(ctx context.Context, credential string) (*models.Profile, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	p.gateway.mu.Lock()
	defer p.gateway.mu.Unlock()
	grant, ok := p.gateway.sessions[credential]
	if !ok {
		return nil, fmt.Errorf("%w: unknown credential", pkg.ErrUnauthorized)
	}
	name := p.name
	return &models.Profile{UserID: grant.UserID, FullName: &name}, nil
}

func (p *fakeProfiles) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recorder collects every state a store publishes.
type recorder struct {
	mu     sync.Mutex
	states []models.State
}

func (r *recorder) listen(st models.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) snapshot() []models.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.State, len(r.states))
	copy(out, r.states)
	return out
}
