package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/authz"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// memStore is a settable Store.
type memStore struct {
	mu         sync.Mutex
	state      models.State
	subs       []func(models.State)
	signOutErr error
}

func (m *memStore) State() models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *memStore) Subscribe(fn func(models.State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	return func() {}
}

func (m *memStore) set(st models.State) {
	m.mu.Lock()
	m.state = st
	subs := append([]func(models.State){}, m.subs...)
	m.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (m *memStore) SignOut(ctx context.Context) error {
	if errors.Is(m.signOutErr, pkg.ErrConcurrentOperation) {
		return m.signOutErr
	}
	m.set(models.AnonymousState())
	return m.signOutErr
}

func signedIn(role models.Role, fullName *string) models.State {
	return models.State{
		Status:  models.StatusResolved,
		Role:    role,
		Session: &models.Session{ID: "s-1", UserID: "u-1", Email: "ada@example.com", ExpiresAt: time.Now().Add(time.Hour)},
		Profile: &models.Profile{UserID: "u-1", FullName: fullName},
	}
}

func strPtr(s string) *string { return &s }

func newShell(store Store, nav func(string), lang string) *Shell {
	return New(store, authz.Default(), Options{Navigate: nav, Language: lang, Logger: logger.Discard()})
}

func TestViewWhileLoading(t *testing.T) {
	store := &memStore{state: models.State{Status: models.StatusLoading, Role: models.RoleAnonymous}}
	v := newShell(store, nil, "en").View()

	if !v.Loading {
		t.Error("Loading = false, want true")
	}
	if len(v.Menu) != 0 || len(v.BottomBar) != 0 {
		t.Errorf("menu while loading = %v", v.Menu)
	}
}

func TestViewAnonymous(t *testing.T) {
	store := &memStore{state: models.AnonymousState()}
	v := newShell(store, nil, "en").View()

	if v.Loading || v.Role != models.RoleAnonymous {
		t.Errorf("view = %+v", v)
	}
	if len(v.Menu) != 0 {
		t.Errorf("anonymous menu = %v, want empty", v.Menu)
	}
	if v.DisplayName != "" || v.Email != "" {
		t.Errorf("anonymous identity = %q/%q", v.DisplayName, v.Email)
	}
}

func TestViewUser(t *testing.T) {
	store := &memStore{state: signedIn(models.RoleUser, strPtr("Ada Lovelace"))}
	v := newShell(store, nil, "en").View()

	if v.DisplayName != "Ada Lovelace" || v.Email != "ada@example.com" {
		t.Errorf("identity = %q/%q", v.DisplayName, v.Email)
	}
	if len(v.Menu) != 5 {
		t.Fatalf("user menu = %d entries, want 5", len(v.Menu))
	}
	for _, e := range v.Menu {
		if e.RequiresAdmin {
			t.Errorf("user sees admin entry %s", e.Route)
		}
	}
}

func TestViewAdminIncludesAdminEntries(t *testing.T) {
	store := &memStore{state: signedIn(models.RoleAdmin, nil)}
	v := newShell(store, nil, "en").View()

	admin := 0
	for _, e := range v.Menu {
		if e.RequiresAdmin {
			admin++
		}
	}
	if admin != 3 {
		t.Errorf("admin entries = %d, want 3", admin)
	}
	if len(v.BottomBar) != BottomBarSize {
		t.Errorf("bottom bar = %d entries, want %d", len(v.BottomBar), BottomBarSize)
	}
}

func TestDisplayNameFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		fullName *string
		lang     string
		want     string
	}{
		{"missing", nil, "en", "User"},
		{"blank", strPtr("   "), "en", "User"},
		{"spanish", nil, "es", "Usuario"},
		{"present", strPtr("Grace"), "es", "Grace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{state: signedIn(models.RoleUser, tt.fullName)}
			if got := newShell(store, nil, tt.lang).View().DisplayName; got != tt.want {
				t.Errorf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBottomBarShortensLabels(t *testing.T) {
	bar := BottomBar(authz.Default().Menu(models.RoleAdmin))

	want := []string{"Dashboard", "Log", "Analytics", "Enquiries", "Settings"}
	if len(bar) != len(want) {
		t.Fatalf("bar = %v", bar)
	}
	for i, e := range bar {
		if e.Label != want[i] {
			t.Errorf("bar[%d] = %q, want %q", i, e.Label, want[i])
		}
	}
}

func TestWatchReceivesUpdates(t *testing.T) {
	store := &memStore{state: models.AnonymousState()}
	sh := newShell(store, nil, "en")

	var got []View
	sh.Watch(func(v View) { got = append(got, v) })
	store.set(signedIn(models.RoleUser, strPtr("Ada")))

	if len(got) != 1 || got[0].DisplayName != "Ada" || len(got[0].Menu) != 5 {
		t.Errorf("watched views = %+v", got)
	}
}

func TestSignOutNavigatesToLanding(t *testing.T) {
	store := &memStore{state: signedIn(models.RoleUser, nil)}
	var navigated []string
	sh := newShell(store, func(r string) { navigated = append(navigated, r) }, "en")

	if err := sh.SignOut(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(navigated) != 1 || navigated[0] != authz.RouteLanding {
		t.Errorf("navigated = %v", navigated)
	}
	if sh.View().Role != models.RoleAnonymous {
		t.Error("still signed in")
	}
}

func TestSignOutGatewayErrorStillNavigates(t *testing.T) {
	store := &memStore{state: signedIn(models.RoleUser, nil), signOutErr: pkg.ErrNetworkUnavailable}
	var navigated int
	sh := newShell(store, func(string) { navigated++ }, "en")

	if err := sh.SignOut(context.Background()); !errors.Is(err, pkg.ErrNetworkUnavailable) {
		t.Errorf("err = %v", err)
	}
	if navigated != 1 {
		t.Errorf("navigated %d times, want 1", navigated)
	}
}

func TestSignOutBusyDoesNotNavigate(t *testing.T) {
	store := &memStore{state: signedIn(models.RoleUser, nil), signOutErr: pkg.ErrConcurrentOperation}
	var navigated int
	sh := newShell(store, func(string) { navigated++ }, "en")

	if err := sh.SignOut(context.Background()); !errors.Is(err, pkg.ErrConcurrentOperation) {
		t.Errorf("err = %v", err)
	}
	if navigated != 0 {
		t.Error("navigated on a rejected sign-out")
	}
}

func TestMessage(t *testing.T) {
	en := newShell(&memStore{}, nil, "en")
	es := newShell(&memStore{}, nil, "es")

	wrapped := fmt.Errorf("%w: bad password", pkg.ErrInvalidCredentials)
	if got := en.Message(wrapped); got != "Incorrect email or password." {
		t.Errorf("en = %q", got)
	}
	if got := es.Message(wrapped); got != "Correo electrónico o contraseña incorrectos." {
		t.Errorf("es = %q", got)
	}
	if got := MessageKey(errors.New("boom")); got != "auth.unknown" {
		t.Errorf("unknown key = %q", got)
	}
	if got := MessageKey(pkg.ErrConcurrentOperation); got != "auth.busy" {
		t.Errorf("busy key = %q", got)
	}
}
