// Package shell derives what the navigation chrome renders from the session
// store and the authorization view.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/authz"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/i18n"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// BottomBarSize is the number of entries in the compact mobile bar.
const BottomBarSize = 5

// Store is the part of the session store the shell needs.
type Store interface {
	State() models.State
	Subscribe(fn func(models.State)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// View is everything the navigation chrome renders.
type View struct {
	Status      models.Status     `json:"status"`
	Loading     bool              `json:"loading"`
	Role        models.Role       `json:"role"`
	Menu        []models.NavEntry `json:"menu"`
	BottomBar   []models.NavEntry `json:"bottom_bar"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email"`
}

// Options configures a Shell.
type Options struct {
	// Navigate is called with the landing route after sign-out.
	Navigate func(route string)
	Language string
	Logger   *slog.Logger
}

// Shell is the navigation shell.
type Shell struct {
	store    Store
	view     *authz.View
	navigate func(string)
	loc      *i18n.Localizer
	log      *slog.Logger
}

// New builds a shell over store using view for menu and access decisions.
func New(store Store, view *authz.View, opts Options) *Shell {
	if err := i18n.LoadEmbedded(); err != nil {
		logger.For(opts.Logger, "shell").Error("failed to load translations", "error", err)
	}
	return &Shell{
		store:    store,
		view:     view,
		navigate: opts.Navigate,
		loc:      i18n.NewLocalizer(opts.Language),
		log:      logger.For(opts.Logger, "shell"),
	}
}

// View renders the current store state.
func (s *Shell) View() View {
	return s.render(s.store.State())
}

// Watch calls fn with a fresh View on every store transition.
func (s *Shell) Watch(fn func(View)) (unsubscribe func()) {
	return s.store.Subscribe(func(st models.State) {
		fn(s.render(st))
	})
}

func (s *Shell) render(st models.State) View {
	v := View{
		Status:  st.Status,
		Loading: !st.Resolved(),
		Role:    st.Role,
	}
	if v.Loading {
		// Only the loading screen shows until restore finishes.
		v.Role = models.RoleAnonymous
		v.Menu = []models.NavEntry{}
		v.BottomBar = []models.NavEntry{}
		return v
	}

	v.Menu = s.view.Menu(st.Role)
	v.BottomBar = BottomBar(v.Menu)

	if st.Session != nil {
		v.Email = st.Session.Email
		v.DisplayName = s.displayName(st.Profile)
	}
	return v
}

func (s *Shell) displayName(p *models.Profile) string {
	if p != nil && p.FullName != nil {
		if name := strings.TrimSpace(*p.FullName); name != "" {
			return name
		}
	}
	return s.loc.T("shell.default_name")
}

// SignOut signs the store out and returns to the landing route. The store
// clears its state even when the gateway call fails, so navigation happens in
// that case too; only a rejected (busy) call stays put.
func (s *Shell) SignOut(ctx context.Context) error {
	err := s.store.SignOut(ctx)
	if errors.Is(err, pkg.ErrConcurrentOperation) {
		return err
	}
	if err != nil {
		s.log.Warn("sign-out completed with error", "error", err)
	}
	if s.navigate != nil {
		s.navigate(authz.RouteLanding)
	}
	return err
}

// Message returns user-facing copy for err in the shell's language.
func (s *Shell) Message(err error) string {
	return s.loc.T(MessageKey(err))
}

// BottomBar keeps the first BottomBarSize non-admin entries and shortens each
// label to its first word.
func BottomBar(menu []models.NavEntry) []models.NavEntry {
	bar := make([]models.NavEntry, 0, BottomBarSize)
	for _, e := range menu {
		if e.RequiresAdmin {
			continue
		}
		if len(bar) == BottomBarSize {
			break
		}
		if fields := strings.Fields(e.Label); len(fields) > 0 {
			e.Label = fields[0]
		}
		bar = append(bar, e)
	}
	return bar
}

// MessageKey maps an error from the taxonomy to a translation key.
func MessageKey(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pkg.ErrInvalidCredentials):
		return "auth.invalid_credentials"
	case errors.Is(err, pkg.ErrNetworkUnavailable):
		return "auth.network_unavailable"
	case errors.Is(err, pkg.ErrSessionExpired):
		return "auth.session_expired"
	case errors.Is(err, pkg.ErrConcurrentOperation):
		return "auth.busy"
	case errors.Is(err, pkg.ErrAccountLocked):
		return "auth.account_locked"
	case errors.Is(err, pkg.ErrRateLimited):
		return "auth.rate_limited"
	case errors.Is(err, pkg.ErrAlreadyExists):
		return "auth.email_taken"
	case errors.Is(err, pkg.ErrBadRequest):
		return "auth.bad_request"
	case errors.Is(err, pkg.ErrUnauthorized), errors.Is(err, pkg.ErrForbidden):
		return "auth.unauthorized"
	default:
		return "auth.unknown"
	}
}
