// Package session owns the process-wide authentication state.
//
// A Store moves through init → loading → resolved exactly once (Restore);
// after that it stays resolved and is mutated only by SignIn, SignUp,
// SignOut, Refresh and Revoke. Mutations are serialized by an operation
// slot, build the next State off-lock, and swap it in under a single write
// lock so readers never see a session paired with a stale role.
//
// Gateway calls run on a context detached from the caller's cancellation:
// a caller that goes away mid-operation does not stop the commit.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// Policy decides what happens to a mutation issued while another is in flight.
type Policy int

const (
	// PolicyReject fails the second caller with pkg.ErrConcurrentOperation.
	PolicyReject Policy = iota
	// PolicyQueue makes the second caller wait for the first to finish.
	PolicyQueue
)

// Options configures a Store. The zero value is usable.
type Options struct {
	Policy Policy
	// Now defaults to time.Now.
	Now func() time.Time
	// Profiles, when set, backfills the profile after a grant without a full name.
	Profiles   ProfileSource
	ProfileTTL time.Duration
	Logger     *slog.Logger
}

// Listener receives committed states in version order, one call at a time.
// A snapshot superseded before it could be delivered is skipped. It runs on
// a committing goroutine and must not call Store mutations synchronously.
type Listener = func(models.State)

// Store is the session store. Construct with NewStore.
type Store struct {
	gateway Gateway
	vault   Vault
	policy  Policy
	now     func() time.Time
	log     *slog.Logger

	profiles *ProfileLoader

	// ops is a one-slot semaphore held for the duration of a mutation.
	ops         chan struct{}
	restoreOnce sync.Once

	mu         sync.RWMutex
	state      models.State
	credential string

	subMu     sync.Mutex
	subs      map[int]Listener
	nextSubID int

	// Listener delivery state; see notify.
	deliverMu  sync.Mutex
	delivering bool
	pending    *models.State
	delivered  uint64

	bg        sync.WaitGroup
	closeOnce sync.Once
}

// NewStore creates a store in the init state.
func NewStore(gateway Gateway, vault Vault, opts Options) *Store {
	if vault == nil {
		vault = NewMemoryVault()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProfileTTL <= 0 {
		opts.ProfileTTL = 5 * time.Minute
	}

	s := &Store{
		gateway: gateway,
		vault:   vault,
		policy:  opts.Policy,
		now:     opts.Now,
		log:     logger.For(opts.Logger, "session"),
		ops:     make(chan struct{}, 1),
		state:   models.State{Status: models.StatusInit, Role: models.RoleAnonymous},
		subs:    make(map[int]Listener),
	}
	if opts.Profiles != nil {
		s.profiles = NewProfileLoader(opts.Profiles, opts.ProfileTTL)
	}
	return s
}

// ─── Reads ───

// State returns the current snapshot. An expired session is detected here and
// the store moves to the anonymous state before returning.
func (s *Store) State() models.State {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()

	if st.Session == nil || !st.Session.Expired(s.now()) {
		return st
	}
	return s.expire(st.Session)
}

// CurrentRole returns the role of the current snapshot.
func (s *Store) CurrentRole() models.Role {
	return s.State().Role
}

// CurrentSession returns a copy of the current session, or nil.
func (s *Store) CurrentSession() *models.Session {
	sess := s.State().Session
	if sess == nil {
		return nil
	}
	cp := *sess
	return &cp
}

// Subscribe registers fn for every committed state and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// expire flips an expired session to anonymous if it is still current.
func (s *Store) expire(expired *models.Session) models.State {
	s.mu.Lock()
	if s.state.Session != expired {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.state = models.State{
		Status:  models.StatusResolved,
		Role:    models.RoleAnonymous,
		Version: s.state.Version + 1,
	}
	st := s.state
	s.mu.Unlock()

	s.log.Info("session expired", "user_id", expired.UserID, "session_id", expired.ID)
	s.notify(st)
	return st
}

// ─── Lifecycle ───

// Restore resolves the initial state from the persisted credential. Only the
// first call does any work; later calls return once it has finished. Failures
// resolve to the anonymous state.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		s.restore(context.WithoutCancel(ctx))
	})
}

func (s *Store) restore(ctx context.Context) {
	release, _ := s.acquire(ctx, true)
	defer release()

	if s.State().Resolved() {
		// A mutation committed before restore ran; it is authoritative.
		return
	}

	s.commit(func(st *models.State) { st.Status = models.StatusLoading })

	credential, err := s.vault.Load()
	if err != nil {
		s.log.Warn("failed to load stored credential", "error", err)
		s.commitAnonymous("")
		return
	}
	if credential == "" {
		s.commitAnonymous("")
		return
	}

	grant, err := s.gateway.RestoreSession(ctx, credential)
	switch {
	case err != nil:
		// Keep the credential: the gateway may be reachable on the next launch.
		s.log.Warn("session restore failed", "error", err)
		s.commitAnonymous(credential)
	case grant == nil:
		s.clearVault()
		s.commitAnonymous("")
	default:
		if err := s.commitGrant(grant, credential, nil); err != nil {
			s.log.Info("restored session rejected", "error", err)
			s.clearVault()
			s.commitAnonymous("")
			return
		}
		s.log.Info("session restored", "user_id", grant.UserID)
	}
}

// SignIn authenticates against the gateway and replaces the session on success.
// On failure the state is left exactly as it was.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	release, err := s.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	grant, err := s.gateway.SignIn(context.WithoutCancel(ctx), email, password)
	if err != nil {
		return err
	}
	if err := s.commitGrant(grant, "", nil); err != nil {
		return err
	}
	s.log.Info("signed in", "user_id", grant.UserID)
	return nil
}

// SignUp provisions an account and profile and signs the new user in.
func (s *Store) SignUp(ctx context.Context, email, password, fullName string) error {
	release, err := s.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	grant, err := s.gateway.SignUp(context.WithoutCancel(ctx), email, password, fullName)
	if err != nil {
		return err
	}

	var name *string
	if fullName != "" {
		name = &fullName
	}
	if err := s.commitGrant(grant, "", name); err != nil {
		return err
	}
	s.log.Info("signed up", "user_id", grant.UserID)
	return nil
}

// SignOut clears the session and the stored credential. The local state is
// cleared even when the gateway call fails; that failure is still returned.
// Calling it while signed out is a no-op.
func (s *Store) SignOut(ctx context.Context) error {
	release, err := s.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	return s.signOut(context.WithoutCancel(ctx))
}

func (s *Store) signOut(ctx context.Context) error {
	s.mu.RLock()
	credential := s.credential
	prev := s.state.Session
	s.mu.RUnlock()

	var gatewayErr error
	if credential != "" {
		gatewayErr = s.gateway.SignOut(ctx, credential)
		if gatewayErr != nil {
			s.log.Warn("gateway sign-out failed, clearing locally", "error", gatewayErr)
		}
	}

	vaultErr := s.vault.Clear()
	if prev != nil && s.profiles != nil {
		s.profiles.Invalidate(prev.UserID)
	}
	s.commitAnonymous("")

	if vaultErr != nil {
		return fmt.Errorf("failed to clear stored credential: %w", vaultErr)
	}
	if gatewayErr != nil {
		return gatewayErr
	}
	if prev != nil {
		s.log.Info("signed out", "user_id", prev.UserID)
	}
	return nil
}

// Refresh exchanges the current credential for a new grant and replaces the
// session wholesale. A credential the gateway no longer honours signs the
// store out. Refresh always waits for an in-flight mutation.
func (s *Store) Refresh(ctx context.Context) error {
	release, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	s.mu.RLock()
	credential := s.credential
	s.mu.RUnlock()
	if credential == "" {
		return nil
	}

	grant, err := s.gateway.RestoreSession(ctx, credential)
	if err != nil {
		return err
	}
	if grant == nil {
		s.clearVault()
		s.commitAnonymous("")
		return fmt.Errorf("%w: gateway no longer recognises the session", pkg.ErrSessionExpired)
	}
	return s.commitGrant(grant, credential, nil)
}

// Revoke signs the store out if sessionID is the current session. It reports
// whether anything was revoked.
func (s *Store) Revoke(ctx context.Context, sessionID string) bool {
	release, err := s.acquire(ctx, true)
	if err != nil {
		return false
	}
	defer release()

	s.mu.RLock()
	current := s.state.Session
	s.mu.RUnlock()
	if current == nil || sessionID == "" || current.ID != sessionID {
		return false
	}

	s.clearVault()
	if s.profiles != nil {
		s.profiles.Invalidate(current.UserID)
	}
	s.commitAnonymous("")
	s.log.Info("session revoked", "user_id", current.UserID, "session_id", sessionID)
	return true
}

// Close waits for background profile loads and releases their cache.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.bg.Wait()
		if s.profiles != nil {
			s.profiles.Close()
		}
	})
}

// ─── Commit helpers ───

// acquire takes the operation slot. With wait=false the store policy decides
// between failing fast and waiting.
func (s *Store) acquire(ctx context.Context, wait bool) (func(), error) {
	release := func() { <-s.ops }

	if !wait && s.policy == PolicyReject {
		select {
		case s.ops <- struct{}{}:
			return release, nil
		default:
			return func() {}, pkg.ErrConcurrentOperation
		}
	}

	select {
	case s.ops <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		return func() {}, fmt.Errorf("%w: %w", pkg.ErrConcurrentOperation, ctx.Err())
	}
}

// commitGrant validates grant and swaps in the authenticated state.
// fallbackCredential is persisted when the grant carries none; fullName
// overrides an empty name on the grant.
func (s *Store) commitGrant(grant *models.Grant, fallbackCredential string, fullName *string) error {
	if grant == nil || grant.UserID == "" {
		return fmt.Errorf("%w: empty grant from gateway", pkg.ErrInternal)
	}
	sess := grant.Session()
	if sess.Expired(s.now()) {
		return fmt.Errorf("%w: grant already expired", pkg.ErrSessionExpired)
	}

	credential := grant.Credential
	if credential == "" {
		credential = fallbackCredential
	}

	s.mu.RLock()
	prevCredential := s.credential
	prevProfile := s.state.Profile
	s.mu.RUnlock()

	if credential != "" && credential != prevCredential {
		if err := s.vault.Save(credential); err != nil {
			// The session is still valid in memory; only the next restore is lost.
			s.log.Error("failed to persist credential", "error", err)
		}
	}

	name := grant.FullName
	if name == nil {
		name = fullName
	}
	profile := &models.Profile{UserID: grant.UserID, FullName: name}
	if name == nil && prevProfile != nil && prevProfile.UserID == grant.UserID && prevProfile.FullName != nil {
		profile = prevProfile
	}

	role := models.RoleFromClaim(grant.Role)
	s.commitWith(credential, func(st *models.State) {
		st.Status = models.StatusResolved
		st.Session = sess
		st.Profile = profile
		st.Role = role
	})

	if profile.FullName == nil && s.profiles != nil && credential != "" {
		s.loadProfile(sess, credential)
	}
	return nil
}

// loadProfile fetches the profile in the background and applies it only if
// sess is still the current session.
func (s *Store) loadProfile(sess *models.Session, credential string) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		p, err := s.profiles.Load(ctx, sess.UserID, credential)
		if err != nil {
			s.log.Warn("profile load failed", "user_id", sess.UserID, "error", err)
			return
		}

		s.mu.Lock()
		if s.state.Session != sess {
			s.mu.Unlock()
			return
		}
		s.state.Profile = p
		s.state.Version++
		st := s.state
		s.mu.Unlock()

		s.notify(st)
	}()
}

func (s *Store) commitAnonymous(credential string) {
	s.commitWith(credential, func(st *models.State) {
		*st = models.State{Status: models.StatusResolved, Role: models.RoleAnonymous, Version: st.Version}
	})
}

// commit applies mutate without touching the credential.
func (s *Store) commit(mutate func(*models.State)) {
	s.mu.RLock()
	credential := s.credential
	s.mu.RUnlock()
	s.commitWith(credential, mutate)
}

func (s *Store) commitWith(credential string, mutate func(*models.State)) {
	s.mu.Lock()
	next := s.state
	mutate(&next)
	next.Version = s.state.Version + 1
	s.state = next
	s.credential = credential
	s.mu.Unlock()

	s.notify(next)
}

// notify hands st to the listeners. If another goroutine is already
// delivering, st is queued for it and notify returns at once, so listeners
// never see a version older than one they already received.
func (s *Store) notify(st models.State) {
	s.deliverMu.Lock()
	if s.pending == nil || st.Version > s.pending.Version {
		s.pending = &st
	}
	if s.delivering {
		s.deliverMu.Unlock()
		return
	}
	s.delivering = true

	for s.pending != nil {
		next := *s.pending
		s.pending = nil
		if next.Version <= s.delivered {
			continue
		}
		s.delivered = next.Version

		s.deliverMu.Unlock()
		s.deliver(next)
		s.deliverMu.Lock()
	}

	s.delivering = false
	s.deliverMu.Unlock()
}

func (s *Store) deliver(st models.State) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func (s *Store) clearVault() {
	if err := s.vault.Clear(); err != nil {
		s.log.Error("failed to clear stored credential", "error", err)
	}
}

// IsBusy reports whether err means a mutation was rejected because another was in flight.
func IsBusy(err error) bool {
	return errors.Is(err, pkg.ErrConcurrentOperation)
}
