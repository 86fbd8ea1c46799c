// Package session implements the client-side authentication lifecycle.
//
// The store holds the token, the validated identity and the derived state
// flags, persists the token through a TokenFile and notifies subscribers on
// every transition. Validation policy: a persisted token older than the
// configured max age is discarded at startup without a network call; a fresh
// one is always revalidated against /auth/me. A 401 during validation drops
// the session; any other validation failure keeps it, optimistically, with an
// unconfirmed identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MasatoraSakikoyama/supermarket-task-client/api"
)

// State is the position of the session in its lifecycle.
type State int

const (
	// Anonymous means no token is held.
	Anonymous State = iota

	// Validating means a token is held but its identity is unconfirmed.
	Validating

	// Authenticated means the token was accepted, or validation could not
	// be completed for reasons other than rejection.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Validating:
		return "validating"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthClient is the slice of the API surface the session needs.
type AuthClient interface {
	Login(ctx context.Context, req api.LoginRequest) api.Result[api.TokenResponse]
	Logout(ctx context.Context) api.Result[struct{}]
	Me(ctx context.Context) api.Result[api.UserResponse]
}

// Redirector receives the navigation side effects of session transitions.
// ToLogin fires at most once per forced logout.
type Redirector interface {
	ToLogin()
	ToLanding()
}

// NopRedirector ignores all navigation.
type NopRedirector struct{}

func (NopRedirector) ToLogin()   {}
func (NopRedirector) ToLanding() {}

// Snapshot is an immutable view of the session handed to subscribers.
type Snapshot struct {
	State           State
	IsAuthenticated bool
	IsLoading       bool
	Token           string
	TokenIssuedAt   time.Time
	User            *api.UserResponse
}

// ErrNotAuthenticated is returned by operations that need a live session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Store owns the session state. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	state    State
	loading  bool
	token    string
	issuedAt time.Time
	user     *api.UserResponse

	file     *TokenFile
	maxAge   time.Duration
	redirect Redirector
	logger   zerolog.Logger
	now      func() time.Time

	subs    map[int]func(Snapshot)
	nextSub int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxAge sets how old a persisted token may be before Initialize drops it
// without revalidation.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) { s.maxAge = d }
}

// WithRedirector sets the navigation sink.
func WithRedirector(r Redirector) StoreOption {
	return func(s *Store) { s.redirect = r }
}

// WithLogger sets the structured logger for transition events.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the time source. Tests use this to age tokens.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store in the loading state; call Initialize to resolve it.
func NewStore(file *TokenFile, opts ...StoreOption) *Store {
	s := &Store{
		state:    Anonymous,
		loading:  true,
		file:     file,
		maxAge:   24 * time.Hour,
		redirect: NopRedirector{},
		logger:   zerolog.Nop(),
		now:      time.Now,
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:           s.state,
		IsAuthenticated: s.state == Authenticated,
		IsLoading:       s.loading,
		Token:           s.token,
		TokenIssuedAt:   s.issuedAt,
		User:            s.user,
	}
}

// Subscribe registers fn for transition notifications and returns a cancel
// function. fn is called without the store lock held.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Initialize resolves the persisted token into a session state. A stale token
// is dropped locally; only a fresh one costs a round-trip to /auth/me.
func (s *Store) Initialize(ctx context.Context, client AuthClient) error {
	token, issuedAt, ok, err := s.file.Load(s.now())
	if err != nil {
		s.settle(Anonymous, "", time.Time{}, nil)
		return err
	}
	if !ok {
		s.settle(Anonymous, "", time.Time{}, nil)
		return nil
	}

	if age := s.now().Sub(issuedAt); age >= s.maxAge {
		s.logger.Debug().Dur("age", age).Msg("persisted token past max age, discarding")
		_ = s.file.Clear()
		s.settle(Anonymous, "", time.Time{}, nil)
		return nil
	}

	s.settle(Validating, token, issuedAt, nil)

	res := client.Me(ctx)
	switch res.Kind() {
	case api.KindNone:
		// A 2xx with an empty body leaves Data nil; treat the identity as
		// unconfirmed rather than crash over a degenerate response.
		s.settle(Authenticated, token, issuedAt, res.Data)
		if res.Data != nil {
			s.logger.Debug().Str("username", res.Data.Username).Msg("token validated")
		} else {
			s.logger.Debug().Msg("token accepted without identity payload")
		}
	case api.KindUnauthorized:
		// The client's 401 hook has already forced the logout; make the
		// outcome deterministic even when no hook is wired.
		s.ForceLogout()
	default:
		// Transient failure. Do not log the user out over a flaky network.
		s.settle(Authenticated, token, issuedAt, nil)
		s.logger.Debug().Str("error", res.Error).Msg("identity check failed, keeping session")
	}
	return nil
}

// settle applies a state transition, marks loading resolved and notifies.
func (s *Store) settle(state State, token string, issuedAt time.Time, user *api.UserResponse) {
	s.mu.Lock()
	s.state = state
	s.loading = false
	s.token = token
	s.issuedAt = issuedAt
	s.user = user
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Login exchanges credentials for a token, persists it and navigates to the
// landing surface. The returned error carries the server's message verbatim.
func (s *Store) Login(ctx context.Context, client AuthClient, req api.LoginRequest) error {
	res := client.Login(ctx, req)
	if !res.OK() {
		s.settle(Anonymous, "", time.Time{}, nil)
		return fmt.Errorf("login failed: %s", res.Error)
	}
	if res.Data == nil || res.Data.AccessToken == "" {
		s.settle(Anonymous, "", time.Time{}, nil)
		return errors.New("login failed: no authentication token received")
	}

	issuedAt := s.now()
	if err := s.file.Save(res.Data.AccessToken, issuedAt); err != nil {
		s.settle(Anonymous, "", time.Time{}, nil)
		return err
	}

	s.settle(Authenticated, res.Data.AccessToken, issuedAt, nil)
	s.logger.Debug().Msg("login succeeded")
	s.redirect.ToLanding()
	return nil
}

// Logout best-effort invalidates the token server-side, then unconditionally
// clears the session. Server errors are ignored.
func (s *Store) Logout(ctx context.Context, client AuthClient) {
	s.mu.Lock()
	hasToken := s.token != ""
	s.mu.Unlock()

	if hasToken {
		_ = client.Logout(ctx)
	}

	// The best-effort call may have observed a 401 and already forced the
	// logout; clearAndRedirect is a no-op in that case.
	s.clearAndRedirect()
}

// ForceLogout drops the session in response to an observed 401. Idempotent:
// repeated calls while already anonymous do nothing, so the login redirect
// fires exactly once per transition.
func (s *Store) ForceLogout() {
	s.clearAndRedirect()
}

func (s *Store) clearAndRedirect() {
	s.mu.Lock()
	if s.state == Anonymous && s.token == "" {
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.state = Anonymous
	s.loading = false
	s.token = ""
	s.issuedAt = time.Time{}
	s.user = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	_ = s.file.Clear()
	s.logger.Debug().Msg("session cleared")
	s.notify(snap)
	s.redirect.ToLogin()
}
