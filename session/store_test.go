package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/MasatoraSakikoyama/supermarket-task-client/api"
)

type fakeAuthClient struct {
	mu          sync.Mutex
	meResult    api.Result[api.UserResponse]
	loginResult api.Result[api.TokenResponse]
	meCalls     int
	loginCalls  int
	logoutCalls int

	// store is set when the fake should mimic the client's 401 hook.
	store *Store
}

func (f *fakeAuthClient) Me(ctx context.Context) api.Result[api.UserResponse] {
	f.mu.Lock()
	f.meCalls++
	res := f.meResult
	store := f.store
	f.mu.Unlock()

	if res.Status == http.StatusUnauthorized && store != nil {
		store.ForceLogout()
	}
	return res
}

func (f *fakeAuthClient) Login(ctx context.Context, req api.LoginRequest) api.Result[api.TokenResponse] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.loginResult
}

func (f *fakeAuthClient) Logout(ctx context.Context) api.Result[struct{}] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return api.Result[struct{}]{Status: http.StatusNoContent}
}

type countingRedirector struct {
	mu       sync.Mutex
	toLogin  int
	toHome   int
}

func (r *countingRedirector) ToLogin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toLogin++
}

func (r *countingRedirector) ToLanding() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toHome++
}

func (r *countingRedirector) counts() (login, landing int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toLogin, r.toHome
}

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *TokenFile, *countingRedirector) {
	t.Helper()
	file := NewTokenFile(filepath.Join(t.TempDir(), "token.json"), 7*24*time.Hour)
	redirect := &countingRedirector{}
	opts = append([]StoreOption{WithRedirector(redirect)}, opts...)
	return NewStore(file, opts...), file, redirect
}

func TestInitializeWithoutToken(t *testing.T) {
	store, _, redirect := newTestStore(t)
	client := &fakeAuthClient{}

	assert.NoError(t, store.Initialize(context.Background(), client))

	snap := store.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, 0, client.meCalls)

	login, _ := redirect.counts()
	assert.Equal(t, 0, login)
}

func TestInitializeDropsStaleTokenWithoutNetworkCall(t *testing.T) {
	now := time.Now()
	store, file, _ := newTestStore(t, WithClock(func() time.Time { return now }))
	assert.NoError(t, file.Save("old-token", now.Add(-25*time.Hour)))

	client := &fakeAuthClient{}
	assert.NoError(t, store.Initialize(context.Background(), client))

	snap := store.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, 0, client.meCalls)

	// The persisted token must be gone as well.
	_, _, ok, err := file.Load(now)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInitializeValidatesFreshToken(t *testing.T) {
	now := time.Now()
	store, file, _ := newTestStore(t, WithClock(func() time.Time { return now }))
	assert.NoError(t, file.Save("fresh-token", now.Add(-time.Hour)))

	client := &fakeAuthClient{
		meResult: api.Result[api.UserResponse]{
			Data:   &api.UserResponse{ID: 1, Username: "admin", Email: "admin@example.com"},
			Status: http.StatusOK,
		},
	}
	assert.NoError(t, store.Initialize(context.Background(), client))

	snap := store.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "fresh-token", snap.Token)
	assert.Equal(t, 1, client.meCalls)
	assert.Equal(t, "admin", snap.User.Username)
}

func TestInitializeSurvivesEmptyIdentityResponse(t *testing.T) {
	// A proxy can answer /auth/me with a bare 200 and no body; the session
	// stays usable with an unconfirmed identity.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	now := time.Now()
	store, file, redirect := newTestStore(t, WithClock(func() time.Time { return now }))
	assert.NoError(t, file.Save("fresh-token", now.Add(-time.Hour)))

	client := api.NewClient(server.URL, api.WithTokenSource(store))
	assert.NoError(t, store.Initialize(context.Background(), client))

	snap := store.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.Zero(t, snap.User)

	login, _ := redirect.counts()
	assert.Equal(t, 0, login)
}

func TestInitializeUnauthorizedClearsSessionOnce(t *testing.T) {
	now := time.Now()
	store, file, redirect := newTestStore(t, WithClock(func() time.Time { return now }))
	assert.NoError(t, file.Save("revoked-token", now.Add(-time.Hour)))

	client := &fakeAuthClient{
		meResult: api.Result[api.UserResponse]{Error: "authentication required", Status: http.StatusUnauthorized},
	}
	client.store = store

	assert.NoError(t, store.Initialize(context.Background(), client))

	snap := store.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.Equal(t, "", snap.Token)
	assert.Zero(t, snap.User)

	login, _ := redirect.counts()
	assert.Equal(t, 1, login)

	_, _, ok, err := file.Load(now)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInitializeNetworkFailureKeepsSession(t *testing.T) {
	now := time.Now()
	store, file, redirect := newTestStore(t, WithClock(func() time.Time { return now }))
	assert.NoError(t, file.Save("fresh-token", now.Add(-time.Hour)))

	client := &fakeAuthClient{
		meResult: api.Result[api.UserResponse]{Error: "no response from server", Status: 0},
	}
	assert.NoError(t, store.Initialize(context.Background(), client))

	snap := store.Snapshot()
	assert.Equal(t, Authenticated, snap.State)
	assert.True(t, snap.IsAuthenticated)
	assert.Zero(t, snap.User)

	login, _ := redirect.counts()
	assert.Equal(t, 0, login)
}

func TestLoginSuccess(t *testing.T) {
	store, file, redirect := newTestStore(t)
	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{
			Data:   &api.TokenResponse{AccessToken: "t1", TokenType: "bearer"},
			Status: http.StatusOK,
		},
	}

	err := store.Login(context.Background(), client, api.LoginRequest{Username: "a", Password: "b"})
	assert.NoError(t, err)

	snap := store.Snapshot()
	assert.Equal(t, "t1", snap.Token)
	assert.True(t, snap.IsAuthenticated)

	_, landing := redirect.counts()
	assert.Equal(t, 1, landing)

	token, _, ok, err := file.Load(time.Now())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", token)
}

func TestLoginPersistFailureSettlesAnonymous(t *testing.T) {
	// Pointing the token path at a directory makes the atomic rename fail.
	file := NewTokenFile(t.TempDir(), 7*24*time.Hour)
	redirect := &countingRedirector{}
	store := NewStore(file, WithRedirector(redirect))

	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{
			Data:   &api.TokenResponse{AccessToken: "t1", TokenType: "bearer"},
			Status: http.StatusOK,
		},
	}

	err := store.Login(context.Background(), client, api.LoginRequest{Username: "a", Password: "b"})
	assert.Error(t, err)

	snap := store.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "", snap.Token)

	_, landing := redirect.counts()
	assert.Equal(t, 0, landing)
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	store, _, redirect := newTestStore(t)
	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{Error: "invalid credentials", Status: http.StatusUnprocessableEntity},
	}

	err := store.Login(context.Background(), client, api.LoginRequest{Email: "a@b.c", Password: "nope"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")

	snap := store.Snapshot()
	assert.Equal(t, Anonymous, snap.State)

	_, landing := redirect.counts()
	assert.Equal(t, 0, landing)
}

func TestLogoutClearsSessionDespiteServerError(t *testing.T) {
	store, file, redirect := newTestStore(t)
	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{
			Data:   &api.TokenResponse{AccessToken: "t1"},
			Status: http.StatusOK,
		},
	}
	assert.NoError(t, store.Login(context.Background(), client, api.LoginRequest{Username: "a", Password: "b"}))

	store.Logout(context.Background(), client)

	snap := store.Snapshot()
	assert.Equal(t, Anonymous, snap.State)
	assert.Equal(t, "", snap.Token)
	assert.Equal(t, 1, client.logoutCalls)

	login, _ := redirect.counts()
	assert.Equal(t, 1, login)

	_, _, ok, err := file.Load(time.Now())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestForceLogoutIsIdempotent(t *testing.T) {
	store, _, redirect := newTestStore(t)
	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{
			Data:   &api.TokenResponse{AccessToken: "t1"},
			Status: http.StatusOK,
		},
	}
	assert.NoError(t, store.Login(context.Background(), client, api.LoginRequest{Username: "a", Password: "b"}))

	store.ForceLogout()
	store.ForceLogout()
	store.ForceLogout()

	login, _ := redirect.counts()
	assert.Equal(t, 1, login)
	assert.Equal(t, Anonymous, store.Snapshot().State)
}

func TestSubscribeNotifiesOnTransition(t *testing.T) {
	store, _, _ := newTestStore(t)
	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{
			Data:   &api.TokenResponse{AccessToken: "t1"},
			Status: http.StatusOK,
		},
	}

	var mu sync.Mutex
	var seen []State
	cancel := store.Subscribe(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap.State)
		mu.Unlock()
	})

	assert.NoError(t, store.Login(context.Background(), client, api.LoginRequest{Username: "a", Password: "b"}))
	store.ForceLogout()

	cancel()
	store.ForceLogout() // no-op, and no notification after cancel

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Authenticated, Anonymous}, seen)
}

func TestTokenFileRetention(t *testing.T) {
	file := NewTokenFile(filepath.Join(t.TempDir(), "token.json"), 7*24*time.Hour)
	now := time.Now()

	assert.NoError(t, file.Save("t1", now.Add(-8*24*time.Hour)))

	_, _, ok, err := file.Load(now)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestWatchReactsToExternalRemoval(t *testing.T) {
	store, file, redirect := newTestStore(t)
	client := &fakeAuthClient{
		loginResult: api.Result[api.TokenResponse]{
			Data:   &api.TokenResponse{AccessToken: "t1"},
			Status: http.StatusOK,
		},
	}
	assert.NoError(t, store.Login(context.Background(), client, api.LoginRequest{Username: "a", Password: "b"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, store.Watch(ctx))

	// Simulate a logout performed by another process.
	assert.NoError(t, file.Clear())

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if store.Snapshot().State == Anonymous {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, Anonymous, store.Snapshot().State)
	login, _ := redirect.counts()
	assert.Equal(t, 1, login)
}
