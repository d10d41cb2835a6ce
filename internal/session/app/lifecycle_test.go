package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityapp "github.com/dwikikusuma/shoping-session/internal/identity/app"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/dwikikusuma/shoping-session/internal/localstore"
	"github.com/dwikikusuma/shoping-session/internal/session/domain"
	"github.com/dwikikusuma/shoping-session/pkg/logger"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeCart struct {
	mu       sync.Mutex
	hydrated []string
	cleared  int
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeCart) Hydrate(ctx context.Context, token string) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrated = append(f.hydrated, token)
	return f.err
}

func (f *fakeCart) Clear() {
	f.mu.Lock()
	f.cleared++
	f.mu.Unlock()
}

func (f *fakeCart) Hydrated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hydrated...)
}

type fakeUsers struct {
	resolved atomic.Int32
	forgot   atomic.Int32
	user     identitydomain.User
}

func (f *fakeUsers) Resolve(_ context.Context, token string) (identitydomain.User, bool) {
	f.resolved.Add(1)
	u := f.user
	u.ID = "user-for-" + token
	return u, true
}

func (f *fakeUsers) UpdateProfile(_ context.Context, token string, patch identitydomain.ProfilePatch) (identityapp.UpdateResult, error) {
	if token == "" {
		return identityapp.UpdateResult{}, identityapp.ErrNotAuthenticated
	}
	u := patch.Apply(identitydomain.User{ID: "user-for-" + token})
	return identityapp.UpdateResult{User: u, Offline: true}, nil
}

func (f *fakeUsers) Forget() { f.forgot.Add(1) }

func newLifecycle(t *testing.T) (*Lifecycle, *fakeCart, *fakeUsers, *localstore.TokenStore) {
	t.Helper()
	cart := &fakeCart{}
	users := &fakeUsers{user: identitydomain.User{Name: "Asha", Source: identitydomain.SourceRemote}}
	tokens := localstore.NewTokenStore(localstore.NewMemoryStore())
	return NewLifecycle(cart, users, tokens, logger.Discard()), cart, users, tokens
}

func TestStartWithoutStoredToken(t *testing.T) {
	lc, cart, users, _ := newLifecycle(t)

	require.NoError(t, lc.Start(context.Background()))

	assert.Equal(t, domain.StateLoggedOut, lc.State())
	assert.Empty(t, cart.Hydrated())
	assert.Zero(t, users.resolved.Load())
}

func TestStartWithStoredToken(t *testing.T) {
	lc, cart, _, tokens := newLifecycle(t)
	ctx := context.Background()
	require.NoError(t, tokens.SetToken(ctx, "stored"))

	require.NoError(t, lc.Start(ctx))

	assert.Equal(t, domain.StateActive, lc.State())
	assert.Equal(t, "stored", lc.Token())
	assert.Equal(t, []string{"stored"}, cart.Hydrated())
	u, ok := lc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "user-for-stored", u.ID)
}

func TestLoginRejectsBlankToken(t *testing.T) {
	lc, cart, _, tokens := newLifecycle(t)

	err := lc.Login(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, domain.StateLoggedOut, lc.State())
	assert.Empty(t, cart.Hydrated())
	_, ok, _ := tokens.Token(context.Background())
	assert.False(t, ok)
}

func TestLoginPersistsAndActivates(t *testing.T) {
	lc, cart, users, tokens := newLifecycle(t)
	ctx := context.Background()

	require.NoError(t, lc.Login(ctx, "tok-1"))

	assert.Equal(t, domain.StateActive, lc.State())
	assert.Equal(t, []string{"tok-1"}, cart.Hydrated())
	assert.EqualValues(t, 1, users.resolved.Load())
	stored, ok, err := tokens.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", stored)

	require.NoError(t, lc.Login(ctx, "tok-1"))
	assert.Len(t, cart.Hydrated(), 1, "same token does not re-hydrate")
}

func TestHydrationFailureStillActivates(t *testing.T) {
	lc, cart, _, _ := newLifecycle(t)
	cart.err = errors.New("backend down")

	require.NoError(t, lc.Login(context.Background(), "tok"))

	assert.Equal(t, domain.StateActive, lc.State())
	_, ok := lc.CurrentUser()
	assert.True(t, ok)
}

func TestResolveDoesNotWaitForCart(t *testing.T) {
	lc, cart, users, _ := newLifecycle(t)
	cart.gate = make(chan struct{})
	cart.entered = make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		_ = lc.Login(context.Background(), "tok")
		close(done)
	}()

	<-cart.entered
	require.Eventually(t, func() bool { return users.resolved.Load() == 1 }, timeout, tick)
	assert.Equal(t, domain.StateHydrating, lc.State())

	close(cart.gate)
	<-done
	assert.Equal(t, domain.StateActive, lc.State())
}

func TestLogout(t *testing.T) {
	lc, cart, users, tokens := newLifecycle(t)
	ctx := context.Background()
	require.NoError(t, lc.Login(ctx, "tok"))

	require.NoError(t, lc.Logout(ctx))

	assert.Equal(t, domain.StateLoggedOut, lc.State())
	assert.Equal(t, "", lc.Token())
	assert.Equal(t, 1, cart.cleared)
	assert.EqualValues(t, 1, users.forgot.Load())
	_, ok := lc.CurrentUser()
	assert.False(t, ok)
	_, ok, _ = tokens.Token(ctx)
	assert.False(t, ok)
}

func TestLogoutDuringHydrationWins(t *testing.T) {
	lc, cart, users, _ := newLifecycle(t)
	cart.gate = make(chan struct{})
	cart.entered = make(chan struct{}, 1)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		_ = lc.Login(ctx, "tok")
		close(done)
	}()
	<-cart.entered

	require.NoError(t, lc.Logout(ctx))
	close(cart.gate)
	<-done

	assert.Equal(t, domain.StateLoggedOut, lc.State())
	_, ok := lc.CurrentUser()
	assert.False(t, ok)
	assert.GreaterOrEqual(t, users.forgot.Load(), int32(2), "stale resolution is forgotten again")
}

func TestLoginWithNewTokenRehydrates(t *testing.T) {
	lc, cart, _, _ := newLifecycle(t)
	ctx := context.Background()
	require.NoError(t, lc.Login(ctx, "tok-a"))

	require.NoError(t, lc.Login(ctx, "tok-b"))

	assert.Equal(t, []string{"tok-a", "tok-b"}, cart.Hydrated())
	assert.Equal(t, 0, cart.cleared, "switching tokens keeps the local cart")
	u, _ := lc.CurrentUser()
	assert.Equal(t, "user-for-tok-b", u.ID)
}

func TestUpdateProfileAdoptsResult(t *testing.T) {
	lc, _, _, _ := newLifecycle(t)
	ctx := context.Background()

	_, err := lc.UpdateProfile(ctx, identitydomain.ProfilePatch{Name: "x"})
	assert.ErrorIs(t, err, identityapp.ErrNotAuthenticated)

	require.NoError(t, lc.Login(ctx, "tok"))
	res, err := lc.UpdateProfile(ctx, identitydomain.ProfilePatch{Name: "Renamed"})
	require.NoError(t, err)
	assert.True(t, res.Offline)

	u, _ := lc.CurrentUser()
	assert.Equal(t, "Renamed", u.Name)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "logged_out", domain.StateLoggedOut.String())
	assert.Equal(t, "hydrating", domain.StateHydrating.String())
	assert.Equal(t, "active", domain.StateActive.String())
}
