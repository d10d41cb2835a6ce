package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	identityapp "github.com/dwikikusuma/shoping-session/internal/identity/app"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/dwikikusuma/shoping-session/internal/session/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Lifecycle owns the session token and drives the
// LoggedOut -> Hydrating -> Active -> LoggedOut cycle.
type Lifecycle struct {
	cart   CartHydrator
	users  UserResolver
	tokens TokenStore
	log    *slog.Logger

	mu    sync.RWMutex
	state domain.State
	token string
	user  *identitydomain.User
	gen   uint64
}

func NewLifecycle(cart CartHydrator, users UserResolver, tokens TokenStore, log *slog.Logger) *Lifecycle {
	if log == nil {
		log = slog.Default()
	}
	return &Lifecycle{
		cart:   cart,
		users:  users,
		tokens: tokens,
		log:    log,
		state:  domain.StateLoggedOut,
	}
}

// Start picks up a token left in the local store by a previous run.
func (l *Lifecycle) Start(ctx context.Context) error {
	token, ok, err := l.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	if !ok {
		l.log.Debug("no stored session")
		return nil
	}
	l.activate(ctx, token)
	return nil
}

// Login stores token and hydrates the session. Logging in again with the
// current token is a no-op; a different token re-hydrates, keeping the
// local cart if the server copy cannot be fetched.
func (l *Lifecycle) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	l.mu.RLock()
	same := l.token == token && l.state != domain.StateLoggedOut
	l.mu.RUnlock()
	if same {
		return nil
	}

	if err := l.tokens.SetToken(ctx, token); err != nil {
		l.log.Warn("persisting token failed", slog.Any("err", err))
	}
	l.activate(ctx, token)
	return nil
}

func (l *Lifecycle) Logout(ctx context.Context) error {
	l.mu.Lock()
	l.gen++
	l.token = ""
	l.user = nil
	l.state = domain.StateLoggedOut
	l.mu.Unlock()

	l.cart.Clear()
	l.users.Forget()

	if err := l.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear stored token: %w", err)
	}
	l.log.Info("session ended")
	return nil
}

// UpdateProfile forwards to the resolver with the session token and adopts
// the resulting record.
func (l *Lifecycle) UpdateProfile(ctx context.Context, patch identitydomain.ProfilePatch) (identityapp.UpdateResult, error) {
	l.mu.RLock()
	token, gen := l.token, l.gen
	l.mu.RUnlock()

	res, err := l.users.UpdateProfile(ctx, token, patch)
	if err != nil {
		return res, err
	}

	l.mu.Lock()
	if l.gen == gen {
		u := res.User
		l.user = &u
	}
	l.mu.Unlock()
	return res, nil
}

func (l *Lifecycle) Token() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.token
}

func (l *Lifecycle) State() domain.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Lifecycle) CurrentUser() (identitydomain.User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.user == nil {
		return identitydomain.User{}, false
	}
	return *l.user, true
}

// activate runs cart hydration and user resolution side by side. Neither
// waits on the other and neither can keep the session out of Active.
func (l *Lifecycle) activate(ctx context.Context, token string) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.token = token
	l.state = domain.StateHydrating
	l.mu.Unlock()

	l.log.Info("session hydrating")

	var (
		g    errgroup.Group
		user identitydomain.User
		ok   bool
	)
	g.Go(func() error {
		if err := l.cart.Hydrate(ctx, token); err != nil {
			l.log.Warn("cart not hydrated, keeping local cart", slog.Any("err", err))
		}
		return nil
	})
	g.Go(func() error {
		user, ok = l.users.Resolve(ctx, token)
		return nil
	})
	_ = g.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		// A logout or a newer login got in first; its state stands.
		l.log.Debug("discarding stale hydration")
		if l.state == domain.StateLoggedOut {
			l.users.Forget()
		}
		return
	}
	if ok {
		l.user = &user
	}
	l.state = domain.StateActive
	l.log.Info("session active", slog.String("user_id", user.ID), slog.String("user_source", string(user.Source)))
}
