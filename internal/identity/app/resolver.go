package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dwikikusuma/shoping-session/internal/gateway"
	"github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/dwikikusuma/shoping-session/internal/notify"
)

var ErrNotAuthenticated = errors.New("no authentication token")

const (
	msgLoginToUpdate      = "Please login to update profile"
	msgUpdatedOfflineMode = "Profile updated successfully (offline mode)"
	msgUpdatedLocally     = "Profile updated locally"
)

type UpdateResult struct {
	User    domain.User
	Offline bool
	Message string
}

// Resolver works out who the current user is. Once a token exists it always
// produces a user, walking remote -> cache -> token claims -> guest.
type Resolver struct {
	remote ProfileGateway
	cache  ProfileCache
	notify notify.Notifier
	log    *slog.Logger
	now    func() time.Time

	chain []Provider
	local []Provider

	mu      sync.RWMutex
	current *domain.User
	// epoch advances on every Resolve, Forget and UpdateProfile. A resolve
	// that finishes after a newer one started is not adopted.
	epoch uint64
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(remote ProfileGateway, cache ProfileCache, n notify.Notifier, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		remote: remote,
		cache:  cache,
		notify: n,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notify == nil {
		r.notify = notify.Discard{}
	}
	if r.log == nil {
		r.log = slog.Default()
	}

	r.local = []Provider{r.cacheProvider(), r.claimsProvider(), r.guestProvider()}
	r.chain = append([]Provider{r.remoteProvider()}, r.local...)
	return r
}

// Resolve returns ok=false only when token is empty. The result becomes the
// current user, and is cached, only if no newer Resolve, Forget or
// UpdateProfile started while it ran.
func (r *Resolver) Resolve(ctx context.Context, token string) (domain.User, bool) {
	if token == "" {
		return domain.User{}, false
	}
	epoch := r.begin()

	u := r.first(ctx, token, r.chain)

	r.mu.Lock()
	adopted := r.epoch == epoch
	if adopted {
		r.current = &u
	}
	r.mu.Unlock()

	if !adopted {
		r.log.Debug("discarding stale resolve", slog.String("source", string(u.Source)))
		return u, true
	}
	if u.Source != domain.SourceCache {
		r.save(ctx, u)
	}
	return u, true
}

func (r *Resolver) Current() (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return domain.User{}, false
	}
	return *r.current, true
}

// Forget drops the in-memory user. The durable cache is kept for offline
// bootstrap.
func (r *Resolver) Forget() {
	r.mu.Lock()
	r.epoch++
	r.current = nil
	r.mu.Unlock()
}

// UpdateProfile asks the server first. If the server cannot be reached the
// patch is applied to the last known user and the result is marked Offline.
// A server that answers and refuses is reported as an error and nothing
// changes locally.
func (r *Resolver) UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (UpdateResult, error) {
	if token == "" {
		notify.Error(r.notify, msgLoginToUpdate)
		return UpdateResult{}, ErrNotAuthenticated
	}
	r.begin()

	u, msg, err := r.remote.UpdateProfile(ctx, token, patch)
	if err == nil {
		u.Source = domain.SourceRemote
		u.ResolvedAt = r.now()
		r.setCurrent(u)
		r.save(ctx, u)
		notify.Success(r.notify, msg)
		return UpdateResult{User: u, Message: msg}, nil
	}

	if gateway.IsApplication(err) {
		notify.Error(r.notify, gateway.Message(err))
		return UpdateResult{}, err
	}

	r.log.Info("profile update fell back to offline mode", slog.Any("err", err))

	base, ok := r.Current()
	if !ok {
		base = r.first(ctx, token, r.local)
	}
	merged := patch.Apply(base)
	merged.Source = domain.SourceLocalEdit
	merged.ResolvedAt = r.now()

	r.setCurrent(merged)
	r.save(ctx, merged)
	if patch.Name != "" {
		if err := r.cache.SetDisplayName(ctx, patch.Name); err != nil {
			r.log.Warn("caching display name failed", slog.Any("err", err))
		}
	}

	notify.Success(r.notify, msgUpdatedOfflineMode)
	return UpdateResult{User: merged, Offline: true, Message: msgUpdatedLocally}, nil
}

func (r *Resolver) first(ctx context.Context, token string, providers []Provider) domain.User {
	for _, p := range providers {
		if u, ok := p.Resolve(ctx, token); ok {
			r.log.Debug("user resolved", slog.String("provider", p.Name), slog.String("source", string(u.Source)))
			return u
		}
	}
	// The guest provider always answers; this only guards an empty chain.
	return domain.User{ID: domain.GuestID, Name: domain.GuestName, Email: domain.GuestEmail, JoinDate: r.now(), Source: domain.SourceGuest}
}

func (r *Resolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	return r.epoch
}

func (r *Resolver) setCurrent(u domain.User) {
	r.mu.Lock()
	r.current = &u
	r.mu.Unlock()
}
