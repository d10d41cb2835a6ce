package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dwikikusuma/shoping-session/internal/gateway"
	"github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/dwikikusuma/shoping-session/internal/notify"
)

const msgOfflineMode = "Backend server not available, using offline mode"

var errMalformedToken = errors.New("token is not a three-part JWT")

// Provider yields a user for token, or ok=false to pass to the next one.
type Provider struct {
	Name    string
	Resolve func(ctx context.Context, token string) (domain.User, bool)
}

func (r *Resolver) remoteProvider() Provider {
	return Provider{Name: "remote", Resolve: func(ctx context.Context, token string) (domain.User, bool) {
		u, err := r.remote.GetProfile(ctx, token)
		if err != nil {
			r.log.Info("profile fetch failed", slog.Any("err", err))
			switch {
			case gateway.IsApplication(err):
				notify.Error(r.notify, gateway.Message(err))
			case gateway.IsTransport(err):
				notify.Warn(r.notify, msgOfflineMode)
			}
			return domain.User{}, false
		}
		u.Source = domain.SourceRemote
		u.ResolvedAt = r.now()
		return u, true
	}}
}

// cacheProvider returns the stored record without checking it against the
// token. Records that were server-confirmed come back tagged SourceCache;
// locally synthesized ones keep their tag.
func (r *Resolver) cacheProvider() Provider {
	return Provider{Name: "cache", Resolve: func(ctx context.Context, _ string) (domain.User, bool) {
		u, ok, err := r.cache.LoadUser(ctx)
		if err != nil {
			r.log.Warn("cached profile unreadable", slog.Any("err", err))
			return domain.User{}, false
		}
		if !ok {
			return domain.User{}, false
		}
		if u.Source == "" || u.Source == domain.SourceRemote {
			u.Source = domain.SourceCache
		}
		return u, true
	}}
}

// claimsProvider reads id and iat from the token payload. The signature is
// not checked; only the server can do that.
func (r *Resolver) claimsProvider() Provider {
	return Provider{Name: "token_claims", Resolve: func(ctx context.Context, token string) (domain.User, bool) {
		claims, err := decodeClaims(token)
		if err != nil {
			r.log.Debug("token claims unreadable", slog.Any("err", err))
			return domain.User{}, false
		}

		id, _ := claims["id"].(string)
		iat, err := claims.GetIssuedAt()
		if id == "" || err != nil || iat == nil {
			r.log.Debug("token claims incomplete")
			return domain.User{}, false
		}

		u := domain.User{
			ID:         id,
			Name:       r.cachedOr(ctx, r.cache.DisplayName, domain.ClaimsDefaultName),
			Email:      r.cachedOr(ctx, r.cache.Email, domain.ClaimsDefaultEmail),
			JoinDate:   iat.UTC(),
			Source:     domain.SourceTokenClaims,
			ResolvedAt: r.now(),
		}
		return u, true
	}}
}

func (r *Resolver) guestProvider() Provider {
	return Provider{Name: "guest", Resolve: func(ctx context.Context, _ string) (domain.User, bool) {
		now := r.now()
		u := domain.User{
			ID:         domain.GuestID,
			Name:       r.cachedOr(ctx, r.cache.DisplayName, domain.GuestName),
			Email:      r.cachedOr(ctx, r.cache.Email, domain.GuestEmail),
			JoinDate:   now,
			Source:     domain.SourceGuest,
			ResolvedAt: now,
		}
		return u, true
	}}
}

func decodeClaims(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errMalformedToken
	}
	raw, err := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(parts[1])
	if err != nil {
		return nil, err
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *Resolver) cachedOr(ctx context.Context, get func(context.Context) (string, bool, error), def string) string {
	v, ok, err := get(ctx)
	if err != nil || !ok {
		return def
	}
	return v
}

func (r *Resolver) save(ctx context.Context, u domain.User) {
	if err := r.cache.SaveUser(ctx, u); err != nil {
		r.log.Warn("caching profile failed", slog.Any("err", err))
	}
}
