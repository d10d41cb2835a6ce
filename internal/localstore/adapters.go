package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
)

// TokenStore persists the session token.
type TokenStore struct {
	s Store
}

func NewTokenStore(s Store) *TokenStore {
	return &TokenStore{s: s}
}

func (t *TokenStore) Token(ctx context.Context) (string, bool, error) {
	v, ok, err := t.s.Get(ctx, KeyToken)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}

func (t *TokenStore) SetToken(ctx context.Context, token string) error {
	return t.s.Set(ctx, KeyToken, token)
}

func (t *TokenStore) ClearToken(ctx context.Context) error {
	return t.s.Delete(ctx, KeyToken)
}

// ProfileCache holds the serialized user record and the separately cached
// display name and email.
type ProfileCache struct {
	s Store
}

func NewProfileCache(s Store) *ProfileCache {
	return &ProfileCache{s: s}
}

func (p *ProfileCache) LoadUser(ctx context.Context) (identitydomain.User, bool, error) {
	raw, ok, err := p.s.Get(ctx, KeyUserData)
	if err != nil || !ok {
		return identitydomain.User{}, false, err
	}
	var u identitydomain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return identitydomain.User{}, false, fmt.Errorf("decode cached user: %w", err)
	}
	return u, true, nil
}

func (p *ProfileCache) SaveUser(ctx context.Context, u identitydomain.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return p.s.Set(ctx, KeyUserData, string(raw))
}

func (p *ProfileCache) DisplayName(ctx context.Context) (string, bool, error) {
	return p.nonEmpty(ctx, KeyUserName)
}

func (p *ProfileCache) Email(ctx context.Context) (string, bool, error) {
	return p.nonEmpty(ctx, KeyUserEmail)
}

func (p *ProfileCache) SetDisplayName(ctx context.Context, name string) error {
	return p.s.Set(ctx, KeyUserName, name)
}

func (p *ProfileCache) SetEmail(ctx context.Context, email string) error {
	return p.s.Set(ctx, KeyUserEmail, email)
}

func (p *ProfileCache) nonEmpty(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := p.s.Get(ctx, key)
	if err != nil || !ok || v == "" {
		return "", false, err
	}
	return v, true, nil
}
