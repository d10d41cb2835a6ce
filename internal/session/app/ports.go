package app

import (
	"context"

	identityapp "github.com/dwikikusuma/shoping-session/internal/identity/app"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
)

type CartHydrator interface {
	Hydrate(ctx context.Context, token string) error
	Clear()
}

type UserResolver interface {
	Resolve(ctx context.Context, token string) (identitydomain.User, bool)
	UpdateProfile(ctx context.Context, token string, patch identitydomain.ProfilePatch) (identityapp.UpdateResult, error)
	Forget()
}

type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}
