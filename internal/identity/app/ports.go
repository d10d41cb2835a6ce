package app

import (
	"context"

	"github.com/dwikikusuma/shoping-session/internal/identity/domain"
)

type ProfileGateway interface {
	GetProfile(ctx context.Context, token string) (domain.User, error)
	UpdateProfile(ctx context.Context, token string, patch domain.ProfilePatch) (domain.User, string, error)
}

// ProfileCache is the durable copy of the last known user plus the
// separately stored display name and email.
type ProfileCache interface {
	LoadUser(ctx context.Context) (domain.User, bool, error)
	SaveUser(ctx context.Context, u domain.User) error
	DisplayName(ctx context.Context) (string, bool, error)
	Email(ctx context.Context) (string, bool, error)
	SetDisplayName(ctx context.Context, name string) error
}
