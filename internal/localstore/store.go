// Package localstore is the durable key/value storage that survives process
// restarts: the session token and the cached user profile live here.
package localstore

import (
	"context"
	"errors"
)

const (
	KeyToken     = "token"
	KeyUserData  = "userData"
	KeyUserName  = "userName"
	KeyUserEmail = "userEmail"
)

var ErrClosed = errors.New("localstore: closed")

type Store interface {
	// Get returns ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
