// Package storage is the client-side key-value persistence layer. The cart,
// the token pair, and the user snapshot survive restarts through it.
package storage

import (
	"context"
	"errors"
)

const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
	KeyCart         = "cart"
)

var ErrKeyNotFound = errors.New("key not found")

// Keys lists every key the client owns; Clear wipes exactly this set.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyCart}

type Store interface {
	Get(c context.Context, key string) ([]byte, error)
	Set(c context.Context, key string, value []byte) error
	Delete(c context.Context, key string) error
	Clear(c context.Context) error
}
