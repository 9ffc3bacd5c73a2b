package repo

import (
	"context"
	"time"
)

// TokenRepo is the refresh-token blacklist. A jti is written only when the
// client logs out; absence means the token is still good.
type TokenRepo interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	IsRevoked(ctx context.Context, jti string) (bool, error)
}
