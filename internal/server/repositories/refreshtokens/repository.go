// Package refreshtokens declares the repository contract for the rotating
// refresh tokens handed out at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for accountID with an expiry of now+validity.
	Create(ctx context.Context, accountID string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string and returns
	// common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string. It returns
	// common.ErrorNotFound when no row was removed, so a token already
	// consumed by a concurrent rotation cannot be exchanged again.
	Delete(ctx context.Context, token string) error

	// DeleteExpired purges tokens whose expiry is in the past and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
