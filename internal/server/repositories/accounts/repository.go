// Package accounts declares the repository contract for login accounts and
// its PostgreSQL implementation.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

type Repository interface {
	// Create inserts the account and fills in its id and created_at.
	// A duplicate email yields common.ErrorEmailTaken.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id string) error
	CountClients(ctx context.Context) (int64, error)
}
