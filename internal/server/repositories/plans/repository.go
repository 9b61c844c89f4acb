// Package plans reads the public subscription plan catalog.
package plans

import (
	"context"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

type Repository interface {
	// ListActive returns active plans ordered by sort order, then price.
	ListActive(ctx context.Context) ([]models.Plan, error)
}
