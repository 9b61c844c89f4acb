// Package referrals persists the referral graph edges created at registration.
package referrals

import (
	"context"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

type Repository interface {
	// Create inserts the edge and fills in its id and created_at.
	Create(ctx context.Context, edge *models.ReferralEdge) (*models.ReferralEdge, error)
}
