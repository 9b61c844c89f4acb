// Package stats runs the read-only aggregate queries behind the dashboards.
package stats

import (
	"context"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

type Repository interface {
	// CountActiveSubscriptions counts subscriptions that are active and not yet past end_date.
	CountActiveSubscriptions(ctx context.Context) (int64, error)
	// SumCompletedPayments totals completed payment amounts; zero when there are none.
	SumCompletedPayments(ctx context.Context) (float64, error)
	// ActiveSubscriptionForAccount returns the most recently started active,
	// non-expired subscription, or common.ErrorNotFound.
	ActiveSubscriptionForAccount(ctx context.Context, accountID string) (*models.ActiveSubscription, error)
}
