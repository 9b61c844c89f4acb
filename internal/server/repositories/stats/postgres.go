package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/dbx"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository binds the repository to a pool or a transaction.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CountActiveSubscriptions counts active subscriptions that have not ended.
func (r *PostgresRepository) CountActiveSubscriptions(ctx context.Context) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM subscriptions
		 WHERE status = 'active' AND end_date > now()
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// SumCompletedPayments totals completed payments, zero when there are none.
func (r *PostgresRepository) SumCompletedPayments(ctx context.Context) (float64, error) {
	query :=
		`SELECT COALESCE(SUM(amount), 0)::float8 FROM payments
		 WHERE status = 'completed'
		 `

	var total float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

// ActiveSubscriptionForAccount returns the most recently started live
// subscription, or common.ErrorNotFound.
func (r *PostgresRepository) ActiveSubscriptionForAccount(ctx context.Context, accountID string) (*models.ActiveSubscription, error) {
	query :=
		`SELECT s.id, p.name, p.device_limit, s.start_date, s.end_date
		 FROM subscriptions s
		 JOIN plans p ON p.id = s.plan_id
		 WHERE s.account_id = $1 AND s.status = 'active' AND s.end_date > now()
		 ORDER BY s.start_date DESC
		 LIMIT 1
		 `

	var sub models.ActiveSubscription
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&sub.ID, &sub.PlanName, &sub.DeviceLimit, &sub.StartDate, &sub.EndDate)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &sub, nil
}
