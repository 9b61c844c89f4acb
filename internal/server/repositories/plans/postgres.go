package plans

import (
	"context"
	"fmt"

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

// ListActive returns active plans by sort order, then price. The result is
// never nil.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]models.Plan, error) {
	query :=
		`SELECT id, name, description, price::float8, duration_days, device_limit, sort_order FROM plans
		 WHERE is_active = TRUE
		 ORDER BY sort_order ASC, price ASC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	plans := make([]models.Plan, 0)
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays, &p.DeviceLimit, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return plans, nil
}
