package referrals

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

// Create inserts a referral edge, defaulting its status to pending.
func (r *PostgresRepository) Create(ctx context.Context, edge *models.ReferralEdge) (*models.ReferralEdge, error) {

	if edge.Status == "" {
		edge.Status = models.ReferralPending
	}

	query :=
		`INSERT INTO referral_edges (referrer_id, referred_id, status)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, edge.ReferrerID, edge.ReferredID, string(edge.Status)).
		Scan(&edge.ID, &edge.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return edge, nil
}
