package clientprofiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/dbx"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

const referralCodeConstraint = "client_profiles_referral_code_key"

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository binds the repository to a pool or a transaction.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the profile and fills its ID. A referral code that is
// already taken yields common.ErrorReferralCodeTaken so the caller can retry.
func (r *PostgresRepository) Create(ctx context.Context, profile *models.ClientProfile) (*models.ClientProfile, error) {

	query :=
		`INSERT INTO client_profiles (account_id, referral_code, phone, referred_by)
         VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		profile.AccountID, profile.ReferralCode, nullString(profile.Phone), nullString(profile.ReferredBy)).
		Scan(&profile.ID)

	if err != nil {
		if c, ok := dbx.UniqueViolation(err); ok && c == referralCodeConstraint {
			return nil, common.ErrorReferralCodeTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

// GetByReferralCode returns common.ErrorNotFound for an unknown code.
func (r *PostgresRepository) GetByReferralCode(ctx context.Context, code string) (*models.ClientProfile, error) {
	query :=
		`SELECT id, account_id, referral_code, phone, referred_by, total_referrals, total_points FROM client_profiles
		 WHERE referral_code = $1
		 `
	return r.getOne(ctx, query, code)
}

// GetByAccountID returns common.ErrorNotFound when the account has no profile.
func (r *PostgresRepository) GetByAccountID(ctx context.Context, accountID string) (*models.ClientProfile, error) {
	query :=
		`SELECT id, account_id, referral_code, phone, referred_by, total_referrals, total_points FROM client_profiles
		 WHERE account_id = $1
		 `
	return r.getOne(ctx, query, accountID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.ClientProfile, error) {
	var (
		p          models.ClientProfile
		phone      sql.NullString
		referredBy sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.AccountID, &p.ReferralCode, &phone, &referredBy, &p.TotalReferrals, &p.TotalPoints)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if phone.Valid {
		p.Phone = &phone.String
	}
	if referredBy.Valid {
		p.ReferredBy = &referredBy.String
	}

	return &p, nil
}

// IncrementTotalReferrals bumps the counter in place. Anything other than
// exactly one affected row is an error.
func (r *PostgresRepository) IncrementTotalReferrals(ctx context.Context, id string) error {
	query :=
		`UPDATE client_profiles SET total_referrals = total_referrals + 1
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("increment total_referrals for %s: %d rows affected", id, n)
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
