// Package clientprofiles stores the client-role extension of accounts:
// referral codes, referrer links and derived counters.
package clientprofiles

import (
	"context"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

type Repository interface {
	// Create inserts the profile and fills in its id. A referral code that
	// already exists yields common.ErrorReferralCodeTaken.
	Create(ctx context.Context, profile *models.ClientProfile) (*models.ClientProfile, error)
	GetByReferralCode(ctx context.Context, code string) (*models.ClientProfile, error)
	GetByAccountID(ctx context.Context, accountID string) (*models.ClientProfile, error)
	// IncrementTotalReferrals adds one to the profile's total_referrals and
	// fails unless exactly one row was updated.
	IncrementTotalReferrals(ctx context.Context, id string) error
}
