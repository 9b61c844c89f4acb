package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/repomanager"
)

// DashboardService aggregates read-only statistics; what is returned
// depends on the caller's role.
type DashboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDashboardService(db *sql.DB, m repomanager.RepositoryManager) *DashboardService {
	return &DashboardService{db: db, repomanager: m}
}

// Stats returns *models.AdminStats for admins and *models.ClientStats for
// clients. A client without a profile gets an empty object.
func (s *DashboardService) Stats(ctx context.Context, role models.Role, accountID string) (any, error) {
	switch role {
	case models.RoleAdmin:
		return s.AdminStats(ctx)
	case models.RoleClient:
		stats, err := s.ClientStats(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if stats == nil {
			return struct{}{}, nil
		}
		return stats, nil
	}
	return nil, common.ErrorForbidden
}

func (s *DashboardService) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var (
		out models.AdminStats
		err error
	)

	if out.TotalUsers, err = s.repomanager.Accounts(s.db).CountClients(ctx); err != nil {
		return nil, fmt.Errorf("error counting clients: %w", err)
	}

	stats := s.repomanager.Stats(s.db)
	if out.ActiveSubscriptions, err = stats.CountActiveSubscriptions(ctx); err != nil {
		return nil, fmt.Errorf("error counting subscriptions: %w", err)
	}
	if out.TotalRevenue, err = stats.SumCompletedPayments(ctx); err != nil {
		return nil, fmt.Errorf("error summing payments: %w", err)
	}

	return &out, nil
}

// ClientStats returns nil, nil when the account has no client profile.
func (s *DashboardService) ClientStats(ctx context.Context, accountID string) (*models.ClientStats, error) {
	profile, err := s.repomanager.ClientProfiles(s.db).GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading client profile: %w", err)
	}

	out := &models.ClientStats{
		TotalPoints:    profile.TotalPoints,
		TotalReferrals: profile.TotalReferrals,
	}

	sub, err := s.repomanager.Stats(s.db).ActiveSubscriptionForAccount(ctx, accountID)
	switch {
	case err == nil:
		out.Subscription = sub
	case errors.Is(err, common.ErrorNotFound):
	default:
		return nil, fmt.Errorf("error loading subscription: %w", err)
	}

	return out, nil
}
