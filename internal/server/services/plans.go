package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/repomanager"
)

type PlanService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPlanService(db *sql.DB, m repomanager.RepositoryManager) *PlanService {
	return &PlanService{db: db, repomanager: m}
}

func (s *PlanService) ListActive(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repomanager.Plans(s.db).ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing plans: %w", err)
	}
	return plans, nil
}
