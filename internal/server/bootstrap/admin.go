// Package bootstrap seeds data the server needs before it accepts traffic.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/dmitrijs2005/subscribers/internal/server/config"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/repomanager"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

// EnsureAdmin creates the configured admin account if it does not exist yet.
// Admins are only ever created here; registration always yields clients.
// Nothing happens when AdminEmail or AdminPassword is empty.
func EnsureAdmin(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, hasher passwordHasher,
	cfg *config.Config, logger logging.Logger) error {

	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		logger.Debug(ctx, "admin bootstrap skipped: no credentials configured")
		return nil
	}

	accounts := m.Accounts(db)
	if existing, err := accounts.GetByEmail(ctx, email); err == nil {
		if existing.Role != models.RoleAdmin {
			logger.Warn(ctx, "admin bootstrap email belongs to a non-admin account", "account_id", existing.ID)
		}
		return nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("bootstrap lookup admin: %w", err)
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap hash password: %w", err)
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}

	created, err := accounts.Create(ctx, &models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.AccountActive,
	})
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			// another instance won the race
			return nil
		}
		return fmt.Errorf("bootstrap create admin: %w", err)
	}

	logger.Info(ctx, "bootstrap admin account created", "account_id", created.ID, "email", created.Email)
	return nil
}
