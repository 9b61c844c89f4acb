package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/subscribers/internal/dbx"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/clientprofiles"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/plans"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/referrals"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/stats"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code can run against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	ClientProfiles(db dbx.DBTX) clientprofiles.Repository
	Referrals(db dbx.DBTX) referrals.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Plans(db dbx.DBTX) plans.Repository
	Stats(db dbx.DBTX) stats.Repository
}
