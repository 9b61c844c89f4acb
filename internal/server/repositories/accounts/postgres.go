package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/dbx"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
)

const emailConstraint = "accounts_email_key"

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository binds the repository to a pool or a transaction.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the account and fills its ID and CreatedAt.
// A duplicate email yields common.ErrorEmailTaken.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (name, email, password_hash, role, status)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Name, account.Email, account.PasswordHash, string(account.Role), string(account.Status)).
		Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		if c, ok := dbx.UniqueViolation(err); ok && c == emailConstraint {
			return nil, common.ErrorEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// GetByEmail returns common.ErrorNotFound when no account has the email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, role, status, created_at, last_login FROM accounts
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

// GetByID returns common.ErrorNotFound when the account does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, role, status, created_at, last_login FROM accounts
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		account   models.Account
		role      string
		status    string
		lastLogin sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&role, &status, &account.CreatedAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.Role = models.Role(role)
	account.Status = models.AccountStatus(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		account.LastLogin = &t
	}

	return &account, nil
}

// UpdateLastLogin stamps last_login with the database clock.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query :=
		`UPDATE accounts SET last_login = now()
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// CountClients counts accounts with the client role.
func (r *PostgresRepository) CountClients(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE role = 'client'`

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
