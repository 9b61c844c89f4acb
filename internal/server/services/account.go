// Package services contains server-side business logic. This file implements
// AccountService: atomic registration with referral bookkeeping, login,
// refresh token rotation and profile reads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/dbx"
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/dmitrijs2005/subscribers/internal/server/config"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/dmitrijs2005/subscribers/internal/server/referral"
	"github.com/dmitrijs2005/subscribers/internal/server/repositories/repomanager"
)

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// CodeGenerator produces referral codes from a display name.
type CodeGenerator interface {
	Generate(displayName string) (string, error)
}

// TokenIssuer signs session tokens for an account.
type TokenIssuer interface {
	Issue(account *models.Account) (string, error)
}

// TokenPair bundles a session token and a server-stored refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput is the data a visitor submits to open a client account.
// Phone and ReferralCode are optional.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	ReferralCode string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Account *models.Account
	Tokens  *TokenPair
}

// Profile is an account together with its client profile; Client is nil for
// admins and for clients whose profile row is missing.
type Profile struct {
	Account *models.Account
	Client  *models.ClientProfile
}

// AccountService owns the account lifecycle: registration with referral
// bookkeeping, login and refresh token rotation. Multi-row writes run in a
// single transaction on a connection acquired within poolAcquireTimeout.
type AccountService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       PasswordHasher
	codes                        CodeGenerator
	tokens                       TokenIssuer
	logger                       logging.Logger
	refreshTokenValidityDuration time.Duration
	poolAcquireTimeout           time.Duration
	referralCodeAttempts         int

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer,
	cfg *config.Config, logger logging.Logger) *AccountService {

	attempts := cfg.ReferralCodeAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &AccountService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		codes:                        referral.NewGenerator(),
		tokens:                       tokens,
		logger:                       logger.With("service", "accounts"),
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		poolAcquireTimeout:           cfg.PoolAcquireTimeout,
		referralCodeAttempts:         attempts,
	}
}

// Register creates a client account, its profile and, when the supplied
// referral code resolves, the referral edge and the referrer's counter bump.
// All writes share one pooled connection and one read-committed
// transaction; nothing survives a failure.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrorValidation)
	}

	accounts := s.repomanager.Accounts(s.db)
	if _, err := accounts.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorEmailTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	referrerID, err := s.resolveReferrer(ctx, in.ReferralCode)
	if err != nil {
		return nil, err
	}

	var phone *string
	if p := strings.TrimSpace(in.Phone); p != "" {
		phone = &p
	}

	for attempt := 1; ; attempt++ {
		account := &models.Account{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleClient,
			Status:       models.AccountActive,
		}

		err := s.registerTx(ctx, account, phone, referrerID)
		switch {
		case err == nil:
			s.logger.Info(ctx, "account registered", "account_id", account.ID, "referred", referrerID != nil)
			return account, nil
		case errors.Is(err, common.ErrorReferralCodeTaken):
			if attempt < s.referralCodeAttempts {
				s.logger.Warn(ctx, "referral code collision, retrying", "attempt", attempt)
				continue
			}
			return nil, fmt.Errorf("%w: no unique referral code after %d attempts", common.ErrorInternal, attempt)
		case errors.Is(err, common.ErrorEmailTaken), errors.Is(err, common.ErrorPoolExhausted):
			return nil, err
		default:
			return nil, fmt.Errorf("error registering account: %w", err)
		}
	}
}

// resolveReferrer returns the profile id behind code. Unknown codes are
// ignored.
func (s *AccountService) resolveReferrer(ctx context.Context, code string) (*string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	referrer, err := s.repomanager.ClientProfiles(s.db).GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "unknown referral code ignored", "code", code)
			return nil, nil
		}
		return nil, fmt.Errorf("error looking up referral code: %w", err)
	}

	return &referrer.ID, nil
}

func (s *AccountService) registerTx(ctx context.Context, account *models.Account, phone, referrerID *string) error {
	return dbx.AcquireTx(ctx, s.db, s.poolAcquireTimeout, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).Create(ctx, account); err != nil {
			return err
		}

		code, err := s.codes.Generate(account.Name)
		if err != nil {
			return err
		}

		profiles := s.repomanager.ClientProfiles(tx)
		profile, err := profiles.Create(ctx, &models.ClientProfile{
			AccountID:    account.ID,
			ReferralCode: code,
			Phone:        phone,
			ReferredBy:   referrerID,
		})
		if err != nil {
			return err
		}

		if referrerID == nil {
			return nil
		}

		edge := &models.ReferralEdge{ReferrerID: *referrerID, ReferredID: profile.ID, Status: models.ReferralPending}
		if _, err := s.repomanager.Referrals(tx).Create(ctx, edge); err != nil {
			return fmt.Errorf("error creating referral edge: %w", err)
		}

		if err := profiles.IncrementTotalReferrals(ctx, *referrerID); err != nil {
			return fmt.Errorf("error updating referrer: %w", err)
		}

		return nil
	})
}

// Login verifies credentials and, for active accounts, records the login
// time and returns a fresh TokenPair.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	accounts := s.repomanager.Accounts(s.db)
	account, err := accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn comparable time so unknown emails are not distinguishable
			s.hasher.Verify(password, s.getDummyHash())
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	if account.Status != models.AccountActive {
		return nil, common.ErrorAccountInactive
	}

	if err := accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("error updating last login: %w", err)
	}

	pair, err := s.generateTokenPair(ctx, account, s.db)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Account: account, Tokens: pair}, nil
}

// Refresh validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
// A token can be exchanged once: if another rotation deletes it first, the
// transaction rolls back and the caller gets ErrorUnauthenticated.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", common.ErrorValidation)
	}

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expired(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	if account.Status != models.AccountActive {
		return nil, common.ErrorAccountInactive
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// consumed by a concurrent refresh since Find
				return common.ErrorUnauthenticated
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, account, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Profile re-reads the account so the caller sees current state rather than
// what the session token asserted.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*Profile, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	p := &Profile{Account: account}
	if account.Role != models.RoleClient {
		return p, nil
	}

	client, err := s.repomanager.ClientProfiles(s.db).GetByAccountID(ctx, accountID)
	switch {
	case err == nil:
		p.Client = client
	case errors.Is(err, common.ErrorNotFound):
	default:
		return nil, fmt.Errorf("error loading client profile: %w", err)
	}

	return p, nil
}

// PurgeExpiredRefreshTokens removes refresh tokens past their expiry.
func (s *AccountService) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("error purging refresh tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired refresh tokens purged", "count", n)
	}
	return n, nil
}

// --- helpers below ---

func (s *AccountService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		pw, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		if h, err := s.hasher.Hash(pw); err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AccountService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AccountService) generateTokenPair(ctx context.Context, account *models.Account, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, account.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
