// Package auth issues and verifies the signed session tokens and carries the
// verified identity through a request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload: the standard registered claims plus
// the account identity.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string      `json:"account_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

// Identity is what a verified session token asserts about the caller.
type Identity struct {
	AccountID string
	Name      string
	Email     string
	Role      models.Role
}

// TokenManager signs and verifies HS256 session tokens with a process-wide secret.
type TokenManager struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenManager(secret []byte, validity time.Duration) *TokenManager {
	return &TokenManager{secret: secret, validity: validity, now: time.Now}
}

// Issue returns a signed token for account that expires after the configured validity.
func (m *TokenManager) Issue(account *models.Account) (string, error) {
	now := m.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
		},
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
	})

	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature and expiry. Expired tokens yield common.ErrTokenExpired;
// every other failure yields common.ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.AccountID == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	return &Identity{
		AccountID: claims.AccountID,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}
