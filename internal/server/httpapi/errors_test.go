package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: name is required", common.ErrorValidation), http.StatusBadRequest, "validation error: name is required"},
		{common.ErrorEmailTaken, http.StatusBadRequest, "email already in use"},
		{common.ErrorUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{common.ErrorInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{common.ErrorAccountInactive, http.StatusUnauthorized, "account is inactive"},
		{common.ErrRefreshTokenExpired, http.StatusUnauthorized, "refresh token expired"},
		{common.ErrInvalidToken, http.StatusForbidden, "invalid token"},
		{common.ErrTokenExpired, http.StatusForbidden, "token expired"},
		{common.ErrorForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("wrapped: %w", common.ErrorNotFound), http.StatusNotFound, "not found"},
		{common.ErrorTooManyRequests, http.StatusTooManyRequests, "too many requests"},
		{fmt.Errorf("%w: waited 5s", common.ErrorPoolExhausted), http.StatusServiceUnavailable, msgUnavailable},
		{fmt.Errorf("%w: no unique referral code after 3 attempts", common.ErrorInternal), http.StatusInternalServerError, msgInternal},
		{errors.New("db error: connection reset"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, msg := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "conflict", outcome(common.ErrorEmailTaken))
	assert.Equal(t, "denied", outcome(common.ErrorInvalidCredentials))
	assert.Equal(t, "invalid", outcome(common.ErrorValidation))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
