package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/dmitrijs2005/subscribers/internal/server/auth"
	"github.com/dmitrijs2005/subscribers/internal/server/metrics"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/dmitrijs2005/subscribers/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const healthTimeout = 2 * time.Second

type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Profile(ctx context.Context, accountID string) (*services.Profile, error)
}

type DashboardService interface {
	Stats(ctx context.Context, role models.Role, accountID string) (any, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

type PlanService interface {
	ListActive(ctx context.Context) ([]models.Plan, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// Pinger reports database reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the JSON API on top of the service layer.
type Handler struct {
	accounts  AccountService
	dashboard DashboardService
	plans     PlanService
	db        Pinger
	metrics   *metrics.Metrics
	logger    logging.Logger
	validate  *validator.Validate
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		h.observeRegistration("invalid")
		writeError(c, h.logger, err)
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		h.observeRegistration(outcome(err))
		writeError(c, h.logger, err)
		return
	}

	h.observeRegistration("ok")
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    newUserResponse(account),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		h.observeLogin("invalid")
		writeError(c, h.logger, err)
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.observeLogin(outcome(err))
		writeError(c, h.logger, err)
		return
	}

	h.observeLogin("ok")
	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"token":        res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
		"user":         newUserResponse(res.Account),
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	pair, err := h.accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		writeError(c, h.logger, common.ErrorUnauthenticated)
		return
	}

	p, err := h.accounts.Profile(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := profileResponse{
		ID:        p.Account.ID,
		Name:      p.Account.Name,
		Email:     p.Account.Email,
		Role:      p.Account.Role,
		Status:    p.Account.Status,
		CreatedAt: p.Account.CreatedAt,
		LastLogin: p.Account.LastLogin,
	}
	if cp := p.Client; cp != nil {
		resp.ClientProfile = &clientProfileResponse{
			ID:             cp.ID,
			ReferralCode:   cp.ReferralCode,
			Phone:          cp.Phone,
			ReferredBy:     cp.ReferredBy,
			TotalReferrals: cp.TotalReferrals,
			TotalPoints:    cp.TotalPoints,
		}
	}

	c.JSON(http.StatusOK, gin.H{"profile": resp})
}

func (h *Handler) DashboardStats(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		writeError(c, h.logger, common.ErrorUnauthenticated)
		return
	}

	stats, err := h.dashboard.Stats(c.Request.Context(), id.Role, id.AccountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.dashboard.AdminStats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) Plans(c *gin.Context) {
	plans, err := h.plans.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) observeRegistration(result string) {
	if h.metrics != nil {
		h.metrics.ObserveRegistration(result)
	}
}

func (h *Handler) observeLogin(result string) {
	if h.metrics != nil {
		h.metrics.ObserveLogin(result)
	}
}

// outcome buckets an error into a metric label.
func outcome(err error) string {
	switch status, _ := statusFor(err); {
	case errors.Is(err, common.ErrorEmailTaken):
		return "conflict"
	case status == http.StatusUnauthorized:
		return "denied"
	case status == http.StatusBadRequest:
		return "invalid"
	}
	return "error"
}
