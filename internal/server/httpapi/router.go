// Package httpapi exposes the account, dashboard and plan services over a
// JSON HTTP API built on gin.
package httpapi

import (
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/dmitrijs2005/subscribers/internal/server/metrics"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router wires together. Metrics and
// RateLimiter are optional.
type Deps struct {
	Accounts    AccountService
	Dashboard   DashboardService
	Plans       PlanService
	Tokens      TokenVerifier
	DB          Pinger
	Metrics     *metrics.Metrics
	RateLimiter *RateLimiter
	Logger      logging.Logger
}

// NewRouter wires routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	h := &Handler{
		accounts:  d.Accounts,
		dashboard: d.Dashboard,
		plans:     d.Plans,
		db:        d.DB,
		metrics:   d.Metrics,
		logger:    logger,
		validate:  newValidator(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/health", h.Health)
	r.GET("/plans", h.Plans)

	authGroup := r.Group("/auth", d.RateLimiter.Handler())
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	authn := authenticate(d.Tokens, logger)

	r.GET("/user/profile", authn, h.Profile)
	r.GET("/dashboard/stats", authn, h.DashboardStats)

	admin := r.Group("/admin", authn, requireRole(models.RoleAdmin, logger))
	{
		admin.GET("/stats", h.AdminStats)
	}

	return r
}
