package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/dmitrijs2005/subscribers/internal/server/auth"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	identityKey     = "identity"
)

// requestLogger logs every request with its latency. The request id, taken
// from X-Request-ID or generated, is put on the request context so that
// service logs carry it too.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if id, ok := auth.IdentityFromContext(c.Request.Context()); ok {
			args = append(args, "account_id", id.AccountID)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Error(ctx, "http_request", args...)
		case status >= 400:
			logger.Warn(ctx, "http_request", args...)
		default:
			logger.Info(ctx, "http_request", args...)
		}
	}
}

// authenticate verifies the bearer token. A missing header or token is 401,
// a token that fails verification is 403.
func authenticate(tokens TokenVerifier, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			writeError(c, logger, common.ErrorUnauthenticated)
			return
		}

		id, err := tokens.Verify(token)
		if err != nil {
			logger.Debug(c.Request.Context(), "token rejected", "reason", err)
			writeError(c, logger, err)
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// requireRole must run after authenticate.
func requireRole(role models.Role, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			writeError(c, logger, common.ErrorUnauthenticated)
			return
		}
		if id.Role != role {
			writeError(c, logger, common.ErrorForbidden)
			return
		}
		c.Next()
	}
}
