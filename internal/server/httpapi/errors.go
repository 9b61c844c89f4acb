package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/logging"
	"github.com/gin-gonic/gin"
)

const (
	msgInternal    = "internal server error"
	msgUnavailable = "service temporarily unavailable"
)

// errorStatuses is checked in order; the first sentinel matched by
// errors.Is decides the status.
var errorStatuses = []struct {
	target error
	status int
}{
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrorEmailTaken, http.StatusBadRequest},
	{common.ErrorUnauthenticated, http.StatusUnauthorized},
	{common.ErrorInvalidCredentials, http.StatusUnauthorized},
	{common.ErrorAccountInactive, http.StatusUnauthorized},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusForbidden},
	{common.ErrTokenExpired, http.StatusForbidden},
	{common.ErrorForbidden, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrorTooManyRequests, http.StatusTooManyRequests},
	{common.ErrorPoolExhausted, http.StatusServiceUnavailable},
}

// statusFor maps a domain error to an HTTP status and a message that is
// safe to show to the caller.
func statusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.target) {
			continue
		}
		switch {
		case e.target == common.ErrorValidation:
			// carries the offending field
			return e.status, err.Error()
		case e.status == http.StatusServiceUnavailable:
			return e.status, msgUnavailable
		}
		return e.status, e.target.Error()
	}
	return http.StatusInternalServerError, msgInternal
}

// writeError aborts the request with the mapped status. Server-side
// failures are logged with full detail, which never reaches the response.
func writeError(c *gin.Context, logger logging.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
