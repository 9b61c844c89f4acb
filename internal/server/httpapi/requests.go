package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"github.com/dmitrijs2005/subscribers/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type registerRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,max=72"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	ReferralCode string `json:"referralCode" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type userResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func newUserResponse(a *models.Account) userResponse {
	return userResponse{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

type clientProfileResponse struct {
	ID             string  `json:"id"`
	ReferralCode   string  `json:"referralCode"`
	Phone          *string `json:"phone"`
	ReferredBy     *string `json:"referredBy"`
	TotalReferrals int     `json:"totalReferrals"`
	TotalPoints    int     `json:"totalPoints"`
}

type profileResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	Role          models.Role            `json:"role"`
	Status        models.AccountStatus   `json:"status"`
	CreatedAt     time.Time              `json:"createdAt"`
	LastLogin     *time.Time             `json:"lastLogin"`
	ClientProfile *clientProfileResponse `json:"clientProfile,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate decodes the JSON body into dst and validates it. All
// failures are reported as common.ErrorValidation.
func (h *Handler) bindAndValidate(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", common.ErrorValidation)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", common.ErrorValidation, describeFieldError(verrs[0]))
		}
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "max":
		return fe.Field() + " is too long"
	}
	return fe.Field() + " is invalid"
}
