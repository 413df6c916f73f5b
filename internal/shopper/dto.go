package shopper

import (
	"regexp"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/core/common/validation"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// TokenDTO is the login payload exchanged for a cart token.
type TokenDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	CartID   int64  `json:"cart_id"`
}

func (d TokenDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).Required().MaxLength(255).Matches(emailPattern)
	validator.Field("password", d.Password).Required()
	validator.Field("cart_id", d.CartID).Required().Custom(func(v interface{}) *errors.AppError {
		if id, ok := v.(int64); ok && id < 0 {
			return errors.NewValidationFieldError("cart_id", "cart_id must be positive", errors.ErrCodeValidationFailed)
		}
		return nil
	})

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type TokenResponse struct {
	CartToken string `json:"cart_token"`
	CartID    int64  `json:"cart_id"`
}
