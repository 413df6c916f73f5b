package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized   ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
	ErrorTypeUserInput      ErrorType = "USER_INPUT_ERROR"
	ErrorTypeGateway        ErrorType = "GATEWAY_ERROR"
	ErrorTypeReconciliation ErrorType = "RECONCILIATION_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"

	ErrCodeInvalidOrderReference ErrorCode = "INVALID_ORDER_REFERENCE"
	ErrCodeInvalidCustomer       ErrorCode = "INVALID_CUSTOMER"
	ErrCodeCartNotFound          ErrorCode = "CART_NOT_FOUND"
	ErrCodeCartEmpty             ErrorCode = "CART_EMPTY"
	ErrCodeOrderNotFound         ErrorCode = "ORDER_NOT_FOUND"

	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"

	ErrCodeGatewayRequestFailed ErrorCode = "GATEWAY_REQUEST_FAILED"
	ErrCodeGatewayRejected      ErrorCode = "GATEWAY_REJECTED"

	ErrCodeAmountMismatch     ErrorCode = "AMOUNT_MISMATCH"
	ErrCodePaymentDeclined    ErrorCode = "PAYMENT_DECLINED"
	ErrCodeRiskRejected       ErrorCode = "RISK_REJECTED"
	ErrCodeUnknownOrderStatus ErrorCode = "UNKNOWN_ORDER_STATUS"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewUserInputError reports a request the shopper can only fix by restarting checkout.
func NewUserInputError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUserInput,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewGatewayError reports a transport or protocol failure talking to the payment gateway.
func NewGatewayError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeGateway,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewReconciliationError reports an inconsistency between the gateway result and the local order.
func NewReconciliationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeReconciliation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

var (
	ErrInvalidOrderReference = NewUserInputError("Invalid data (order)", ErrCodeInvalidOrderReference)
	ErrInvalidCustomer       = NewUserInputError("Invalid data (customer)", ErrCodeInvalidCustomer)
	ErrCartNotFound          = NewNotFoundError("Cart not found", ErrCodeCartNotFound)
	ErrCartEmpty             = NewUserInputError("Cart is empty", ErrCodeCartEmpty)
	ErrOrderNotFound         = NewNotFoundError("Order not found", ErrCodeOrderNotFound)

	ErrInvalidToken = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// IsAppError finds the first *AppError in err's chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType reports whether err carries an *AppError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
