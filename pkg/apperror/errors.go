package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "The password you entered is incorrect", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Bearer token is invalid", http.StatusUnauthorized)
}

// ---- Seller Registry (SELLER) ----

func ErrSellerNotFound(id string) *AppError {
	return New("SELLER_001", fmt.Sprintf("A seller with the id %s doesn't exist", id), http.StatusNotFound)
}

func ErrSellerExists(id string) *AppError {
	return New("SELLER_002", fmt.Sprintf("A seller with the id %s already exists", id), http.StatusConflict)
}

func ErrNonZeroBalance() *AppError {
	return New("SELLER_003", "Seller balance is non-null. May not delete", http.StatusForbidden)
}

func ErrInvalidField(field string) *AppError {
	return New("SELLER_004", fmt.Sprintf("Unknown or immutable field: %s", field), http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a client validation error for malformed payloads.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
