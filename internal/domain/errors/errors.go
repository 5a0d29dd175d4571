// Package errors defines the typed failure taxonomy of the marketplace.
// Every business failure is an AppError carrying a Kind; the delivery layer only
// needs the kind and the HTTP code to render a response.
package errors

import (
	"net/http"

	"beatmarket/internal/errors"
)

// Kind classifies an AppError independently of its concrete error code.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindAuthorization     Kind = "authorization"
	KindAuthentication    Kind = "authentication"
	KindStorage           Kind = "storage"
	KindInternal          Kind = "internal"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches on error code so that WithDetails copies still satisfy errors.Is against the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == t.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Kind returns the taxonomy kind
func (e *BaseError) Kind() Kind {
	return e.kind
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		kind:      e.kind,
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Not found
	ErrUserNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"USER_NOT_FOUND", "user not found", "")

	ErrBeatNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"BEAT_NOT_FOUND", "beat not found", "")

	ErrPlatformAccountNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"PLATFORM_ACCOUNT_NOT_FOUND", "platform account not found", "")

	ErrCommentNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"COMMENT_NOT_FOUND", "comment not found", "")

	ErrMediaNotFound = NewBaseError(KindNotFound, http.StatusNotFound,
		"MEDIA_NOT_FOUND", "media object not found", "")

	// Validation
	ErrValidationFailed = NewBaseError(KindValidation, http.StatusBadRequest,
		"VALIDATION_FAILED", "input validation failed", "")

	ErrInvalidRating = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_RATING", "rating must be an integer between 1 and 5", "")

	ErrSelfPurchase = NewBaseError(KindValidation, http.StatusBadRequest,
		"SELF_PURCHASE", "cannot purchase your own beat", "")

	ErrInvalidAmount = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_AMOUNT", "amount must be positive with at most two decimal places", "")

	ErrInvalidPrice = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_PRICE", "price must be non-negative with at most two decimal places", "")

	ErrInvalidPeriod = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_PERIOD", "period must be one of day, month, year", "")

	ErrInvalidShareLink = NewBaseError(KindValidation, http.StatusBadRequest,
		"INVALID_SHARE_LINK", "not a beat share link", "")

	ErrMediaTooLarge = NewBaseError(KindValidation, http.StatusRequestEntityTooLarge,
		"MEDIA_TOO_LARGE", "uploaded file exceeds the size limit", "")

	// Conflict
	ErrAlreadyPurchased = NewBaseError(KindConflict, http.StatusConflict,
		"ALREADY_PURCHASED", "beat already purchased", "")

	ErrBeatHasPurchases = NewBaseError(KindConflict, http.StatusConflict,
		"BEAT_HAS_PURCHASES", "beat has purchases and cannot be deleted", "")

	ErrUserAlreadyExists = NewBaseError(KindConflict, http.StatusConflict,
		"USER_ALREADY_EXISTS", "username already taken", "")

	// Funds
	ErrInsufficientFunds = NewBaseError(KindInsufficientFunds, http.StatusPaymentRequired,
		"INSUFFICIENT_FUNDS", "insufficient balance", "")

	// Authentication / authorization
	ErrInvalidCredentials = NewBaseError(KindAuthentication, http.StatusUnauthorized,
		"INVALID_CREDENTIALS", "invalid username or password", "")

	ErrPasswordHashFailed = NewBaseError(KindInternal, http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED", "password processing failed", "")

	ErrForbidden = NewBaseError(KindAuthorization, http.StatusForbidden,
		"FORBIDDEN", "access denied", "")

	// General
	ErrInternalError = NewBaseError(KindInternal, http.StatusInternalServerError,
		"INTERNAL_ERROR", "internal server error, please try again later", "")
)

// StorageError represents a terminal persistence failure, implementing the AppError interface
type StorageError struct {
	err     error
	details string
}

// NewStorageError creates a storage-related error
func NewStorageError(err error, details string) AppError {
	return &StorageError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return errors.Wrap(e.err, e.details).Error()
}

// Unwrap exposes the driver error
func (e *StorageError) Unwrap() error {
	return e.err
}

// Kind returns KindStorage
func (e *StorageError) Kind() Kind {
	return KindStorage
}

// HTTPCode returns the HTTP status code
func (e *StorageError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *StorageError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *StorageError) Message() string {
	return "storage operation failed"
}

// Details returns detailed error information
func (e *StorageError) Details() string {
	return e.details
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
