package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All handlers MUST use these constants instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidParam ErrorCode = "validation_invalid_parameter"
	ErrCodeValidationInvalidDate  ErrorCode = "validation_invalid_date"
	ErrCodeValidationInvalidUnit  ErrorCode = "validation_invalid_unit"

	// Not Found (404)
	ErrCodeNotFoundWeatherData ErrorCode = "not_found_weather_data"
	ErrCodeNotFoundCity        ErrorCode = "not_found_city"

	// Conflict (409). The city-name conflict is resolved internally by the
	// registry's re-read path and is never surfaced to API clients.
	ErrCodeConflictCityExists ErrorCode = "conflict_city_exists"

	// Upstream provider (502, except rejected which mirrors the provider)
	ErrCodeProviderUnavailable ErrorCode = "upstream_provider_unavailable"
	ErrCodeProviderRejected    ErrorCode = "upstream_provider_rejected"
	ErrCodeProviderMalformed   ErrorCode = "upstream_provider_malformed"

	// Internal (500)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// Detail keys used by ErrCodeProviderRejected to preserve the upstream
// response for the API boundary.
const (
	DetailProviderStatus = "provider_status"
	DetailProviderBody   = "provider_body"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the API layer to translate AppErrors into HTTP responses.
// Returns 500 for unrecognized error codes as a safe default.
//
// Note: ErrCodeProviderRejected maps to 502 here; AppError.HTTPStatus
// overrides it with the provider's own status when one is attached via
// Details.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound // 404
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict // 409
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	case strings.HasPrefix(s, "internal_"):
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type used throughout the service.
// All domain and handler errors should be expressed as AppError to enable
// consistent error formatting, HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error. For provider
// rejections the upstream status attached in Details takes precedence, so
// a provider 404 surfaces as a 404 rather than a generic 502.
func (e *AppError) HTTPStatus() int {
	if e.Code == ErrCodeProviderRejected {
		if status, ok := e.Details[DetailProviderStatus].(int); ok && status >= 400 && status <= 599 {
			return status
		}
	}
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// NewProviderRejected builds the error returned when the weather provider
// answers with a non-success HTTP status. Status and body are preserved
// verbatim so the API boundary can mirror them to the caller.
func NewProviderRejected(status int, body string) *AppError {
	return &AppError{
		Code:    ErrCodeProviderRejected,
		Message: fmt.Sprintf("weather provider rejected the request with status %d", status),
		Details: map[string]any{
			DetailProviderStatus: status,
			DetailProviderBody:   body,
		},
	}
}
