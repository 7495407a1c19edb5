package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeIntegrity is used when stored ledger rows break their invariants
	ErrCodeIntegrity = "ERR_INTEGRITY_VIOLATION"
)

// Validation error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidAmount   = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidPhone    = "ERR_INVALID_PHONE_NUMBER"
	ErrCodeInvalidDecision = "ERR_INVALID_DECISION"
	ErrCodeMissingReason   = "ERR_MISSING_REJECTION_REASON"
	ErrCodeUnknownMethod   = "ERR_UNKNOWN_PAYMENT_METHOD"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Input error codes
const (
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	ErrCodeTooLarge    = "ERR_REQUEST_TOO_LARGE"
)

// Dependency error codes. These are retryable.
const (
	ErrCodeStoreUnavailable   = "ERR_STORE_UNAVAILABLE"
	ErrCodeGatewayUnavailable = "ERR_GATEWAY_UNAVAILABLE"
	ErrCodeArchiveUnavailable = "ERR_ARCHIVE_UNAVAILABLE"
)

// Gateway error codes
const (
	ErrCodeGatewayMisconfigured = "ERR_GATEWAY_MISCONFIGURED"
	ErrCodeGatewayRejected      = "ERR_GATEWAY_REJECTED"
	ErrCodeGatewayInvalid       = "ERR_GATEWAY_INVALID_RESPONSE"
	ErrCodeArchiveDisabled      = "ERR_ARCHIVE_DISABLED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:   http.StatusInternalServerError,
	ErrCodeInternal:  http.StatusInternalServerError,
	ErrCodeIntegrity: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidAmount:   http.StatusBadRequest,
	ErrCodeInvalidPhone:    http.StatusBadRequest,
	ErrCodeInvalidDecision: http.StatusBadRequest,
	ErrCodeMissingReason:   http.StatusBadRequest,
	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeUnknownMethod: http.StatusUnprocessableEntity,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Input errors
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,

	// Dependencies -> 503 Service Unavailable
	ErrCodeStoreUnavailable:   http.StatusServiceUnavailable,
	ErrCodeGatewayUnavailable: http.StatusServiceUnavailable,
	ErrCodeArchiveUnavailable: http.StatusServiceUnavailable,

	// Gateway
	ErrCodeGatewayMisconfigured: http.StatusServiceUnavailable,
	ErrCodeGatewayRejected:      http.StatusUnprocessableEntity,
	ErrCodeGatewayInvalid:       http.StatusBadGateway,
	ErrCodeArchiveDisabled:      http.StatusNotImplemented,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

var retryableCodes = map[string]bool{
	ErrCodeStoreUnavailable:   true,
	ErrCodeGatewayUnavailable: true,
	ErrCodeArchiveUnavailable: true,
	ErrCodeRateLimited:        true,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a client may retry the same request later
func IsRetryable(code string) bool {
	return retryableCodes[code]
}

// LegacyErrorCodeMapping maps shared.DomainError codes to API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeBadRequest,
	"INVALID_STATE":        ErrCodeConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConflict,
	"STORE_UNAVAILABLE":    ErrCodeStoreUnavailable,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
