package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when a request body fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when a request body exceeds the limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Pixel error codes
const (
	// ErrCodePixelNotLoaded is used when firing at a platform whose script
	// has not reached the loaded state
	ErrCodePixelNotLoaded = "ERR_PIXEL_NOT_LOADED"
	// ErrCodeUpstreamFailed is used when a vendor script or endpoint
	// failed after all retry attempts
	ErrCodeUpstreamFailed = "ERR_UPSTREAM_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodePixelNotLoaded: http.StatusConflict,
	ErrCodeUpstreamFailed: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps tracking-domain error codes to the
// standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"UNKNOWN_PLATFORM": ErrCodeNotFound,
	"PIXEL_NOT_LOADED": ErrCodePixelNotLoaded,
	"LOAD_FAILED":      ErrCodeUpstreamFailed,
	"LOAD_IN_FLIGHT":   ErrCodeConflict,
	"CONFIG_NOT_FOUND": ErrCodeNotFound,
}

// NormalizeErrorCode converts a domain error code to the standardized
// format. If the code is already in the new format or unknown, returns
// it as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
