package tracking

import "fmt"

// TrackingError represents a tracking-domain error with a stable code
type TrackingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *TrackingError) Error() string {
	return e.Message
}

// NewTrackingError creates a new tracking error
func NewTrackingError(code, message string) *TrackingError {
	return &TrackingError{
		Code:    code,
		Message: message,
	}
}

// Common tracking errors
var (
	ErrUnknownPlatform = NewTrackingError("UNKNOWN_PLATFORM", "Platform is not supported")
	ErrPixelNotLoaded  = NewTrackingError("PIXEL_NOT_LOADED", "Pixel script is not loaded for this platform")
	ErrLoadFailed      = NewTrackingError("LOAD_FAILED", "Pixel script failed to load after all retry attempts")
	ErrLoadInFlight    = NewTrackingError("LOAD_IN_FLIGHT", "Pixel script load has not settled yet")
	ErrConfigNotFound  = NewTrackingError("CONFIG_NOT_FOUND", "No pixel configuration exists for this platform")
)

// ValidationError describes a malformed event payload. Events failing
// validation are dropped before dispatch and never reach an adapter.
type ValidationError struct {
	Event  string
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s event: %s", e.Event, e.Reason)
	}
	return fmt.Sprintf("invalid %s event: field %q %s", e.Event, e.Field, e.Reason)
}

func newValidationError(event, field, reason string) *ValidationError {
	return &ValidationError{Event: event, Field: field, Reason: reason}
}
