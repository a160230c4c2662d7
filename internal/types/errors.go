package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode identifies a failure class. The prefix (validation_, not_found_,
// upstream_, internal_) carries the HTTP status, so adding a code never needs
// a new mapping entry.
type ErrorCode string

// Handlers and services use these constants, never ad-hoc strings.
const (
	// Validation (400)
	ErrCodeValidationInvalidLat         ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon         ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationMissingField       ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidBody        ErrorCode = "validation_invalid_body"
	ErrCodeValidationInvalidVehicle     ErrorCode = "validation_invalid_vehicle_type"
	ErrCodeValidationInvalidDeparture   ErrorCode = "validation_invalid_departure_time"
	ErrCodeValidationUnresolvedLocation ErrorCode = "validation_unresolvable_location"
	ErrCodeValidationNoDrivableRoute    ErrorCode = "validation_no_drivable_route"

	// Not Found (404)
	ErrCodeNotFoundRoute    ErrorCode = "not_found_route"
	ErrCodeNotFoundFavorite ErrorCode = "not_found_favorite"
	ErrCodeNotFoundLocation ErrorCode = "not_found_location"

	// Internal (500)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalEmptyRoute ErrorCode = "internal_empty_route"

	// Upstream (502)
	ErrCodeUpstreamGeocoder    ErrorCode = "upstream_geocoder_unavailable"
	ErrCodeUpstreamRouting     ErrorCode = "upstream_routing_unavailable"
	ErrCodeUpstreamWeather     ErrorCode = "upstream_weather_unavailable"
	ErrCodeUpstreamPlaces      ErrorCode = "upstream_places_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
)

// HTTPStatus derives the response status from the code prefix. Unknown
// prefixes fall back to 500.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the one error type that crosses package boundaries. Message is
// client-safe; Err holds the wrapped cause and is never serialized.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status implied by the error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy with the given details merged over the existing
// ones. The receiver is not mutated; AppErrors are shared freely.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{Code: e.Code, Message: e.Message, Err: e.Err, Details: merged}
}

// NewAppError is the standard constructor. err may be nil when there is no
// underlying cause.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewAppErrorWithDetails attaches structured details for the client, such as
// the offending field of a validation failure.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{Code: code, Message: message, Err: err, Details: details}
}
