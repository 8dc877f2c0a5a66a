package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, caller-visible category of a failure.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindUnavailable     Kind = "unavailable"
	KindAuthorization   Kind = "authorization"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthenticated ErrorCode = "E1001"
	ErrCodeInvalidToken    ErrorCode = "E1004"
	ErrCodeNotAuthorized   ErrorCode = "E1005"

	// Validation errors (2xxx)
	ErrCodeValidation    ErrorCode = "E2001"
	ErrCodeInvalidInput  ErrorCode = "E2002"
	ErrCodeMissingField  ErrorCode = "E2003"
	ErrCodeInvalidEmail  ErrorCode = "E2005"
	ErrCodeInvalidPhone  ErrorCode = "E2006"
	ErrCodeTokenMismatch ErrorCode = "E2008"

	// Resource errors (3xxx)
	ErrCodeNotFound           ErrorCode = "E3001"
	ErrCodeConflict           ErrorCode = "E3003"
	ErrCodeTicketTypeNotFound ErrorCode = "E3005"
	ErrCodeBookingNotFound    ErrorCode = "E3006"
	ErrCodeRequestInFlight    ErrorCode = "E3007"

	// Availability errors (4xxx)
	ErrCodeEventUnavailable      ErrorCode = "E4003"
	ErrCodeInsufficientInventory ErrorCode = "E4004"
	ErrCodeSalesClosed           ErrorCode = "E4005"
	ErrCodeInvalidState          ErrorCode = "E4002"
	ErrCodeHighDemand            ErrorCode = "E4010"

	// Internal errors (9xxx)
	ErrCodeInternal ErrorCode = "E9001"
	ErrCodeDatabase ErrorCode = "E9002"
)

// AppError represents an application error with context.
// Cause is kept for logs and never serialized.
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Kind       Kind                   `json:"kind"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches two AppErrors by code so callers can use errors.Is against a
// freshly built sentinel such as BookingNotFound().
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithField adds a field to the error
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ToJSON converts error to JSON response format
func (e *AppError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"status":  "error",
		"code":    e.Code,
		"kind":    e.Kind,
		"message": e.Message,
	}
	if len(e.Fields) > 0 {
		result["fields"] = e.Fields
	}
	return result
}

// Body renders the JSON body used by the lambda handlers.
func (e *AppError) Body() string {
	data, err := json.Marshal(e.ToJSON())
	if err != nil {
		return `{"status":"error","message":"internal error"}`
	}
	return string(data)
}

// ============================================================
// Error constructors
// ============================================================

// New creates a new AppError
func New(kind Kind, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: statusFor(kind),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, kind Kind, code ErrorCode, message string) *AppError {
	return New(kind, code, message).WithCause(err)
}

// Validation errors
func ValidationError(message string) *AppError {
	return New(KindValidation, ErrCodeValidation, message)
}

func InvalidInput(field, message string) *AppError {
	return New(KindValidation, ErrCodeInvalidInput, message).WithField("field", field)
}

func MissingField(field string) *AppError {
	return New(KindValidation, ErrCodeMissingField, fmt.Sprintf("%s is required", field)).WithField("field", field)
}

func InvalidEmail() *AppError {
	return New(KindValidation, ErrCodeInvalidEmail, "Attendee email is not valid").WithField("field", "attendeeEmail")
}

func InvalidPhone() *AppError {
	return New(KindValidation, ErrCodeInvalidPhone, "Attendee phone is not valid").WithField("field", "attendeePhone")
}

func TokenMismatch() *AppError {
	return New(KindValidation, ErrCodeTokenMismatch, "Check-in token does not match this booking")
}

// Identity and authorization errors
func Unauthenticated(message string) *AppError {
	return New(KindUnauthenticated, ErrCodeUnauthenticated, message)
}

func InvalidToken() *AppError {
	return New(KindUnauthenticated, ErrCodeInvalidToken, "Invalid or expired credential")
}

func NotAuthorized(message string) *AppError {
	return New(KindAuthorization, ErrCodeNotAuthorized, message)
}

// Resource errors
func NotFound(resource string) *AppError {
	return New(KindNotFound, ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func TicketTypeNotFound() *AppError {
	return New(KindNotFound, ErrCodeTicketTypeNotFound, "Ticket type not found")
}

func BookingNotFound() *AppError {
	return New(KindNotFound, ErrCodeBookingNotFound, "Booking not found")
}

// Conflict is internal: the booking engine retries it and never surfaces it as-is.
func Conflict(message string) *AppError {
	return New(KindConflict, ErrCodeConflict, message)
}

func RequestInFlight() *AppError {
	return New(KindConflict, ErrCodeRequestInFlight, "A booking with this idempotency key is still being processed")
}

// Availability errors
func EventUnavailable() *AppError {
	return New(KindUnavailable, ErrCodeEventUnavailable, "Event not available")
}

func InsufficientInventory(available int) *AppError {
	return New(KindUnavailable, ErrCodeInsufficientInventory, fmt.Sprintf("Only %d tickets available", available)).
		WithField("available", available)
}

func SalesClosed() *AppError {
	return New(KindUnavailable, ErrCodeSalesClosed, "Ticket sales are not open")
}

func InvalidState(message string) *AppError {
	return New(KindUnavailable, ErrCodeInvalidState, message)
}

func HighDemand() *AppError {
	return New(KindUnavailable, ErrCodeHighDemand, "Tickets are in high demand, please try again")
}

// Internal errors
func Internal(message string) *AppError {
	return New(KindInternal, ErrCodeInternal, message)
}

func DatabaseError(err error) *AppError {
	return Wrap(err, KindInternal, ErrCodeDatabase, "Internal storage error")
}

// ============================================================
// Helper functions
// ============================================================

func statusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindUnavailable:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError converts an error to AppError if possible, looking through wraps.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}

// ToAppError converts any error to AppError. Unknown errors become a generic
// internal error so storage details never reach the caller.
func ToAppError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Wrap(err, KindInternal, ErrCodeInternal, "Internal server error")
}
