package model

import (
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	OK      bool           `json:"ok"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details []FieldProblem `json:"details,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeInvalidPayload     = "INVALID_PAYLOAD"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeUnknownAction      = "UNKNOWN_ACTION"
	ErrCodeEquipmentNotFound  = "EQUIPMENT_NOT_FOUND"
	ErrCodeCategoryNotFound   = "CATEGORY_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidIncrement   = "INVALID_INCREMENT"
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeInvalidCoupon      = "INVALID_COUPON"
	ErrCodeCheckoutIncomplete = "CHECKOUT_INCOMPLETE"
	ErrCodeDateUnavailable    = "DATE_UNAVAILABLE"
	ErrCodeAnnualNotAllowed   = "ANNUAL_NOT_ALLOWED"
	ErrCodeSessionRequired    = "SESSION_REQUIRED"
	ErrCodeBookingInProgress  = "BOOKING_IN_PROGRESS"
	ErrCodeInvalidSettings    = "INVALID_SETTINGS"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnknownAction      = NewDomainError(ErrCodeUnknownAction, "Unknown action")
	ErrEquipmentNotFound  = NewDomainError(ErrCodeEquipmentNotFound, "One or more equipment items not found")
	ErrCategoryNotFound   = NewDomainError(ErrCodeCategoryNotFound, "Category not found")
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be zero or greater and within stock")
	ErrInvalidIncrement   = NewDomainError(ErrCodeInvalidIncrement, "Quantity must be a multiple of the item's order increment")
	ErrInvalidDate        = NewDomainError(ErrCodeInvalidDate, "Dates must use the YYYY-MM-DD format")
	ErrInvalidCoupon      = NewDomainError(ErrCodeInvalidCoupon, "Coupon code and a non-negative amount are required")
	ErrCheckoutIncomplete = NewDomainError(ErrCodeCheckoutIncomplete, "Checkout is incomplete")
	ErrDateUnavailable    = NewDomainError(ErrCodeDateUnavailable, "Not enough inventory for the selected date")
	ErrAnnualNotAllowed   = NewDomainError(ErrCodeAnnualNotAllowed, "Annual plans are available to members only")
	ErrSessionRequired    = NewDomainError(ErrCodeSessionRequired, "A session ID is required")
	ErrBookingInProgress  = NewDomainError(ErrCodeBookingInProgress, "A booking for this session is already being placed")
	ErrInvalidSettings    = NewDomainError(ErrCodeInvalidSettings, "Settings values must not be negative")
)

// FieldProblem describes one invalid field of a request.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found while validating checkout
// state. It unwraps to ErrCheckoutIncomplete.
type ValidationError struct {
	Problems []FieldProblem
}

// Add records a problem for field.
func (e *ValidationError) Add(field, message string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: message})
}

// HasProblems reports whether any problem was recorded.
func (e *ValidationError) HasProblems() bool {
	return len(e.Problems) > 0
}

// OrNil returns e when it holds problems and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasProblems() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + ": " + p.Message
	}
	return "checkout is incomplete: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrCheckoutIncomplete
}
