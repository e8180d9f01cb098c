// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has minimal external
// dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidRange    = errors.New("invalid range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Precondition errors
	ErrMissingPrerequisite = errors.New("prerequisite not met")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "preference", "matching", "roommate"
	Op      string // Operation that failed, e.g., "Validate", "Rank"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Preference domain errors
var (
	ErrPreferencesNotFound  = NewDomainError("preference", "Find", ErrNotFound, "preferences not found")
	ErrInvalidBudgetRange   = NewDomainError("preference", "Validate", ErrInvalidRange, "budget_min must not exceed budget_max")
	ErrInvalidCleanliness   = NewDomainError("preference", "Validate", ErrValueOutOfRange, "cleanliness level must be 1-5")
	ErrInvalidWFHDays       = NewDomainError("preference", "Validate", ErrValueOutOfRange, "work from home days must be 0-7")
	ErrInvalidWeight        = NewDomainError("preference", "Validate", ErrValueOutOfRange, "question weight must be 1-5")
	ErrUnknownDimension     = NewDomainError("preference", "Validate", ErrInvalidInput, "unknown question dimension")
	ErrUnknownEnumValue     = NewDomainError("preference", "Validate", ErrInvalidInput, "unknown enumeration value")
)

// Matching domain errors
var (
	ErrRequesterNoPreferences = NewDomainError("matching", "Rank", ErrMissingPrerequisite, "requester has no recorded preferences")
	ErrInvalidLimit           = NewDomainError("matching", "Rank", ErrInvalidInput, "result limit must be positive")
)

// Roommate domain errors
var (
	ErrProposalNotFound   = NewDomainError("roommate", "Find", ErrNotFound, "roommate proposal not found")
	ErrProposalFinalized  = NewDomainError("roommate", "Respond", ErrInvalidState, "proposal already finalized")
	ErrProposalExpired    = NewDomainError("roommate", "Respond", ErrExpired, "proposal expired")
	ErrNotParticipant     = NewDomainError("roommate", "Respond", ErrForbidden, "user is not part of this proposal")
	ErrSelfProposal       = NewDomainError("roommate", "Create", ErrInvalidInput, "cannot propose to yourself")
	ErrProposalDuplicate  = NewDomainError("roommate", "Create", ErrAlreadyExists, "open proposal between these users already exists")
)
