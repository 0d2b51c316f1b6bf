// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Infrastructure errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "tournament", "challenge", "leaderboard"
	Op      string // Operation that failed, e.g., "Start", "RecordResult"
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

// Tournament domain errors
var (
	ErrTournamentNotFound     = NewDomainError("tournament", "Find", ErrNotFound, "tournament not found")
	ErrTournamentNotPlanned   = NewDomainError("tournament", "CheckStatus", ErrStateTransition, "tournament is not planned")
	ErrTournamentNotActive    = NewDomainError("tournament", "CheckStatus", ErrStateTransition, "tournament is not active")
	ErrTournamentFinished     = NewDomainError("tournament", "CheckStatus", ErrInvalidState, "tournament is already finished")
	ErrInvalidTournamentType  = NewDomainError("tournament", "Validate", ErrInvalidInput, "unknown tournament type")
	ErrInvalidTournamentName  = NewDomainError("tournament", "Validate", ErrEmptyValue, "tournament name is required")
	ErrInvalidDateRange       = NewDomainError("tournament", "Validate", ErrValueOutOfRange, "end date must not be before start date")
	ErrInvalidTournamentState = NewDomainError("tournament", "Validate", ErrInvalidInput, "unknown tournament status")
	ErrParticipantNotEnrolled = NewDomainError("tournament", "CheckRoster", ErrInvalidState, "participant is not registered in the tournament")
)

// Challenge domain errors
var (
	ErrChallengeNotFound     = NewDomainError("challenge", "Find", ErrNotFound, "challenge not found")
	ErrInvalidChallengeType  = NewDomainError("challenge", "Validate", ErrInvalidInput, "unknown challenge type")
	ErrInvalidChallengeName  = NewDomainError("challenge", "Validate", ErrEmptyValue, "challenge name is required")
	ErrInvalidMaxPoints      = NewDomainError("challenge", "Validate", ErrValueOutOfRange, "max points must be positive")
	ErrMissingTournamentLink = NewDomainError("challenge", "Validate", ErrInvalidID, "challenge must reference a tournament")
)

// Identity errors
var (
	ErrIDAlreadyAssigned = NewDomainError("shared", "AssignID", ErrInvalidState, "identity is already assigned")
	ErrInvalidEntityID   = NewDomainError("shared", "NewID", ErrInvalidID, "entity id must be positive")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsPrecondition reports whether the error is a rejected state precondition
// (wrong status for the requested operation).
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrStateTransition) || errors.Is(err, ErrInvalidState)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
