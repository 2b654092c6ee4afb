/*
errors.go - Centralized error types for the staff-plan data model

ERROR CATEGORIES:
  1. Lookup errors - missing grade values / positions
  2. Conflict errors - duplicate or in-use grade codes
  3. Validation errors - malformed periods

USAGE:
    if errors.Is(err, position.ErrGradeInUse) {
        // 409
    }

SEE ALSO:
  - ../matching/errors.go: Request validation errors of the finder
*/
package position

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrGradeValueNotFound is returned when a grade value id or code is unknown.
	ErrGradeValueNotFound = errors.New("grade value not found")

	// ErrDuplicateGradeCode is returned when a normalized grade code already exists.
	ErrDuplicateGradeCode = errors.New("grade code already exists")

	// ErrGradeInUse is returned when deleting a grade still referenced by positions.
	ErrGradeInUse = errors.New("grade value is in use")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// GradeConflictError names the grade code behind a duplicate or in-use conflict.
type GradeConflictError struct {
	GradeCode string
	Err       error
}

func (e *GradeConflictError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.GradeCode)
}

func (e *GradeConflictError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGradeValueNotFound)
}

// IsConflict returns true if the error is a uniqueness or in-use conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateGradeCode) || errors.Is(err, ErrGradeInUse)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod)
}
