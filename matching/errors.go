package matching

import (
	"errors"
	"fmt"
)

// Invalid-request errors. Each one names the violated constraint so it can
// be shown to the user as is.
var (
	ErrMissingDates             = errors.New("start date and end date are required")
	ErrInvalidDateRange         = errors.New("start date must not be after end date")
	ErrMissingGrade             = errors.New("employee grade is required")
	ErrFillPercentageOutOfRange = errors.New("fill percentage must be between 1 and 100")
	ErrUnknownGrade             = errors.New("unknown employee grade")
)

// UnknownGradeError carries the raw and normalized code of an employee grade
// that is missing from the grade table.
type UnknownGradeError struct {
	Raw        string
	Normalized string
}

func (e *UnknownGradeError) Error() string {
	return fmt.Sprintf("unknown employee grade: %s (normalized: %s)", e.Raw, e.Normalized)
}

func (e *UnknownGradeError) Unwrap() error {
	return ErrUnknownGrade
}

// IsInvalidRequest returns true if the request was rejected before any
// position was evaluated.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrMissingDates) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrMissingGrade) ||
		errors.Is(err, ErrFillPercentageOutOfRange) ||
		errors.Is(err, ErrUnknownGrade)
}
