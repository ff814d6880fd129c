package nps

import (
	"fmt"
	"strings"
)

// InvalidRatingError reports a rating outside the valid range. It carries the
// respondent id the rating arrived with so callers can point at the offending
// record.
type InvalidRatingError struct {
	RespondentID any
	Rating       Rating
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("nps: invalid rating %d for respondent %v (valid range %d-%d)",
		e.Rating, e.RespondentID, MinRating, MaxRating)
}

// ValidationErrors is the ordered list of failures collected by a multi-item
// operation. Order matches input order. A nil ValidationErrors means every
// item was accepted.
type ValidationErrors []*InvalidRatingError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "nps: no validation errors"
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("nps: %d invalid response(s): %s", len(ve), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (ve ValidationErrors) Unwrap() []error {
	errs := make([]error, len(ve))
	for i, e := range ve {
		errs[i] = e
	}
	return errs
}

// orNil collapses an empty list to a nil error value.
func (ve ValidationErrors) orNil() ValidationErrors {
	if len(ve) == 0 {
		return nil
	}
	return ve
}
