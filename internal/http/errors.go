package http

import (
	"errors"

	"github.com/fyrsmithlabs/redactd/internal/feedback"
	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

// validationErrors are engine errors caused by bad client input.
var validationErrors = []error{
	pattern.ErrEmptyID,
	pattern.ErrEmptyCategory,
	pattern.ErrInvalidType,
	pattern.ErrNoStrategies,
	pattern.ErrInvalidThreshold,
	pattern.ErrNegativeRefine,
	feedback.ErrEmptyPatternID,
	feedback.ErrEmptyMatchedText,
	feedback.ErrInvalidType,
	feedback.ErrInvalidReason,
	feedback.ErrReasonRequired,
	feedback.ErrReasonNotAllowed,
	feedback.ErrInvalidConfidence,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
