package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid access code or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidAdminKey    = errors.New("invalid admin key")

	ErrOrganizationNotFound = errors.New("organization not found")
	ErrAssessmentNotFound   = errors.New("assessment not found")
	ErrCatalogNotFound      = errors.New("questionnaire not found")

	ErrNotEligible      = errors.New("a completed level-1 assessment is required")
	ErrAlreadyCompleted = errors.New("assessment already completed")
	ErrNotCompleted     = errors.New("assessment not completed yet")
	ErrNotRegenerable   = errors.New("only completed assessments can be regenerated")

	ErrValidation = errors.New("invalid request")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
