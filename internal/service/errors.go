package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/slug-swap-api/internal/models"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTitle is returned when another category already uses the title
	ErrDuplicateTitle = errors.New("title already in use")

	// ErrInvalidInput is wrapped by InputError
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat is returned for unknown export formats
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// InputError carries the field errors of a rejected payload
type InputError struct {
	Errors []models.ValidationError
}

func (e *InputError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(errs []models.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &InputError{Errors: errs}
}
