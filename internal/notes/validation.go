package notes

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyTitle   = errors.New("note title empty")
	ErrTitleTooLong = errors.New("note title longer than 255 characters")
)

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateNote maps struct tag failures to the package errors.
func validateNote(v *validator.Validate, note *Note) error {
	err := v.Struct(note)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		if fe.Field() != "Title" {
			continue
		}
		switch fe.Tag() {
		case "required":
			return ErrEmptyTitle
		case "max":
			return ErrTitleTooLong
		}
	}
	return fieldErrs
}
