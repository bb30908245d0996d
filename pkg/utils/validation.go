package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError("", err)
	}
	return nil
}

// ValidateVar validates a single value against a tag built at runtime, used
// for limits that come from configuration rather than struct tags.
func ValidateVar(field string, v interface{}, tag string) error {
	if err := validate.Var(v, tag); err != nil {
		return formatValidationError(field, err)
	}
	return nil
}

func formatValidationError(field string, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, formatFieldError(field, e))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return err
}

func formatFieldError(field string, e validator.FieldError) string {
	name := strings.ToLower(e.Field())
	if field != "" {
		name = field + e.Field()
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at least %s items", name, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", name, e.Param())
	case "max":
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at most %s items", name, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, e.Param())
	case "dive":
		return fmt.Sprintf("%s contains invalid values", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
