package handlers

import (
	"errors"
	"html"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"lenscatalog/internal/apperr"
)

var (
	// validate checks request payloads. Field names in messages use the
	// json tag so they match what the client sent.
	validate = newValidator()

	// textPolicy strips all markup from free-text fields.
	textPolicy = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates s and converts the first failure into a validation error.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("Invalid request")
	}
	return apperr.Validation("%s", fieldMessage(verrs[0]))
}

// fieldMessage renders one validator failure for clients.
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " must have at least " + fe.Param() + " items"
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + fe.Param() + " characters"
		}
		return field + " must have at most " + fe.Param() + " items"
	case "gte":
		return field + " must be " + fe.Param() + " or greater"
	case "lte":
		return field + " must be " + fe.Param() + " or less"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "uuid":
		return field + " must be a valid id"
	default:
		return field + " is invalid"
	}
}

// sanitize strips markup and surrounding whitespace from a text field.
// The policy escapes what it keeps, so entities are decoded back to text.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// sanitizePtr is sanitize for optional fields.
func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitize(*s)
	return &v
}
