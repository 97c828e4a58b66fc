package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their json name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FormatValidationError turns validator output into per-field messages.
func FormatValidationError(err error) map[string]any {
	details := make(map[string]any)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["non_field_errors"] = []string{err.Error()}
		return details
	}
	for _, fe := range verrs {
		field := fe.Field()
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required."
		case "max":
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case "min":
			msg = fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		case "oneof":
			msg = fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
		case "uuid":
			msg = "Must be a valid UUID."
		default:
			msg = fmt.Sprintf("%s is invalid", field)
		}
		details[field] = []string{msg}
	}
	return details
}
