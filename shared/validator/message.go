package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

// templates maps a validation tag to a client message. %f is the json field
// name and %p the tag parameter.
var templates = map[string]string{
	"required":    "%f is required",
	"empty":       "%f must not be set",
	"gte":         "%f must be greater than or equal to %p",
	"lte":         "%f must be less than or equal to %p",
	"min":         "%f must be at least %p",
	"max":         "%f must be at most %p",
	"oneof":       "%f must be one of [%p]",
	"email":       "%f must be a valid email address",
	"uuid":        "%f must be a valid UUID",
	"date":        "%f must use the YYYY-MM-DD format",
	"clock":       "%f must use the HH:MM format",
	"mimetypes":   "%f must be one of the content types [%p]",
	"maxfilesize": "%f must not exceed %p MB",
}

// message describes the first field error that has a template, falling back
// to the validator's own text.
func message(err error) string {
	var fieldErrs val.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	for _, fieldErr := range fieldErrs {
		tmpl, ok := templates[fieldErr.Tag()]
		if !ok {
			continue
		}

		return strings.NewReplacer("%f", fieldErr.Field(), "%p", fieldErr.Param()).Replace(tmpl)
	}

	return fieldErrs.Error()
}
