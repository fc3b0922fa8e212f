// Package validation checks request payloads with struct tags and turns
// failures into short client-facing messages keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
}

var messages = map[string]string{
	"required": "is required",
	"max":      "must be at most %s characters",
	"min":      "must be at least %s characters",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"oneof":    "must be one of %s",
	"alphanum": "must contain only letters and digits",
	"datetime": "must be a date formatted as %s",
}

// Error is a failed validation. Message describes the first failing field.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Struct validates s and returns *Error on failure.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		msg := fe.Field() + " " + describe(fe)
		if _, ok := out.Fields[fe.Field()]; !ok {
			out.Fields[fe.Field()] = msg
		}
		if out.Message == "" {
			out.Message = msg
		}
	}
	return out
}

// Invalid builds an *Error for a single field outside of tag validation.
func Invalid(field, message string) error {
	msg := field + " " + message
	return &Error{Message: msg, Fields: map[string]string{field: msg}}
}

func describe(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	param := fe.Param()
	if fe.Tag() == "oneof" {
		param = strings.Join(strings.Fields(param), ", ")
	}
	if fe.Tag() == "datetime" {
		param = "YYYY-MM-DD"
	}
	if fe.Kind() != reflect.String && (fe.Tag() == "max" || fe.Tag() == "min") {
		return strings.Replace(strings.TrimSuffix(tmpl, " characters"), "%s", param, 1)
	}
	return strings.Replace(tmpl, "%s", param, 1)
}
