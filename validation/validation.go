// Package validation checks form input with struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error lists the offending fields keyed by their form name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, or "".
func (e *Error) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// New builds an Error for a single field.
func New(field, message string) *Error {
	return &Error{Fields: map[string]string{field: message}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username", isUsername); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns an *Error describing every failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "username":
		return "Enter a valid username. This value may contain only lowercase letters, numbers, and @/./+/-/_ characters."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	default:
		return "Enter a valid value."
	}
}

// isUsername accepts lowercase ASCII letters, digits and @.+-_ only.
func isUsername(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}
