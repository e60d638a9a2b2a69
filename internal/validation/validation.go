// Package validation checks form input before anything reaches the remote
// API. Struct fields carry their rules in `validate` tags and the message
// shown to the user in a `msg` tag.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Errors maps a field's json name to its user-facing message.
type Errors map[string]string

// FieldError is one rejected field, in struct order.
type FieldError struct {
	Field   string
	Message string
}

// Check validates s and returns the rejected fields in declaration order,
// or nil when s is valid.
func Check(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make([]FieldError, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		if seen[fe.Field()] {
			continue
		}
		seen[fe.Field()] = true

		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

func ToMap(errs []FieldError) Errors {
	if len(errs) == 0 {
		return nil
	}
	m := make(Errors, len(errs))
	for _, e := range errs {
		m[e.Field] = e.Message
	}
	return m
}
