// Package validation checks request payloads with go-playground/validator
// and turns failures into field-level API errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json names so field errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRgx.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates v. It returns nil or a 400 *errs.HTTPError listing every
// failing field.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.NewBadRequestError(err.Error())
	}
	return errs.NewBadRequestError("Validation failed", FieldErrors(verrs)...)
}

// Var validates a single value against a tag expression.
func Var(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

// FieldErrors converts validator errors into client-readable messages.
func FieldErrors(verrs validator.ValidationErrors) []errs.FieldError {
	fieldErrors := make([]errs.FieldError, 0, len(verrs))
	for _, err := range verrs {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"
		case "min", "gte":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else if err.Type().Kind() == reflect.Slice {
				msg = fmt.Sprintf("must have at least %s items", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}
		case "max", "lte":
			if err.Type().Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else if err.Type().Kind() == reflect.Slice {
				msg = fmt.Sprintf("must not have more than %s items", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())
		case "uuid", "uuid4":
			msg = "must be a valid UUID"
		case "slug":
			msg = "must be lowercase letters, digits and dashes"
		case "ne":
			msg = fmt.Sprintf("must not be %s", err.Param())
		case "dive":
			msg = "some items are invalid"
		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s:%s", err.Tag(), err.Param())
			} else {
				msg = err.Tag()
			}
		}

		fieldErrors = append(fieldErrors, errs.FieldError{
			Field: fieldPath(err.Namespace()),
			Error: msg,
		})
	}
	return fieldErrors
}

// fieldPath strips the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
