package shows

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dccc/clubhouse/internal/errs"
)

var scriptPatterns = []string{"<script", "javascript:", "onerror=", "onload=", "<iframe"}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("no_script", func(fl validator.FieldLevel) bool {
		value := strings.ToLower(fl.Field().String())
		for _, p := range scriptPatterns {
			if strings.Contains(value, p) {
				return false
			}
		}
		return true
	})
	return v
}

// validationError turns validator output into a single errs validation error
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Validation("invalid request: %v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errs.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "url":
		return fe.Field() + " must be a valid URL"
	case "no_script":
		return fe.Field() + " must not contain markup"
	default:
		return fe.Field() + " is invalid"
	}
}
