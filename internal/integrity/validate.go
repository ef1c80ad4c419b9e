package integrity

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
)

// validate is shared by every entity. Initialized in init() with custom validators.
var validate *validator.Validate

var phonePattern = regexp.MustCompile(`^\+?[0-9]{4,15}$`)

func init() {
	validate = validator.New()

	// Report fields by their JSON names so errors match the wire form.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("enum", validateEnum)
	_ = validate.RegisterValidation("phone", validatePhone)
}

func validateEnum(fl validator.FieldLevel) bool {
	e, ok := fl.Field().Interface().(model.Enum)
	return ok && e.Valid()
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(NormalizePhone(fl.Field().String()))
}

// Validate checks v against its struct tags. The first failing field is
// returned as an apperr validation error on entity.
func Validate(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	fe := verrs[0]
	return apperr.Validation(entity, fe.Field(), reason(fe))
}

// reason renders a validator failure as a short caller-facing phrase.
func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "enum":
		return fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value()))
	case "phone":
		return "must be a phone number"
	case "email":
		return "must be an email address"
	case "hexadecimal":
		return "must be hexadecimal"
	case "url":
		return "must be a URL"
	case "datetime":
		return "must be HH:MM"
	case "nefield":
		return "must differ from " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must have at least " + fe.Param() + " items"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
