// Package validation checks request structs and reports failures as
// validation app errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"servicepulse/backend/internal/apperr"
	"servicepulse/backend/internal/config"
)

var validate *validator.Validate

var apartmentPattern = regexp.MustCompile(`^[0-9]{3}$`)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("apartment", func(fl validator.FieldLevel) bool {
		return apartmentPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), config.Categories)
	})
	_ = validate.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), config.Urgencies)
	})
}

// Struct validates s and returns an *apperr.AppError listing every failure.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Validation failed", err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return apperr.Validation("Validation failed", strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "apartment":
		return fmt.Sprintf("%s must be a 3-digit number", field)
	case "category":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.Join(config.Categories, " "))
	case "urgency":
		return fmt.Sprintf("%s must be one of [%s]", field, strings.Join(config.Urgencies, " "))
	default:
		return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
