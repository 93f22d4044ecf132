package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
)

// NewValidator returns a validator with the form tags registered:
// notblank rejects whitespace-only strings, selected rejects the empty value and the
// placeholder option, option=<set> checks membership in dto.FormOptionSets.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	registerFormValidations(validate)
	return validate
}

func registerFormValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("selected", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		return value != "" && value != dto.PlaceholderOption
	}, true)
	_ = validate.RegisterValidation("option", func(fl validator.FieldLevel) bool {
		allowed, ok := dto.FormOptionSets[fl.Param()]
		if !ok {
			return false
		}
		value := fl.Field().String()
		for _, candidate := range allowed {
			if value == candidate {
				return true
			}
		}
		return false
	})
}

func validationMessage(err error) string {
	fields := invalidFields(err)
	if len(fields) == 0 {
		return "invalid payload"
	}
	return "invalid or missing fields: " + strings.Join(fields, ", ")
}

// invalidFields lists the failing fields by their json names.
func invalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
