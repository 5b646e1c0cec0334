package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brightpath/attempt-service/internal/answers"
	apperrors "github.com/brightpath/attempt-service/internal/errors"
)

// Validator wraps go-playground struct validation with the service's custom
// rules and maps failures to user-facing ValidationErrors.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	validate.RegisterValidation("interaction_kind", validateInteractionKind)

	// Report json field names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate}
}

func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if mapped := apperrors.ToValidationErrors(err); len(mapped) > 0 {
			return mapped
		}
		return err
	}
	return nil
}

func validateInteractionKind(fl validator.FieldLevel) bool {
	return answers.InteractionKind(fl.Field().String()).IsKnown()
}
