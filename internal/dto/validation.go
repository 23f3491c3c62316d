package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/promptcoach-api/pkg/ai"
)

// RegisterValidators installs the custom tags used by request DTOs.
func RegisterValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("model_id", func(fl validator.FieldLevel) bool {
		_, _, err := ai.ParseModelID(fl.Field().String())
		return err == nil
	})
}
