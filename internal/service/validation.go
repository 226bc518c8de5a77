package service

import (
	"errors"
	"presence-tracker/internal/models"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateRequest переводит первую ошибку validator в ValidationError
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &models.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: "failed '" + fe.Tag() + "' check",
		}
	}
	return &models.ValidationError{Field: "request", Message: err.Error()}
}
