package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"routecast/internal/types"
)

// Validator wraps go-playground/validator and translates validation failures
// into structured AppErrors suitable for API responses.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator. Struct fields are reported by their
// json tag name so error details match the wire format clients sent.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// ValidateStruct validates the given struct against its validate tags.
// It returns nil on success. On failure it returns a *types.AppError:
//   - "validation_missing_required_field" when a required field is absent
//   - "validation_invalid_body" for any other constraint violation
//
// The error Details map lists each failing field and the violated constraint.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError: the input was not a struct.
		return types.NewAppError(
			types.ErrCodeValidationInvalidBody,
			"request could not be validated",
			err,
		)
	}

	details := make(map[string]any, len(validationErrs))
	allRequired := true
	for _, fe := range validationErrs {
		details[fe.Field()] = fe.Tag()
		if fe.Tag() != "required" {
			allRequired = false
		}
	}

	code := types.ErrCodeValidationInvalidBody
	message := "request body failed validation"
	if allRequired {
		code = types.ErrCodeValidationMissingField
		message = "missing required field"
	}

	return types.NewAppErrorWithDetails(code, message, err, details)
}
