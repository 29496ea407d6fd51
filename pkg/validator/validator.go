package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
)

// CustomValidator implements echo.Validator using go-playground/validator.
// Validation failures surface as invalid-request AppErrors carrying one
// detail per offending field, keyed by the field's json name.
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()

	// Report fields by their wire names, not Go struct names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.ErrInvalidRequest(err.Error())
	}

	appErr := apperrors.ErrInvalidRequest("Request validation failed")
	for _, fe := range fieldErrs {
		appErr = appErr.WithDetail(fe.Field(), fe.Tag())
	}
	return appErr
}
