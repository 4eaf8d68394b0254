package api

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/manofshad/vodhunter-go/internal/apperr"
)

// validatorInstance is a process-wide validator.Validate, grounded on
// cartographus's internal/validation singleton pattern (struct info
// caching makes a fresh instance per request wasteful).
var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInstance
}

// validateStruct runs struct-tag validation and, on failure, reports
// the first failing field as an apperr.Input, matching this package's
// one-error-at-a-time response shape (unlike cartographus's
// RequestValidationError, which collects every failing field).
func validateStruct(s interface{}) error {
	if err := getValidator().Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperr.Inputf("field %q failed validation %q", fe.Field(), fe.Tag())
		}
		return apperr.Input(err)
	}
	return nil
}
