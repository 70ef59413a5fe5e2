package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
)

var validate = validator.New()

// ValidateRequest runs struct validation and returns a client-facing
// message on failure.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			parts := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
			}
			return apperror.InvalidRequest(fmt.Sprintf("validation failed: %s", strings.Join(parts, "; ")))
		}
		return apperror.InvalidRequest(err.Error())
	}
	return nil
}
