// Package validation wraps go-playground/validator so every input struct is
// checked the same way and failures match domain.ErrValidation.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v using its `validate` tags.
// The returned error wraps both domain.ErrValidation and validator.ValidationErrors.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return nil
}

// Fields lists the struct fields that failed validation, for logs and CLI output.
func Fields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ""
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field()+":"+fe.Tag())
	}
	return strings.Join(names, ",")
}
