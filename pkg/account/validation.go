package account

import (
	"net/mail"
	"strings"

	"github.com/taskhub/identity/pkg/errors"
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateFields runs the field-level validation pass over name, email and
// age. All failures are collected before returning so the caller reports
// every bad field at once, and nothing is mutated until the pass succeeds.
func validateFields(name, email string, age int) error {
	fields := make(map[string]interface{})

	if name == "" {
		fields["name"] = "is required"
	}

	if email == "" {
		fields["email"] = "is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields["email"] = "is not a valid email address"
	}

	if age < 0 {
		fields["age"] = "must not be negative"
	}

	if len(fields) > 0 {
		err := errors.New(errors.ErrCodeValidationFailed, "account validation failed")
		for k, v := range fields {
			err = err.WithDetail(k, v)
		}
		return err
	}

	return nil
}
