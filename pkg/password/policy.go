package password

import (
	"strings"

	"github.com/taskhub/identity/pkg/errors"
)

// Policy defines the requirements a plaintext password must meet
type Policy struct {
	MinLength          int
	ForbiddenSubstring string
}

// DefaultPolicy returns the policy enforced for all accounts:
// at least 7 characters, and the word "password" is not allowed
// anywhere in the plaintext, in any case.
func DefaultPolicy() *Policy {
	return &Policy{
		MinLength:          7,
		ForbiddenSubstring: "password",
	}
}

// Check verifies that a plaintext password meets the policy.
// The substring rule applies regardless of length.
func (p *Policy) Check(password string) error {
	if p.ForbiddenSubstring != "" && strings.Contains(strings.ToLower(password), p.ForbiddenSubstring) {
		return errors.Newf(errors.ErrCodeValidationFailed, "password must not contain %q", p.ForbiddenSubstring)
	}

	if len(password) < p.MinLength {
		return errors.Newf(errors.ErrCodeValidationFailed, "password must be at least %d characters long", p.MinLength)
	}

	return nil
}
