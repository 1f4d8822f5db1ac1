package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the fixed bcrypt work factor used for new digests.
// bcrypt generates a fresh salt per call and embeds it in the digest.
const Cost = 8

// Hasher defines the interface for password hashing implementations
type Hasher interface {
	// Hash derives a salted one-way digest from a plaintext password
	Hash(password string) (string, error)

	// Verify checks if the provided password matches the stored digest
	Verify(password, digest string) (bool, error)
}

// BcryptHasher implements Hasher using bcrypt with a fixed cost
type BcryptHasher struct{}

// NewBcryptHasher creates a new bcrypt-backed hasher
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{}
}

// Hash implements Hasher.Hash
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// Verify implements Hasher.Verify. Any plaintext that does not match the
// digest is a mismatch, not an error; that includes the empty string.
func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	if digest == "" {
		return false, errors.New("digest cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil // Password doesn't match, but not an error
		}
		return false, err // Some other error occurred
	}

	return true, nil
}
