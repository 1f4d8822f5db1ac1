// Package token issues and verifies the signed session tokens handed out at
// registration and login. Tokens are opaque to every other package: only this
// package and the auth guard parse them.
package token

import (
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/errors"
)

// DefaultExpiry is how long a session token stays cryptographically valid.
const DefaultExpiry = 4 * time.Hour

// Service generates and verifies HMAC-signed session tokens
type Service struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithExpiry overrides the token expiry duration
func WithExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.expiry = expiry
	}
}

// WithClock overrides the time source, used for deterministic tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service signing with the process-wide secret.
// Rotating the secret invalidates every previously issued token.
func NewService(secret, issuer, audience string, options ...Option) *Service {
	s := &Service{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		expiry:   DefaultExpiry,
		now:      time.Now,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Issue creates a signed token bound to the given account ID, expiring
// Expiry from now.
func (s *Service) Issue(accountID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Subject:   accountID,
		ID:        uuid.New().String(),
		Audience:  jwt.ClaimStrings{s.audience},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		slog.Error("Failed to sign session token", "err", err)
		return "", err
	}
	return signed, nil
}

// Verify parses a token and returns the account ID it was issued for.
// Returns ErrCodeTokenExpired past the expiration instant and
// ErrCodeTokenMalformed on any structural or signature failure.
func (s *Service) Verify(tokenStr string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims jwt.RegisteredClaims
	tok, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.Wrap(err, errors.ErrCodeTokenExpired, "session token expired")
		}
		return "", errors.Wrap(err, errors.ErrCodeTokenMalformed, "session token malformed")
	}

	if !tok.Valid || claims.Subject == "" {
		return "", errors.New(errors.ErrCodeTokenMalformed, "session token missing subject")
	}

	return claims.Subject, nil
}
