// Package guard authenticates requests against the session token set.
// A token that verifies cryptographically is still rejected when it is no
// longer a member of the account's session set, so logout takes effect
// immediately even for tokens that have not expired.
package guard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/account"
	"github.com/taskhub/identity/pkg/errors"
)

// SessionCookieName is the cookie consulted when no Authorization header
// carries a token.
const SessionCookieName = "session_token"

// TokenVerifier checks a raw token's signature and expiry and returns the
// account ID it was issued for.
type TokenVerifier interface {
	Verify(tokenStr string) (string, error)
}

// Guard resolves a raw session token to the account it belongs to
type Guard struct {
	tokens TokenVerifier
	repo   account.Repository
}

// NewGuard creates a Guard backed by the given verifier and account store
func NewGuard(tokens TokenVerifier, repo account.Repository) *Guard {
	return &Guard{
		tokens: tokens,
		repo:   repo,
	}
}

// Authenticate verifies a raw token and returns the owning account.
//
// Failures are classified, never mutated state: expired or malformed
// tokens surface their token error, a token whose subject no longer
// resolves fails with ErrCodeUnknownAccount, and a verified token absent
// from the account's session set fails with ErrCodeSessionRevoked.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (account.Account, error) {
	subject, err := g.tokens.Verify(rawToken)
	if err != nil {
		return account.Account{}, err
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return account.Account{}, errors.Wrap(err, errors.ErrCodeTokenMalformed, "session token subject is not an account ID")
	}

	acct, err := g.repo.GetByID(ctx, id)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return account.Account{}, errors.New(errors.ErrCodeUnknownAccount, "account no longer exists")
		}
		return account.Account{}, err
	}

	if !acct.HasToken(rawToken) {
		return account.Account{}, errors.New(errors.ErrCodeSessionRevoked, "session has been logged out")
	}

	return acct, nil
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "guard context value " + k.name
}

var (
	// AccountKey is the context key for the authenticated account
	AccountKey = &contextKey{"Account"}
	// TokenKey is the context key for the raw session token the request
	// authenticated with
	TokenKey = &contextKey{"Token"}
)

// AccountFromContext returns the authenticated account stored by Middleware
func AccountFromContext(ctx context.Context) (account.Account, bool) {
	acct, ok := ctx.Value(AccountKey).(account.Account)
	return acct, ok
}

// TokenFromContext returns the raw session token stored by Middleware
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(TokenKey).(string)
	return tok, ok
}

// TokenFromCookie tries to retrieve the token string from the session cookie
func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware authenticates every request passing through it and stores the
// account and raw token in the request context. Requests without a token,
// or with a token that fails Authenticate, get a 401 and never reach the
// next handler.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := jwtauth.TokenFromHeader(r)
		if rawToken == "" {
			rawToken = TokenFromCookie(r)
		}
		if rawToken == "" {
			unauthorized(w, r, errors.New(errors.ErrCodeTokenInvalid, "missing session token"))
			return
		}

		acct, err := g.Authenticate(r.Context(), rawToken)
		if err != nil {
			slog.Debug("Request authentication failed", "code", errors.GetCode(err))
			unauthorized(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), AccountKey, acct)
		ctx = context.WithValue(ctx, TokenKey, rawToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": "please authenticate",
	})
}
