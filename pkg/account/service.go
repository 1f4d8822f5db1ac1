package account

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/taskhub/identity/pkg/errors"
	"github.com/taskhub/identity/pkg/password"
)

// Save retries on a version conflict are bounded; the loop re-reads fresh
// state each pass so concurrent logins both land their token.
const maxSaveRetries = 3

// TokenIssuer signs session tokens for an account ID
type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

// Notifier delivers lifecycle emails. Calls are best-effort: failures are
// logged by the implementation and never propagate to the caller.
type Notifier interface {
	NotifyWelcome(email, name string)
	NotifyGoodbye(email, name string)
}

// AllowedPatchFields are the only keys UpdateProfile accepts
var AllowedPatchFields = []string{"name", "email", "password", "age"}

// Service orchestrates the account lifecycle: registration, login and
// session management, profile updates, avatar storage, and cascading
// self-deletion.
type Service struct {
	repo     Repository
	remover  Remover
	hasher   password.Hasher
	policy   *password.Policy
	tokens   TokenIssuer
	notifier Notifier
}

// NewService creates a new account service
func NewService(repo Repository, remover Remover, hasher password.Hasher, policy *password.Policy, tokens TokenIssuer, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		remover:  remover,
		hasher:   hasher,
		policy:   policy,
		tokens:   tokens,
		notifier: notifier,
	}
}

// RegisterParams carries the registration input
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// Register validates the input, persists the new account, issues the first
// session token and fires a best-effort welcome notice.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Account, string, error) {
	name := strings.TrimSpace(params.Name)
	email := NormalizeEmail(params.Email)

	if err := validateFields(name, email, params.Age); err != nil {
		return Account{}, "", err
	}
	if err := s.policy.Check(params.Password); err != nil {
		return Account{}, "", err
	}

	digest, err := s.hasher.Hash(params.Password)
	if err != nil {
		return Account{}, "", errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}

	acct := Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Age:          params.Age,
	}
	if err := s.repo.Create(ctx, &acct); err != nil {
		return Account{}, "", err
	}

	tok, err := s.tokens.Issue(acct.ID.String())
	if err != nil {
		return Account{}, "", errors.Wrap(err, errors.ErrCodeInternal, "failed to issue session token")
	}

	acct.AppendToken(tok)
	if err := s.repo.Update(ctx, &acct); err != nil {
		return Account{}, "", err
	}

	s.notifier.NotifyWelcome(acct.Email, acct.Name)
	slog.Info("Account registered", "accountId", acct.ID)
	return acct, tok, nil
}

// Login verifies credentials and appends a fresh session token.
// Existing sessions stay untouched: concurrent logins are supported.
func (s *Service) Login(ctx context.Context, email, plaintext string) (Account, string, error) {
	acct, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return Account{}, "", errors.New(errors.ErrCodeNoSuchAccount, "unable to login: email does not exist")
		}
		return Account{}, "", err
	}

	match, err := s.hasher.Verify(plaintext, acct.PasswordHash)
	if err != nil {
		return Account{}, "", errors.Wrap(err, errors.ErrCodeInternal, "failed to verify password")
	}
	if !match {
		return Account{}, "", errors.New(errors.ErrCodeBadCredentials, "unable to login: wrong password")
	}

	tok, err := s.tokens.Issue(acct.ID.String())
	if err != nil {
		return Account{}, "", errors.Wrap(err, errors.ErrCodeInternal, "failed to issue session token")
	}

	updated, err := s.mutate(ctx, acct.ID, func(a *Account) error {
		a.AppendToken(tok)
		return nil
	})
	if err != nil {
		return Account{}, "", err
	}

	slog.Info("Login succeeded", "accountId", acct.ID)
	return updated, tok, nil
}

// Logout revokes exactly one session token. Removing a token that is not
// present is a no-op.
func (s *Service) Logout(ctx context.Context, id uuid.UUID, tok string) error {
	_, err := s.mutate(ctx, id, func(a *Account) error {
		a.RemoveToken(tok)
		return nil
	})
	return err
}

// LogoutAll revokes every session token for the account
func (s *Service) LogoutAll(ctx context.Context, id uuid.UUID) error {
	_, err := s.mutate(ctx, id, func(a *Account) error {
		a.ClearTokens()
		return nil
	})
	return err
}

// GetByID returns the account, ErrCodeNotFound when absent
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies a patch restricted to name, email, password and age.
// A single disallowed key rejects the whole patch before any field is
// applied; all field validations re-run against the patched state.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, patch map[string]any) (Account, error) {
	for key := range patch {
		if !slices.Contains(AllowedPatchFields, key) {
			return Account{}, errors.Newf(errors.ErrCodeDisallowedField, "invalid update field: %s", key)
		}
	}

	return s.mutate(ctx, id, func(a *Account) error {
		name, email, age := a.Name, a.Email, a.Age

		if v, ok := patch["name"]; ok {
			sv, ok := v.(string)
			if !ok {
				return errors.Validation("name", "must be a string")
			}
			name = strings.TrimSpace(sv)
		}
		if v, ok := patch["email"]; ok {
			sv, ok := v.(string)
			if !ok {
				return errors.Validation("email", "must be a string")
			}
			email = NormalizeEmail(sv)
		}
		if v, ok := patch["age"]; ok {
			iv, ok := asInt(v)
			if !ok {
				return errors.Validation("age", "must be an integer")
			}
			age = iv
		}

		if err := validateFields(name, email, age); err != nil {
			return err
		}

		if v, ok := patch["password"]; ok {
			sv, ok := v.(string)
			if !ok {
				return errors.Validation("password", "must be a string")
			}
			if err := s.policy.Check(sv); err != nil {
				return err
			}
			// Re-hash only when the plaintext actually changed; re-saving
			// the same password keeps the stored digest stable.
			same, err := s.hasher.Verify(sv, a.PasswordHash)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to verify password")
			}
			if !same {
				digest, err := s.hasher.Hash(sv)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
				}
				a.PasswordHash = digest
			}
		}

		a.Name, a.Email, a.Age = name, email, age
		return nil
	})
}

// SetAvatar stores canonical avatar bytes, replacing any previous avatar
func (s *Service) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	_, err := s.mutate(ctx, id, func(a *Account) error {
		a.Avatar = avatar
		return nil
	})
	return err
}

// DeleteAvatar clears the avatar without touching the rest of the account
func (s *Service) DeleteAvatar(ctx context.Context, id uuid.UUID) error {
	_, err := s.mutate(ctx, id, func(a *Account) error {
		a.Avatar = nil
		return nil
	})
	return err
}

// GetAvatar returns the stored avatar bytes, ErrCodeNotFound when the
// account does not exist or has no avatar
func (s *Service) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(acct.Avatar) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no avatar available")
	}
	return acct.Avatar, nil
}

// DeleteSelf removes every record owned by the account and the account
// itself as one unit, then fires a best-effort goodbye notice. When the
// cascade fails the account is left untouched and the error is surfaced.
func (s *Service) DeleteSelf(ctx context.Context, id uuid.UUID) error {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.remover.RemoveCascade(ctx, id)
	if err != nil {
		// The account can vanish between the read above and the cascade;
		// that is still a not-found, not a storage failure.
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return err
		}
		slog.Error("Cascade deletion failed, account kept", "accountId", id, "err", err)
		return errors.StorageWrap(err, "failed to delete account and owned records")
	}

	s.notifier.NotifyGoodbye(acct.Email, acct.Name)
	slog.Info("Account deleted", "accountId", id, "ownedRecordsRemoved", removed)
	return nil
}

// mutate runs a read-modify-write cycle against fresh state, retrying a
// bounded number of times when a concurrent writer won the version race.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Account) error) (Account, error) {
	for attempt := 0; ; attempt++ {
		acct, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Account{}, err
		}

		if err := fn(&acct); err != nil {
			return Account{}, err
		}

		err = s.repo.Update(ctx, &acct)
		if err == nil {
			return acct, nil
		}
		if !errors.IsCode(err, errors.ErrCodeVersionConflict) || attempt >= maxSaveRetries {
			return Account{}, err
		}
		slog.Debug("Retrying account mutation after version conflict", "accountId", id, "attempt", attempt)
	}
}

// asInt coerces the numeric types a JSON patch can carry
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
