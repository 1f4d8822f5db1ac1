package account

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Account is the stored identity record. PasswordHash, SessionTokens and
// Avatar never leave the service boundary; callers get a View.
type Account struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Age           int       `json:"age"`
	SessionTokens []string  `json:"-"`
	Avatar        []byte    `json:"-"`
	Version       int64     `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasToken reports whether the exact token string is a live session
func (a *Account) HasToken(token string) bool {
	return slices.Contains(a.SessionTokens, token)
}

// AppendToken records a new live session. Insertion order is preserved.
func (a *Account) AppendToken(token string) {
	a.SessionTokens = append(a.SessionTokens, token)
}

// RemoveToken removes one matching token string. No-op when absent.
func (a *Account) RemoveToken(token string) {
	if i := slices.Index(a.SessionTokens, token); i >= 0 {
		a.SessionTokens = slices.Delete(a.SessionTokens, i, i+1)
	}
}

// ClearTokens revokes every live session
func (a *Account) ClearTokens() {
	a.SessionTokens = nil
}

// Clone returns a deep copy so repository callers never share slices
func (a Account) Clone() Account {
	c := a
	c.SessionTokens = slices.Clone(a.SessionTokens)
	c.Avatar = slices.Clone(a.Avatar)
	return c
}

// View is the serialized representation returned to callers.
// It excludes the password hash, session tokens and avatar bytes.
type View struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View returns the sanitized representation of the account
func (a Account) View() View {
	return View{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Age:       a.Age,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
