package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/identity/pkg/errors"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-signing-secret", "identity", "identity")
	accountID := uuid.New().String()

	tok, err := svc.Issue(accountID)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	got, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued

	svc := NewService("test-signing-secret", "identity", "identity",
		WithClock(func() time.Time { return current }))

	tok, err := svc.Issue(uuid.New().String())
	require.NoError(t, err)

	// Still valid just inside the 4 hour window.
	current = issued.Add(4*time.Hour - time.Minute)
	_, err = svc.Verify(tok)
	assert.NoError(t, err)

	// Rejected once the expiration instant has passed.
	current = issued.Add(4*time.Hour + time.Minute)
	_, err = svc.Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenExpired))
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService("test-signing-secret", "identity", "identity")

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenMalformed))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := svc.Verify("")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenMalformed))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewService("rotated-secret", "identity", "identity")
		tok, err := other.Issue(uuid.New().String())
		require.NoError(t, err)

		_, err = svc.Verify(tok)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTokenMalformed))
	})
}

func TestTokensAreUnique(t *testing.T) {
	svc := NewService("test-signing-secret", "identity", "identity")
	accountID := uuid.New().String()

	t1, err := svc.Issue(accountID)
	require.NoError(t, err)
	t2, err := svc.Issue(accountID)
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2, "each login issues its own token")
}
