package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/identity/pkg/errors"
)

func storedAccount(t *testing.T, repo *InMemRepository) Account {
	t.Helper()
	acct := Account{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "digest",
		Age:          36,
	}
	require.NoError(t, repo.Create(context.Background(), &acct))
	return acct
}

func TestInMemRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemRepository()
	acct := storedAccount(t, repo)

	assert.EqualValues(t, 1, acct.Version)
	assert.False(t, acct.CreatedAt.IsZero())

	t.Run("email uniqueness", func(t *testing.T) {
		dup := Account{ID: uuid.New(), Name: "Eve", Email: "ada@example.com"}
		err := repo.Create(ctx, &dup)
		assert.True(t, errors.IsCode(err, errors.ErrCodeEmailTaken))
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, acct.ID, got.ID)
	})
}

func TestInMemRepositoryUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the version stamp", func(t *testing.T) {
		repo := NewInMemRepository()
		acct := storedAccount(t, repo)

		acct.Name = "Ada Lovelace"
		require.NoError(t, repo.Update(ctx, &acct))
		assert.EqualValues(t, 2, acct.Version)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		repo := NewInMemRepository()
		acct := storedAccount(t, repo)

		first := acct.Clone()
		second := acct.Clone()

		first.AppendToken("token-a")
		require.NoError(t, repo.Update(ctx, &first))

		// second still carries version 1
		second.AppendToken("token-b")
		err := repo.Update(ctx, &second)
		assert.True(t, errors.IsCode(err, errors.ErrCodeVersionConflict))

		// the losing write re-reads and lands on fresh state
		fresh, err := repo.GetByID(ctx, acct.ID)
		require.NoError(t, err)
		fresh.AppendToken("token-b")
		require.NoError(t, repo.Update(ctx, &fresh))

		got, err := repo.GetByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, got.HasToken("token-a"))
		assert.True(t, got.HasToken("token-b"))
	})

	t.Run("email change keeps uniqueness", func(t *testing.T) {
		repo := NewInMemRepository()
		acct := storedAccount(t, repo)

		other := Account{ID: uuid.New(), Name: "Eve", Email: "eve@example.com"}
		require.NoError(t, repo.Create(ctx, &other))

		acct.Email = "eve@example.com"
		err := repo.Update(ctx, &acct)
		assert.True(t, errors.IsCode(err, errors.ErrCodeEmailTaken))

		acct.Email = "ada@new.example.com"
		require.NoError(t, repo.Update(ctx, &acct))

		_, err = repo.GetByEmail(ctx, "ada@example.com")
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound), "old address released")

		got, err := repo.GetByEmail(ctx, "ada@new.example.com")
		require.NoError(t, err)
		assert.Equal(t, acct.ID, got.ID)
	})
}

func TestInMemRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemRepository()
	acct := storedAccount(t, repo)

	require.NoError(t, repo.Delete(ctx, acct.ID))

	_, err := repo.GetByID(ctx, acct.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	_, err = repo.GetByEmail(ctx, acct.Email)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	assert.True(t, errors.IsCode(repo.Delete(ctx, acct.ID), errors.ErrCodeNotFound))
}

func TestInMemRepositoryIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemRepository()
	acct := storedAccount(t, repo)

	got, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	got.AppendToken("mutated-after-read")

	again, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.False(t, again.HasToken("mutated-after-read"), "reads return copies")
}
