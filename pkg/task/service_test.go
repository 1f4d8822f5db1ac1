package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/identity/pkg/errors"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemRepository())
	owner := uuid.New()

	t.Run("success", func(t *testing.T) {
		created, err := svc.Create(ctx, owner, "  buy milk  ")
		require.NoError(t, err)
		assert.Equal(t, "buy milk", created.Title, "title is trimmed")
		assert.Equal(t, owner, created.OwnerID)
		assert.False(t, created.Done)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("blank title", func(t *testing.T) {
		_, err := svc.Create(ctx, owner, "   ")
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	})
}

func TestOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemRepository())
	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(ctx, owner, "buy milk")
	require.NoError(t, err)

	t.Run("owner reads", func(t *testing.T) {
		got, err := svc.Get(ctx, owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		_, err := svc.Get(ctx, stranger, created.ID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("stranger cannot update", func(t *testing.T) {
		done := true
		_, err := svc.Update(ctx, stranger, created.ID, UpdateParams{Done: &done})
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		err := svc.Delete(ctx, stranger, created.ID)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

		_, err = svc.Get(ctx, owner, created.ID)
		assert.NoError(t, err)
	})

	t.Run("list is per owner", func(t *testing.T) {
		_, err := svc.Create(ctx, stranger, "other work")
		require.NoError(t, err)

		mine, err := svc.List(ctx, owner)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, created.ID, mine[0].ID)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemRepository())
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, "buy milk")
	require.NoError(t, err)

	t.Run("partial patch", func(t *testing.T) {
		done := true
		got, err := svc.Update(ctx, owner, created.ID, UpdateParams{Done: &done})
		require.NoError(t, err)
		assert.True(t, got.Done)
		assert.Equal(t, "buy milk", got.Title, "absent fields unchanged")
	})

	t.Run("title patch", func(t *testing.T) {
		title := "buy oat milk"
		got, err := svc.Update(ctx, owner, created.ID, UpdateParams{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "buy oat milk", got.Title)
		assert.True(t, got.Done, "absent fields unchanged")
	})

	t.Run("blank title rejected", func(t *testing.T) {
		blank := "  "
		_, err := svc.Update(ctx, owner, created.ID, UpdateParams{Title: &blank})
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	})
}

func TestDeleteOwnedBy(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemRepository())
	owner := uuid.New()
	other := uuid.New()

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, owner, title)
		require.NoError(t, err)
	}
	kept, err := svc.Create(ctx, other, "keep me")
	require.NoError(t, err)

	removed, err := svc.DeleteOwnedBy(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	mine, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = svc.Get(ctx, other, kept.ID)
	assert.NoError(t, err, "other owners' tasks survive")
}
