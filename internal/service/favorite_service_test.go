package service

import (
	"context"
	"testing"

	"beloop-server/internal/domain"
	"beloop-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteService_AddListRemove(t *testing.T) {
	svc := NewFavoriteService(repository.NewMemoryFavoriteRepository(), NewMockLogger())
	ctx := context.Background()

	fav, err := svc.Add(ctx, "user-1", domain.FavoriteInput{
		ItemType: domain.FavoritePrompt,
		ItemID:   "prompt-1",
		Content:  "Write a haiku about the sea",
	})
	require.NoError(t, err)
	assert.Equal(t, "Write a haiku about the sea", fav.Title)

	_, err = svc.Add(ctx, "user-1", domain.FavoriteInput{ItemType: domain.FavoritePrompt, ItemID: "prompt-1", Title: "dup"})
	assert.ErrorIs(t, err, domain.ErrFavoriteExists)

	_, err = svc.Add(ctx, "user-1", domain.FavoriteInput{ItemType: domain.FavoriteMessage, ItemID: "msg-9", Title: "Nice answer"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	prompts, err := svc.List(ctx, "user-1", domain.FavoritePrompt)
	require.NoError(t, err)
	assert.Len(t, prompts, 1)

	ok, err := svc.IsFavorite(ctx, "user-1", domain.FavoritePrompt, "prompt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, svc.Remove(ctx, "user-2", fav.ID), domain.ErrFavoriteNotFound)
	require.NoError(t, svc.Remove(ctx, "user-1", fav.ID))

	ok, err = svc.IsFavorite(ctx, "user-1", domain.FavoritePrompt, "prompt-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoriteService_Validation(t *testing.T) {
	svc := NewFavoriteService(repository.NewMemoryFavoriteRepository(), NewMockLogger())
	ctx := context.Background()

	tests := []struct {
		name  string
		input domain.FavoriteInput
	}{
		{"unknown type", domain.FavoriteInput{ItemType: "song", ItemID: "1"}},
		{"missing item id", domain.FavoriteInput{ItemType: domain.FavoriteMessage, ItemID: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, "user-1", tt.input)
			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}

	_, err := svc.List(ctx, "user-1", "song")
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
