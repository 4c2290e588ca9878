package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-diagnostics/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, u.State)

	require.NoError(t, repo.UpdateState(ctx, 1, entity.StateCollectingPhotos))
	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.NotSame(t, u, again)
	require.Equal(t, entity.StateMainMenu, u.State)
	require.Equal(t, entity.StateCollectingPhotos, again.State)

	again.SetState(entity.StateProcessing)
	stored, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateCollectingPhotos, stored.State)

	require.NoError(t, repo.Save(ctx, again))
	stored, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, stored.State)
}

func TestMemoryUserRepository_Uploads(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	n, err := repo.AppendUpload(ctx, 1, entity.ImageUpload{FileName: "a.jpg", Data: []byte("a")})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = repo.AppendUpload(ctx, 1, entity.ImageUpload{FileName: "b.jpg", Data: []byte("b")})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	other, err := repo.PendingUploads(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, other)

	uploads, err := repo.TakeUploads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	require.Equal(t, "a.jpg", uploads[0].FileName)

	left, err := repo.PendingUploads(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, left)
}
