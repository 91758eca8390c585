package releases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/releasedesk/pkg/config"
	"github.com/angelmondragon/releasedesk/pkg/db"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

type repoFactory struct {
	name string
	new  func(t *testing.T) Repository
}

func repoFactories() []repoFactory {
	return []repoFactory{
		{name: "memory", new: func(t *testing.T) Repository { return NewMemoryRepository() }},
		{name: "sqlite", new: newSQLiteRepository},
	}
}

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.StoreConfig{
		SQLiteDSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewGormRepository(ctx, client)
	require.NoError(t, err)
	return repo
}

func sampleRelease(title string) *models.Release {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.Release{
		ID:            uuid.New(),
		TrackTitle:    title,
		PrimaryArtist: "Artist",
		AlbumType:     enums.AlbumTypeSingle,
		Status:        enums.ReleaseStatusDraft,
		AudioAsset:    &models.AssetRef{ID: uuid.New(), FileName: "song.wav", MimeType: "audio/wav", SizeBytes: 10},
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
}

func TestRepositoryContract(t *testing.T) {
	for _, factory := range repoFactories() {
		t.Run(factory.name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("create get list keeps insertion order", func(t *testing.T) {
				repo := factory.new(t)
				first, second, third := sampleRelease("b"), sampleRelease("a"), sampleRelease("c")
				for _, rel := range []*models.Release{first, second, third} {
					require.NoError(t, repo.Create(ctx, rel))
				}

				got, err := repo.Get(ctx, second.ID)
				require.NoError(t, err)
				require.Equal(t, "a", got.TrackTitle)
				require.NotNil(t, got.AudioAsset)
				require.Equal(t, "song.wav", got.AudioAsset.FileName)
				require.Nil(t, got.ArtworkAsset)
				require.True(t, got.CreatedAt.Equal(second.CreatedAt))

				list, err := repo.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 3)
				require.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
			})

			t.Run("duplicate id", func(t *testing.T) {
				repo := factory.new(t)
				rel := sampleRelease("x")
				require.NoError(t, repo.Create(ctx, rel))
				require.ErrorIs(t, repo.Create(ctx, rel), ErrDuplicateID)
			})

			t.Run("missing ids", func(t *testing.T) {
				repo := factory.new(t)
				_, err := repo.Get(ctx, uuid.New())
				require.ErrorIs(t, err, ErrNotFound)
				require.ErrorIs(t, repo.Delete(ctx, uuid.New()), ErrNotFound)
				_, err = repo.Update(ctx, uuid.New(), func(*models.Release) error { return nil })
				require.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("update applies mutation atomically", func(t *testing.T) {
				repo := factory.new(t)
				rel := sampleRelease("x")
				require.NoError(t, repo.Create(ctx, rel))

				updated, err := repo.Update(ctx, rel.ID, func(r *models.Release) error {
					r.TrackTitle = "y"
					r.ArtworkAsset = &models.AssetRef{ID: uuid.New(), FileName: "cover.png", Width: 3000, Height: 3000}
					r.Version++
					return nil
				})
				require.NoError(t, err)
				require.Equal(t, "y", updated.TrackTitle)

				got, err := repo.Get(ctx, rel.ID)
				require.NoError(t, err)
				require.Equal(t, "y", got.TrackTitle)
				require.EqualValues(t, 2, got.Version)
				require.Equal(t, 3000, got.ArtworkAsset.Width)

				boom := errors.New("boom")
				_, err = repo.Update(ctx, rel.ID, func(r *models.Release) error {
					r.TrackTitle = "z"
					return boom
				})
				require.ErrorIs(t, err, boom)
				got, err = repo.Get(ctx, rel.ID)
				require.NoError(t, err)
				require.Equal(t, "y", got.TrackTitle, "failed mutation leaves the record untouched")
			})

			t.Run("returned records are copies", func(t *testing.T) {
				repo := factory.new(t)
				rel := sampleRelease("x")
				require.NoError(t, repo.Create(ctx, rel))
				rel.TrackTitle = "mutated after create"

				got, err := repo.Get(ctx, rel.ID)
				require.NoError(t, err)
				require.Equal(t, "x", got.TrackTitle)
				got.AudioAsset.FileName = "changed.wav"

				again, err := repo.Get(ctx, rel.ID)
				require.NoError(t, err)
				require.Equal(t, "song.wav", again.AudioAsset.FileName)
			})

			t.Run("delete", func(t *testing.T) {
				repo := factory.new(t)
				keep, drop := sampleRelease("keep"), sampleRelease("drop")
				require.NoError(t, repo.Create(ctx, keep))
				require.NoError(t, repo.Create(ctx, drop))
				require.NoError(t, repo.Delete(ctx, drop.ID))

				list, err := repo.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 1)
				require.Equal(t, keep.ID, list[0].ID)
			})

			t.Run("identifier in use", func(t *testing.T) {
				repo := factory.new(t)
				rel := sampleRelease("x")
				rel.ISRC = "USXXX2400001"
				rel.UPC = "000000000001"
				require.NoError(t, repo.Create(ctx, rel))

				inUse, err := repo.IdentifierInUse(ctx, enums.IdentifierKindISRC, "USXXX2400001")
				require.NoError(t, err)
				require.True(t, inUse)
				inUse, err = repo.IdentifierInUse(ctx, enums.IdentifierKindUPC, "000000000002")
				require.NoError(t, err)
				require.False(t, inUse)
				inUse, err = repo.IdentifierInUse(ctx, enums.IdentifierKindUPC, "")
				require.NoError(t, err)
				require.False(t, inUse)
			})

			t.Run("concurrent updates are serialized", func(t *testing.T) {
				repo := factory.new(t)
				rel := sampleRelease("x")
				require.NoError(t, repo.Create(ctx, rel))

				var wg sync.WaitGroup
				var mu sync.Mutex
				succeeded := 0
				for i := 0; i < 10; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := repo.Update(ctx, rel.ID, func(r *models.Release) error {
							r.Version++
							return nil
						})
						if err == nil {
							mu.Lock()
							succeeded++
							mu.Unlock()
						}
					}()
				}
				wg.Wait()

				got, err := repo.Get(ctx, rel.ID)
				require.NoError(t, err)
				require.EqualValues(t, 1+succeeded, got.Version, "every successful update is visible exactly once")
				require.Positive(t, succeeded)
			})

			require.NoError(t, factory.new(t).Ping(ctx))
		})
	}
}
