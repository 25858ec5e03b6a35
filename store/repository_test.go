package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagegallery/models"
)

func sampleRecord(id string, at time.Time, tags ...string) models.ImageRecord {
	return models.ImageRecord{
		ID:           id,
		Filename:     id + ".png",
		OriginalName: id + " original.png",
		Size:         42,
		Mimetype:     "image/png",
		Tags:         tags,
		UploadDate:   at,
		Buffer:       []byte("must not be persisted"),
	}
}

// testRepository exercises the MetadataRepository contract shared by all
// backends.
func testRepository(t *testing.T, repo MetadataRepository) {
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	t.Run("empty", func(t *testing.T) {
		records, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)

		_, err = repo.Get(ctx, "img_0_nothing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	first := sampleRecord("img_1_aaaaaaa", base.Add(time.Hour), "Nature", "sky")
	second := sampleRecord("img_2_bbbbbbb", base, "city")
	third := sampleRecord("img_3_ccccccc", base)

	t.Run("append and get", func(t *testing.T) {
		require.NoError(t, repo.Append(ctx, first))
		require.NoError(t, repo.Append(ctx, second))
		require.NoError(t, repo.Append(ctx, third))

		got, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, first.Filename, got.Filename)
		assert.Equal(t, first.OriginalName, got.OriginalName)
		assert.Equal(t, first.Size, got.Size)
		assert.Equal(t, first.Mimetype, got.Mimetype)
		assert.Equal(t, []string{"Nature", "sky"}, got.Tags)
		assert.True(t, first.UploadDate.Equal(got.UploadDate), "upload date %v != %v", first.UploadDate, got.UploadDate)
		assert.Nil(t, got.Buffer)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := repo.Append(ctx, sampleRecord(first.ID, base))
		assert.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids(records))
		assert.Empty(t, records[2].Tags)
	})

	if searcher, ok := repo.(Searcher); ok {
		t.Run("search", func(t *testing.T) {
			got, err := searcher.Search(ctx, models.SearchParams{Limit: 50})
			require.NoError(t, err)
			assert.Equal(t, []string{first.ID, second.ID, third.ID}, ids(got))

			got, err = searcher.Search(ctx, models.SearchParams{Tags: []string{"NAT", "cit"}, Limit: 50})
			require.NoError(t, err)
			assert.Equal(t, []string{first.ID, second.ID}, ids(got))

			got, err = searcher.Search(ctx, models.SearchParams{Limit: 1, Offset: 1})
			require.NoError(t, err)
			assert.Equal(t, []string{second.ID}, ids(got))

			got, err = searcher.Search(ctx, models.SearchParams{Tags: []string{"a.b"}, Limit: 50})
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}

	if lister, ok := repo.(TagLister); ok {
		t.Run("tags", func(t *testing.T) {
			tags, err := lister.Tags(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Nature", "city", "sky"}, tags)
		})
	}
}
