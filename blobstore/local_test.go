package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "images"))
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("payload bytes")

	require.NoError(t, store.Put(ctx, "img_1.bin", data))

	got, err := store.Get(ctx, "img_1.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = os.Stat(filepath.Join(dir, "images", "img_1.bin"))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestLocalStore_PutNeverOverwrites(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.bin", []byte("first")))
	err = store.Put(ctx, "a.bin", []byte("second"))
	assert.ErrorIs(t, err, ErrExists)

	got, err := store.Get(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestLocalStore_ConcurrentPutSameName(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Put(ctx, "race.bin", []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestLocalStore_GetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"../escape.bin", "a/b.bin", "..", ""} {
		_, err := store.Get(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound, name)
		assert.Error(t, store.Put(ctx, name, []byte("x")), name)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "stored copy must not alias the caller's slice")

	assert.ErrorIs(t, store.Put(ctx, "k", []byte("again")), ErrExists)

	store.Delete("k")
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
