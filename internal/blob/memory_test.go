package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetURL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://localhost:8080/public/blobs")

	info, err := store.Put(ctx, "/provenance/1/bundle.json", strings.NewReader(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "provenance/1/bundle.json", info.Key)
	assert.Equal(t, int64(11), info.Size)

	got, body, err := store.Get(ctx, "provenance/1/bundle.json")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
	assert.Equal(t, "application/json", got.ContentType)

	url, err := store.URL(ctx, "provenance/1/bundle.json")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/public/blobs/provenance/1/bundle.json", url)
}

func TestMemoryStoreOverwritesAndRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("")

	_, err := store.Put(ctx, "a.txt", strings.NewReader("one"), "text/plain")
	require.NoError(t, err)
	info, err := store.Put(ctx, "a.txt", strings.NewReader("three"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	_, _, err = store.Get(ctx, "missing.txt")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.Put(ctx, "../etc/passwd", strings.NewReader("x"), "")
	assert.Error(t, err)
}
