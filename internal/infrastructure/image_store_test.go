package infrastructure

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(tinyPNG, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	img, err = DecodeImage("data:image/png;base64,"+tinyPNG, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, tinyPNG, img.Base64())

	_, err = DecodeImage(tinyPNG, 10)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = DecodeImage(base64.StdEncoding.EncodeToString([]byte("plain text, not an image")), 1024)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = DecodeImage("%%%", 1024)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = DecodeImage("data:image/png;base64", 1024)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestImageStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir, "https://cdn.example/")
	require.NoError(t, err)

	img, err := DecodeImage(tinyPNG, 1024)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example/images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, img.Data, data)

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.Remove(url))
		_, err := os.Stat(filepath.Join(dir, filepath.Base(url)))
		assert.True(t, os.IsNotExist(err))

		// already gone
		assert.NoError(t, store.Remove(url))

		assert.ErrorIs(t, store.Remove("https://elsewhere.example/images/a.png"), ErrInvalidImage)
		assert.ErrorIs(t, store.Remove("https://cdn.example/images/../secret.png"), ErrInvalidImage)
	})
}
