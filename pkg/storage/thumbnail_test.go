package storage

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestWriteCoverThumbnailScalesDown(t *testing.T) {
	m := testManager(t)

	path, err := m.WriteCoverThumbnail("Title", encodePNG(t, 800, 1200))
	require.NoError(t, err)
	assert.Equal(t, "cover_thumb.jpg", path[len(path)-15:])

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	// longest edge capped at the configured size, aspect ratio kept
	assert.Equal(t, 200, img.Bounds().Dy())
	assert.Equal(t, 133, img.Bounds().Dx())
}

func TestWriteCoverThumbnailKeepsSmallImages(t *testing.T) {
	m := testManager(t)

	path, err := m.WriteCoverThumbnail("Title", encodePNG(t, 120, 90))
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
}

func TestWriteCoverThumbnailRejectsGarbage(t *testing.T) {
	m := testManager(t)

	_, err := m.WriteCoverThumbnail("Title", []byte("not an image"))
	assert.Error(t, err)
}
