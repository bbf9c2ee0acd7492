package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// WriteCoverThumbnail scales a downloaded cover image down to the configured
// thumbnail size (longest edge) and stores it as cover_thumb.jpg in the
// title's directory. Covers come from catalog ingestion and are best effort.
func (m *Manager) WriteCoverThumbnail(mangaTitle string, coverData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(coverData))
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}

	size := m.cfg.ThumbnailSize
	if size <= 0 {
		size = 200
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > size || h > size {
		scale := float64(size) / float64(w)
		if h > w {
			scale = float64(size) / float64(h)
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	mangaPath, err := m.MangaPath(mangaTitle)
	if err != nil {
		return "", err
	}
	thumbPath := filepath.Join(mangaPath, "cover_thumb.jpg")

	f, err := os.Create(thumbPath)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return thumbPath, nil
}
