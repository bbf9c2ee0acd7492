// Package storage owns the on-disk layout of downloaded chapters:
// <root>/<sanitized title>/<chapter number>/pages/page_NNN.jpg, with one
// zip container per chapter next to its pages directory.
package storage

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
)

type Manager struct {
	cfg config.StorageConfig
}

func NewManager(cfg config.StorageConfig) *Manager {
	return &Manager{cfg: cfg}
}

// SanitizeFilename replaces path-hostile characters with underscores and
// trims leading/trailing dots and spaces. Every site-supplied string used as
// a path segment must pass through here.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ". ")
}

// MangaPath returns (and creates) the manual-download directory of a title.
func (m *Manager) MangaPath(mangaTitle string) (string, error) {
	return m.mangaPath(m.cfg.BasePath, mangaTitle)
}

// ScansMangaPath is the parallel tree used by automated downloads.
func (m *Manager) ScansMangaPath(mangaTitle string) (string, error) {
	return m.mangaPath(m.cfg.ScansPath, mangaTitle)
}

func (m *Manager) mangaPath(root, mangaTitle string) (string, error) {
	path := filepath.Join(root, SanitizeFilename(mangaTitle))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create manga directory: %w", err)
	}
	return path, nil
}

func (m *Manager) chapterPath(root, mangaTitle string, chapter *data.Chapter) (string, error) {
	mangaPath, err := m.mangaPath(root, mangaTitle)
	if err != nil {
		return "", err
	}
	path := filepath.Join(mangaPath, fmt.Sprintf("%d", int(chapter.Number)))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chapter directory: %w", err)
	}
	return path, nil
}

// PagesDir returns (and creates) the pages directory of a chapter in the
// manual tree.
func (m *Manager) PagesDir(mangaTitle string, chapter *data.Chapter) (string, error) {
	return m.pagesPath(m.cfg.BasePath, mangaTitle, chapter)
}

func (m *Manager) pagesPath(root, mangaTitle string, chapter *data.Chapter) (string, error) {
	chapterPath, err := m.chapterPath(root, mangaTitle, chapter)
	if err != nil {
		return "", err
	}
	path := filepath.Join(chapterPath, "pages")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create pages directory: %w", err)
	}
	return path, nil
}

// PagePath returns the target file of one page in the manual tree.
func (m *Manager) PagePath(mangaTitle string, chapter *data.Chapter, pageNumber int) (string, error) {
	return m.pagePath(m.cfg.BasePath, mangaTitle, chapter, pageNumber)
}

// ScansPagePath returns the target file of one page in the scans tree.
func (m *Manager) ScansPagePath(mangaTitle string, chapter *data.Chapter, pageNumber int) (string, error) {
	return m.pagePath(m.cfg.ScansPath, mangaTitle, chapter, pageNumber)
}

func (m *Manager) pagePath(root, mangaTitle string, chapter *data.Chapter, pageNumber int) (string, error) {
	pagesPath, err := m.pagesPath(root, mangaTitle, chapter)
	if err != nil {
		return "", err
	}
	return filepath.Join(pagesPath, fmt.Sprintf("page_%03d.jpg", pageNumber)), nil
}

// CreateChapterZip packages every regular file under the chapter's pages
// directory into Chapter_<n>.zip at the chapter directory level, in
// directory-read order.
func (m *Manager) CreateChapterZip(mangaTitle string, chapter *data.Chapter) (string, error) {
	return m.createZip(m.cfg.BasePath, mangaTitle, chapter)
}

// CreateScansChapterZip is CreateChapterZip for the scans tree.
func (m *Manager) CreateScansChapterZip(mangaTitle string, chapter *data.Chapter) (string, error) {
	return m.createZip(m.cfg.ScansPath, mangaTitle, chapter)
}

func (m *Manager) createZip(root, mangaTitle string, chapter *data.Chapter) (string, error) {
	chapterPath, err := m.chapterPath(root, mangaTitle, chapter)
	if err != nil {
		return "", err
	}
	pagesPath, err := m.pagesPath(root, mangaTitle, chapter)
	if err != nil {
		return "", err
	}
	zipPath := filepath.Join(chapterPath, fmt.Sprintf("Chapter_%g.zip", chapter.Number))

	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	entries, err := os.ReadDir(pagesPath)
	if err != nil {
		w.Close()
		return "", fmt.Errorf("failed to read pages directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dst, err := w.Create(entry.Name())
		if err != nil {
			w.Close()
			return "", fmt.Errorf("failed to add %s to archive: %w", entry.Name(), err)
		}
		content, err := os.ReadFile(filepath.Join(pagesPath, entry.Name()))
		if err != nil {
			w.Close()
			return "", fmt.Errorf("failed to read page %s: %w", entry.Name(), err)
		}
		if _, err := dst.Write(content); err != nil {
			w.Close()
			return "", fmt.Errorf("failed to write %s to archive: %w", entry.Name(), err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize archive: %w", err)
	}

	logrus.WithField("archive", zipPath).Info("chapter archive created")
	return zipPath, nil
}

// RemoveChapter deletes a chapter's directory tree from the manual tree.
func (m *Manager) RemoveChapter(mangaTitle string, chapter *data.Chapter) error {
	mangaPath := filepath.Join(m.cfg.BasePath, SanitizeFilename(mangaTitle))
	chapterPath := filepath.Join(mangaPath, fmt.Sprintf("%d", int(chapter.Number)))

	if _, err := os.Stat(chapterPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(chapterPath); err != nil {
		return fmt.Errorf("failed to remove chapter directory: %w", err)
	}
	logrus.WithField("path", chapterPath).Info("removed chapter directory")
	return nil
}
