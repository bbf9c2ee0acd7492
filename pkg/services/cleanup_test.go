package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/storage"
)

func TestCleanupOlderThan(t *testing.T) {
	root := t.TempDir()
	st := storage.NewManager(config.StorageConfig{
		BasePath:  filepath.Join(root, "downloads"),
		ScansPath: filepath.Join(root, "scans"),
	})
	store := newMemStore()

	manga := data.NewManga("Test Title", "eros", "https://example.com/manga/test")
	require.NoError(t, store.CreateManga(manga))

	old := data.NewChapter(manga.ID, manga.Title, "Chapter 1", 1.0, "https://example.com/ch-1")
	old.Status = data.ChapterDownloaded
	old.DownloadedAt = time.Now().UTC().Add(-60 * 24 * time.Hour)
	_, err := store.CreateOrGetChapter(old)
	require.NoError(t, err)
	require.NoError(t, store.SavePage(data.NewChapterPage(old.ID, 1, "https://cdn.example.com/1.jpg")))

	recent := data.NewChapter(manga.ID, manga.Title, "Chapter 2", 2.0, "https://example.com/ch-2")
	recent.Status = data.ChapterDownloaded
	recent.DownloadedAt = time.Now().UTC()
	_, err = store.CreateOrGetChapter(recent)
	require.NoError(t, err)

	// materialize both chapter trees
	for _, ch := range []*data.Chapter{old, recent} {
		path, err := st.PagePath(manga.Title, ch, 1)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	cleanup := NewCleanupService(store, st)
	removed, err := cleanup.CleanupOlderThan(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(root, "downloads", "Test Title", "1"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "downloads", "Test Title", "2"))
	assert.NoError(t, err)

	gotOld, err := store.GetChapterByNumber(manga.ID, 1.0)
	require.NoError(t, err)
	assert.Equal(t, data.ChapterDeleted, gotOld.Status)

	pages, err := store.GetPages(old.ID)
	require.NoError(t, err)
	assert.Empty(t, pages)

	gotRecent, err := store.GetChapterByNumber(manga.ID, 2.0)
	require.NoError(t, err)
	assert.Equal(t, data.ChapterDownloaded, gotRecent.Status)
}

func TestCleanupNothingOld(t *testing.T) {
	st := storage.NewManager(config.StorageConfig{BasePath: t.TempDir()})
	cleanup := NewCleanupService(newMemStore(), st)

	removed, err := cleanup.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
