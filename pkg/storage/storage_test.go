package storage

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	root := t.TempDir()
	return NewManager(config.StorageConfig{
		BasePath:      filepath.Join(root, "downloads"),
		ScansPath:     filepath.Join(root, "scans"),
		ThumbnailSize: 200,
	})
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"My/Title:2":            "My_Title_2",
		`a<b>c:"d"`:             "a_b_c__d_",
		"  spaced out  ":        "spaced out",
		"...dots...":            "dots",
		"normal title":          "normal title",
		"tab\tand\nnewline":     "tab_and_newline",
		`back\slash|pipe?star*`: "back_slash_pipe_star_",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}

func TestPagePathLayout(t *testing.T) {
	m := testManager(t)
	chapter := data.NewChapter("m1", "My/Title", "Chapter 12", 12.0, "https://example.com/ch-12")

	path, err := m.PagePath("My/Title", chapter, 3)
	require.NoError(t, err)

	assert.Contains(t, path, filepath.Join("My_Title", "12", "pages", "page_003.jpg"))

	// parent directories exist after the call
	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestScansTreeIsSeparate(t *testing.T) {
	m := testManager(t)
	chapter := data.NewChapter("m1", "Title", "Chapter 1", 1.0, "https://example.com/ch-1")

	manual, err := m.PagePath("Title", chapter, 1)
	require.NoError(t, err)
	scans, err := m.ScansPagePath("Title", chapter, 1)
	require.NoError(t, err)

	assert.NotEqual(t, manual, scans)
	assert.Contains(t, manual, "downloads")
	assert.Contains(t, scans, "scans")
}

func TestCreateChapterZip(t *testing.T) {
	m := testManager(t)
	chapter := data.NewChapter("m1", "Title", "Chapter 2.5", 2.5, "https://example.com/ch-2-5")

	for i := 1; i <= 3; i++ {
		path, err := m.PagePath("Title", chapter, i)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o644))
	}

	zipPath, err := m.CreateChapterZip("Title", chapter)
	require.NoError(t, err)
	assert.Equal(t, "Chapter_2.5.zip", filepath.Base(zipPath))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 3)
	assert.Equal(t, "page_001.jpg", r.File[0].Name)
	assert.Equal(t, "page_003.jpg", r.File[2].Name)
}

func TestRemoveChapter(t *testing.T) {
	m := testManager(t)
	chapter := data.NewChapter("m1", "Title", "Chapter 4", 4.0, "https://example.com/ch-4")

	path, err := m.PagePath("Title", chapter, 1)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, m.RemoveChapter("Title", chapter))
	_, err = os.Stat(filepath.Dir(filepath.Dir(path)))
	assert.True(t, os.IsNotExist(err))

	// removing a chapter that has no files is not an error
	missing := data.NewChapter("m1", "Title", "Chapter 99", 99.0, "https://example.com/ch-99")
	assert.NoError(t, m.RemoveChapter("Title", missing))
}
