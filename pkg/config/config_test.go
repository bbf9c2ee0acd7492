package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[database]
path = "custom/db.duckdb"

[storage]
base_path = "/data/downloads"
scans_path = "/data/scans"

[scanner]
interval_minutes = 30
max_page_downloads = 8

[sites.thunder]
name = "Thunder Scans"
base_url = "https://thunderscans.example"
scanner_type = "thunder"
downloader_type = "thunder"
catalog_type = "thunder"
rate_limit_ms = 2000

[sites.thunder.selectors]
chapter_list = "#chapterlist li"
chapter_title = ".chapternum"

[sites.thunder.headers]
Referer = "https://thunderscans.example"

[[manga]]
title = "Some Title"
site = "thunder"
url = "https://thunderscans.example/manga/some-title"
active = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "custom/db.duckdb", cfg.Database.Path)
	assert.Equal(t, "/data/downloads", cfg.Storage.BasePath)
	assert.Equal(t, 30, cfg.Scanner.IntervalMinutes)
	assert.Equal(t, 8, cfg.Scanner.MaxPageDownloads)

	site := cfg.Site("thunder")
	require.NotNil(t, site)
	assert.Equal(t, "Thunder Scans", site.Name)
	assert.Equal(t, "thunder", site.ScannerType)
	assert.Equal(t, 2000, site.RateLimitMs)
	assert.Equal(t, "#chapterlist li", site.Selectors.ChapterList)
	assert.Equal(t, "https://thunderscans.example", site.Headers["Referer"])

	require.Len(t, cfg.Manga, 1)
	assert.Equal(t, "Some Title", cfg.Manga[0].Title)
	assert.True(t, cfg.Manga[0].Active)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[database]\n"))
	require.NoError(t, err)

	assert.Equal(t, "data/guloader.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Scanner.IntervalMinutes)
	assert.Equal(t, 4, cfg.Scanner.MaxPageDownloads)
	assert.Equal(t, 3, cfg.Scanner.RetryAttempts)
	assert.Equal(t, 5000, cfg.Scanner.RetryDelayMs)
	assert.Equal(t, 200, cfg.Storage.ThumbnailSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Manga = append(cfg.Manga, MangaConfig{
		Title:  "Round Trip",
		Site:   "eros",
		URL:    "https://eros-moon.xyz/manga/round-trip",
		Active: true,
	})

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Manga, 1)
	assert.Equal(t, "Round Trip", loaded.Manga[0].Title)
	assert.NotNil(t, loaded.Site("eros"))
}

func TestSiteMiss(t *testing.T) {
	assert.Nil(t, Default().Site("unknown"))
}
