package data

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Lookup misses surfaced to callers that asked for a specific record.
var (
	ErrMangaNotFound   = errors.New("manga not found")
	ErrChapterNotFound = errors.New("chapter not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS manga (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	site TEXT NOT NULL,
	url TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	cover_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	chapter_count INTEGER NOT NULL DEFAULT 0,
	last_updated TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chapters (
	id TEXT PRIMARY KEY,
	manga_id TEXT NOT NULL,
	manga_title TEXT NOT NULL,
	title TEXT NOT NULL,
	number DOUBLE NOT NULL,
	url TEXT NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 0,
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	retry_count INTEGER NOT NULL DEFAULT 0,
	downloaded_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS chapter_pages (
	id TEXT PRIMARY KEY,
	chapter_id TEXT NOT NULL,
	page_number INTEGER NOT NULL,
	image_url TEXT NOT NULL,
	local_path TEXT NOT NULL DEFAULT '',
	file_size_bytes BIGINT NOT NULL DEFAULT 0,
	downloaded_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_logs (
	id TEXT PRIMARY KEY,
	manga_id TEXT NOT NULL,
	site TEXT NOT NULL,
	status TEXT NOT NULL,
	chapters_found INTEGER NOT NULL DEFAULT 0,
	chapters_new INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_manga_site ON manga (site);
CREATE INDEX IF NOT EXISTS idx_chapters_manga_id ON chapters (manga_id);
CREATE INDEX IF NOT EXISTS idx_chapters_number ON chapters (manga_id, number);
CREATE INDEX IF NOT EXISTS idx_chapter_pages_chapter_id ON chapter_pages (chapter_id);
CREATE INDEX IF NOT EXISTS idx_scan_logs_manga_id ON scan_logs (manga_id);
`

// InitDB opens (creating if necessary) the DuckDB database at path and
// ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// Repository is the persistent record store for manga, chapters, pages and
// scan history.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Manga operations

func (r *Repository) CreateManga(m *Manga) error {
	_, err := r.db.Exec(`
		INSERT INTO manga (id, title, site, url, description, cover_url, status, chapter_count, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.Site, m.URL, m.Description, m.CoverURL, m.Status,
		m.ChapterCount, m.LastUpdated, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create manga: %w", err)
	}
	return nil
}

func (r *Repository) GetManga(id string) (*Manga, error) {
	return r.queryManga("SELECT * FROM manga WHERE id = ?", id)
}

func (r *Repository) GetMangaByURL(url string) (*Manga, error) {
	return r.queryManga("SELECT * FROM manga WHERE url = ?", url)
}

func (r *Repository) queryManga(query string, arg any) (*Manga, error) {
	m := &Manga{}
	err := r.db.QueryRow(query, arg).Scan(
		&m.ID, &m.Title, &m.Site, &m.URL, &m.Description, &m.CoverURL,
		&m.Status, &m.ChapterCount, &m.LastUpdated, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query manga: %w", err)
	}
	return m, nil
}

func (r *Repository) ListMangas() ([]*Manga, error) {
	rows, err := r.db.Query("SELECT * FROM manga ORDER BY last_updated DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list manga: %w", err)
	}
	defer rows.Close()

	var out []*Manga
	for rows.Next() {
		m := &Manga{}
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Site, &m.URL, &m.Description, &m.CoverURL,
			&m.Status, &m.ChapterCount, &m.LastUpdated, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manga row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateManga(m *Manga) error {
	_, err := r.db.Exec(`
		UPDATE manga
		SET title = ?, site = ?, url = ?, description = ?, cover_url = ?, status = ?, chapter_count = ?, last_updated = ?, updated_at = ?
		WHERE id = ?`,
		m.Title, m.Site, m.URL, m.Description, m.CoverURL, m.Status,
		m.ChapterCount, m.LastUpdated, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update manga: %w", err)
	}
	return nil
}

// Chapter operations

// CreateOrGetChapter inserts the chapter unless one with the same manga and
// a numerically-close number already exists, in which case the existing
// record is returned. This is the dedup step that makes re-scans idempotent.
func (r *Repository) CreateOrGetChapter(c *Chapter) (*Chapter, error) {
	existing, err := r.GetChapterByNumber(c.MangaID, c.Number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO chapters (id, manga_id, manga_title, title, number, url, page_count, file_size_bytes, status, retry_count, downloaded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.MangaID, c.MangaTitle, c.Title, c.Number, c.URL,
		c.PageCount, c.FileSizeBytes, c.Status, c.RetryCount,
		nullTime(c.DownloadedAt), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	return c, nil
}

// GetChapterByNumber finds a chapter of a manga whose number is within
// NumberEpsilon of the given number.
func (r *Repository) GetChapterByNumber(mangaID string, number float64) (*Chapter, error) {
	return r.queryChapter(
		"SELECT * FROM chapters WHERE manga_id = ? AND ABS(number - ?) < ? LIMIT 1",
		mangaID, number, NumberEpsilon)
}

func (r *Repository) GetChapterByURL(url string) (*Chapter, error) {
	return r.queryChapter("SELECT * FROM chapters WHERE url = ? LIMIT 1", url)
}

func (r *Repository) queryChapter(query string, args ...any) (*Chapter, error) {
	c := &Chapter{}
	var downloadedAt sql.NullTime
	err := r.db.QueryRow(query, args...).Scan(
		&c.ID, &c.MangaID, &c.MangaTitle, &c.Title, &c.Number, &c.URL,
		&c.PageCount, &c.FileSizeBytes, &c.Status, &c.RetryCount,
		&downloadedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chapter: %w", err)
	}
	c.DownloadedAt = downloadedAt.Time
	return c, nil
}

func (r *Repository) GetChaptersByManga(mangaID string) ([]*Chapter, error) {
	return r.queryChapters("SELECT * FROM chapters WHERE manga_id = ? ORDER BY number DESC", mangaID)
}

// GetOldChapters lists downloaded chapters whose download timestamp is
// before the cutoff. Used by cleanup.
func (r *Repository) GetOldChapters(cutoff time.Time) ([]*Chapter, error) {
	return r.queryChapters(
		"SELECT * FROM chapters WHERE downloaded_at < ? AND status = ?", cutoff, ChapterDownloaded)
}

func (r *Repository) queryChapters(query string, args ...any) ([]*Chapter, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	var out []*Chapter
	for rows.Next() {
		c := &Chapter{}
		var downloadedAt sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.MangaID, &c.MangaTitle, &c.Title, &c.Number, &c.URL,
			&c.PageCount, &c.FileSizeBytes, &c.Status, &c.RetryCount,
			&downloadedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		c.DownloadedAt = downloadedAt.Time
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateChapter(c *Chapter) error {
	_, err := r.db.Exec(`
		UPDATE chapters
		SET title = ?, number = ?, url = ?, page_count = ?, file_size_bytes = ?, status = ?, retry_count = ?, downloaded_at = ?, updated_at = ?
		WHERE id = ?`,
		c.Title, c.Number, c.URL, c.PageCount, c.FileSizeBytes, c.Status,
		c.RetryCount, nullTime(c.DownloadedAt), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

func (r *Repository) MarkChapterDeleted(chapterID string) error {
	_, err := r.db.Exec("UPDATE chapters SET status = ? WHERE id = ?", ChapterDeleted, chapterID)
	if err != nil {
		return fmt.Errorf("failed to mark chapter deleted: %w", err)
	}
	return nil
}

// Page operations

func (r *Repository) SavePage(p *ChapterPage) error {
	_, err := r.db.Exec(`
		INSERT INTO chapter_pages (id, chapter_id, page_number, image_url, local_path, file_size_bytes, downloaded_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ChapterID, p.PageNumber, p.ImageURL, p.LocalPath,
		p.FileSizeBytes, nullTime(p.DownloadedAt), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

func (r *Repository) GetPages(chapterID string) ([]*ChapterPage, error) {
	rows, err := r.db.Query(
		"SELECT * FROM chapter_pages WHERE chapter_id = ? ORDER BY page_number", chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var out []*ChapterPage
	for rows.Next() {
		p := &ChapterPage{}
		var downloadedAt sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.ChapterID, &p.PageNumber, &p.ImageURL, &p.LocalPath,
			&p.FileSizeBytes, &downloadedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		p.DownloadedAt = downloadedAt.Time
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePages removes page records of a chapter, used before re-recording
// a retried download.
func (r *Repository) DeletePages(chapterID string) error {
	_, err := r.db.Exec("DELETE FROM chapter_pages WHERE chapter_id = ?", chapterID)
	if err != nil {
		return fmt.Errorf("failed to delete pages: %w", err)
	}
	return nil
}

// Scan log operations

func (r *Repository) CreateScanLog(l *ScanLog) error {
	_, err := r.db.Exec(`
		INSERT INTO scan_logs (id, manga_id, site, status, chapters_found, chapters_new, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.MangaID, l.Site, l.Status, l.ChaptersFound, l.ChaptersNew,
		l.ErrorMessage, l.DurationMs, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scan log: %w", err)
	}
	return nil
}

func (r *Repository) GetScanLogs(mangaID string, limit int) ([]*ScanLog, error) {
	rows, err := r.db.Query(
		"SELECT * FROM scan_logs WHERE manga_id = ? ORDER BY created_at DESC LIMIT ?", mangaID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan logs: %w", err)
	}
	defer rows.Close()

	var out []*ScanLog
	for rows.Next() {
		l := &ScanLog{}
		if err := rows.Scan(
			&l.ID, &l.MangaID, &l.Site, &l.Status, &l.ChaptersFound,
			&l.ChaptersNew, &l.ErrorMessage, &l.DurationMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
