package data

import (
	"time"

	"github.com/google/uuid"
)

// NumberEpsilon is the tolerance under which two chapter numbers are
// considered the same chapter. Sites render fractional chapter numbers
// inconsistently, so equality is |a-b| < NumberEpsilon, never exact.
const NumberEpsilon = 0.001

// Manga statuses.
const (
	MangaActive    = "active"
	MangaPaused    = "paused"
	MangaCompleted = "completed"
	MangaError     = "error"
)

// Chapter statuses.
const (
	ChapterPending     = "pending"
	ChapterDownloading = "downloading"
	ChapterDownloaded  = "downloaded"
	ChapterFailed      = "failed"
	ChapterDeleted     = "deleted"
)

// Scan outcomes.
const (
	ScanSuccess = "success"
	ScanPartial = "partial"
	ScanFailed  = "failed"
)

// Manga is a monitored title.
type Manga struct {
	ID           string
	Title        string
	Site         string
	URL          string
	Description  string
	CoverURL     string
	Status       string
	ChapterCount int
	LastUpdated  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chapter is one discovered installment of a manga. Number is a float so
// side chapters like 10.5 sort between their neighbours.
type Chapter struct {
	ID            string
	MangaID       string
	MangaTitle    string
	Title         string
	Number        float64
	URL           string
	PageCount     int
	FileSizeBytes int64
	Status        string
	RetryCount    int
	DownloadedAt  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChapterPage is one image belonging to a chapter. Page numbers are dense
// and 1-based within a chapter.
type ChapterPage struct {
	ID            string
	ChapterID     string
	PageNumber    int
	ImageURL      string
	LocalPath     string
	FileSizeBytes int64
	DownloadedAt  time.Time
	CreatedAt     time.Time
}

// ScanLog is an append-only audit record of one scan attempt.
type ScanLog struct {
	ID            string
	MangaID       string
	Site          string
	Status        string
	ChaptersFound int
	ChaptersNew   int
	ErrorMessage  string
	DurationMs    int64
	CreatedAt     time.Time
}

// CatalogEntry is a title discovered on a site's first catalog page. It is
// transient: consumed to create new Manga rows, never stored itself.
type CatalogEntry struct {
	Title    string
	URL      string
	CoverURL string
}

func NewManga(title, site, url string) *Manga {
	now := time.Now().UTC()
	return &Manga{
		ID:          uuid.NewString(),
		Title:       title,
		Site:        site,
		URL:         url,
		Status:      MangaActive,
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewChapter(mangaID, mangaTitle, title string, number float64, url string) *Chapter {
	now := time.Now().UTC()
	return &Chapter{
		ID:         uuid.NewString(),
		MangaID:    mangaID,
		MangaTitle: mangaTitle,
		Title:      title,
		Number:     number,
		URL:        url,
		Status:     ChapterPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func NewChapterPage(chapterID string, pageNumber int, imageURL string) *ChapterPage {
	return &ChapterPage{
		ID:         uuid.NewString(),
		ChapterID:  chapterID,
		PageNumber: pageNumber,
		ImageURL:   imageURL,
		CreatedAt:  time.Now().UTC(),
	}
}

func NewScanLog(mangaID, site string) *ScanLog {
	return &ScanLog{
		ID:        uuid.NewString(),
		MangaID:   mangaID,
		Site:      site,
		Status:    ScanSuccess,
		CreatedAt: time.Now().UTC(),
	}
}

// SameNumber reports whether two chapter numbers identify the same chapter.
func SameNumber(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < NumberEpsilon
}
