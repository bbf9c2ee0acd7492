package services

import (
	"time"

	"github.com/guloader/guloader/pkg/data"
)

// Store is the record-store surface the services consume. *data.Repository
// implements it; tests substitute mocks.
type Store interface {
	CreateManga(m *data.Manga) error
	GetManga(id string) (*data.Manga, error)
	GetMangaByURL(url string) (*data.Manga, error)
	ListMangas() ([]*data.Manga, error)
	UpdateManga(m *data.Manga) error

	CreateOrGetChapter(c *data.Chapter) (*data.Chapter, error)
	GetChapterByNumber(mangaID string, number float64) (*data.Chapter, error)
	GetChapterByURL(url string) (*data.Chapter, error)
	GetChaptersByManga(mangaID string) ([]*data.Chapter, error)
	GetOldChapters(cutoff time.Time) ([]*data.Chapter, error)
	UpdateChapter(c *data.Chapter) error
	MarkChapterDeleted(chapterID string) error

	SavePage(p *data.ChapterPage) error
	GetPages(chapterID string) ([]*data.ChapterPage, error)
	DeletePages(chapterID string) error

	CreateScanLog(l *data.ScanLog) error
}
