package services

import (
	"sync"
	"time"

	"github.com/guloader/guloader/pkg/data"
)

// mockStore is a func-field Store double. Unset funcs return zero values.
type mockStore struct {
	createMangaFunc        func(m *data.Manga) error
	getMangaFunc           func(id string) (*data.Manga, error)
	getMangaByURLFunc      func(url string) (*data.Manga, error)
	listMangasFunc         func() ([]*data.Manga, error)
	updateMangaFunc        func(m *data.Manga) error
	createOrGetChapterFunc func(c *data.Chapter) (*data.Chapter, error)
	getChapterByNumberFunc func(mangaID string, number float64) (*data.Chapter, error)
	getChapterByURLFunc    func(url string) (*data.Chapter, error)
	getChaptersFunc        func(mangaID string) ([]*data.Chapter, error)
	getOldChaptersFunc     func(cutoff time.Time) ([]*data.Chapter, error)
	updateChapterFunc      func(c *data.Chapter) error
	markDeletedFunc        func(chapterID string) error
	savePageFunc           func(p *data.ChapterPage) error
	getPagesFunc           func(chapterID string) ([]*data.ChapterPage, error)
	deletePagesFunc        func(chapterID string) error
	createScanLogFunc      func(l *data.ScanLog) error
}

func (m *mockStore) CreateManga(mg *data.Manga) error {
	if m.createMangaFunc != nil {
		return m.createMangaFunc(mg)
	}
	return nil
}

func (m *mockStore) GetManga(id string) (*data.Manga, error) {
	if m.getMangaFunc != nil {
		return m.getMangaFunc(id)
	}
	return nil, nil
}

func (m *mockStore) GetMangaByURL(url string) (*data.Manga, error) {
	if m.getMangaByURLFunc != nil {
		return m.getMangaByURLFunc(url)
	}
	return nil, nil
}

func (m *mockStore) ListMangas() ([]*data.Manga, error) {
	if m.listMangasFunc != nil {
		return m.listMangasFunc()
	}
	return nil, nil
}

func (m *mockStore) UpdateManga(mg *data.Manga) error {
	if m.updateMangaFunc != nil {
		return m.updateMangaFunc(mg)
	}
	return nil
}

func (m *mockStore) CreateOrGetChapter(c *data.Chapter) (*data.Chapter, error) {
	if m.createOrGetChapterFunc != nil {
		return m.createOrGetChapterFunc(c)
	}
	return c, nil
}

func (m *mockStore) GetChapterByNumber(mangaID string, number float64) (*data.Chapter, error) {
	if m.getChapterByNumberFunc != nil {
		return m.getChapterByNumberFunc(mangaID, number)
	}
	return nil, nil
}

func (m *mockStore) GetChapterByURL(url string) (*data.Chapter, error) {
	if m.getChapterByURLFunc != nil {
		return m.getChapterByURLFunc(url)
	}
	return nil, nil
}

func (m *mockStore) GetChaptersByManga(mangaID string) ([]*data.Chapter, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(mangaID)
	}
	return nil, nil
}

func (m *mockStore) GetOldChapters(cutoff time.Time) ([]*data.Chapter, error) {
	if m.getOldChaptersFunc != nil {
		return m.getOldChaptersFunc(cutoff)
	}
	return nil, nil
}

func (m *mockStore) UpdateChapter(c *data.Chapter) error {
	if m.updateChapterFunc != nil {
		return m.updateChapterFunc(c)
	}
	return nil
}

func (m *mockStore) MarkChapterDeleted(chapterID string) error {
	if m.markDeletedFunc != nil {
		return m.markDeletedFunc(chapterID)
	}
	return nil
}

func (m *mockStore) SavePage(p *data.ChapterPage) error {
	if m.savePageFunc != nil {
		return m.savePageFunc(p)
	}
	return nil
}

func (m *mockStore) GetPages(chapterID string) ([]*data.ChapterPage, error) {
	if m.getPagesFunc != nil {
		return m.getPagesFunc(chapterID)
	}
	return nil, nil
}

func (m *mockStore) DeletePages(chapterID string) error {
	if m.deletePagesFunc != nil {
		return m.deletePagesFunc(chapterID)
	}
	return nil
}

func (m *mockStore) CreateScanLog(l *data.ScanLog) error {
	if m.createScanLogFunc != nil {
		return m.createScanLogFunc(l)
	}
	return nil
}

// memStore is an in-memory Store for end-to-end style tests.
type memStore struct {
	mu       sync.Mutex
	mangas   map[string]*data.Manga
	chapters map[string]*data.Chapter
	pages    map[string][]*data.ChapterPage
	scanLogs []*data.ScanLog
}

func newMemStore() *memStore {
	return &memStore{
		mangas:   make(map[string]*data.Manga),
		chapters: make(map[string]*data.Chapter),
		pages:    make(map[string][]*data.ChapterPage),
	}
}

func (s *memStore) CreateManga(m *data.Manga) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mangas[m.ID] = m
	return nil
}

func (s *memStore) GetManga(id string) (*data.Manga, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mangas[id], nil
}

func (s *memStore) GetMangaByURL(url string) (*data.Manga, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mangas {
		if m.URL == url {
			return m, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListMangas() ([]*data.Manga, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*data.Manga
	for _, m := range s.mangas {
		out = append(out, m)
	}
	return out, nil
}

func (s *memStore) UpdateManga(m *data.Manga) error {
	return s.CreateManga(m)
}

func (s *memStore) CreateOrGetChapter(c *data.Chapter) (*data.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.chapters {
		if existing.MangaID == c.MangaID && data.SameNumber(existing.Number, c.Number) {
			return existing, nil
		}
	}
	s.chapters[c.ID] = c
	return c, nil
}

func (s *memStore) GetChapterByNumber(mangaID string, number float64) (*data.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chapters {
		if c.MangaID == mangaID && data.SameNumber(c.Number, number) {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetChapterByURL(url string) (*data.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chapters {
		if c.URL == url {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetChaptersByManga(mangaID string) ([]*data.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*data.Chapter
	for _, c := range s.chapters {
		if c.MangaID == mangaID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) GetOldChapters(cutoff time.Time) ([]*data.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*data.Chapter
	for _, c := range s.chapters {
		if c.Status == data.ChapterDownloaded && !c.DownloadedAt.IsZero() && c.DownloadedAt.Before(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateChapter(c *data.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[c.ID] = c
	return nil
}

func (s *memStore) MarkChapterDeleted(chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chapters[chapterID]; ok {
		c.Status = data.ChapterDeleted
	}
	return nil
}

func (s *memStore) SavePage(p *data.ChapterPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[p.ChapterID] = append(s.pages[p.ChapterID], p)
	return nil
}

func (s *memStore) GetPages(chapterID string) ([]*data.ChapterPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[chapterID], nil
}

func (s *memStore) DeletePages(chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, chapterID)
	return nil
}

func (s *memStore) CreateScanLog(l *data.ScanLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanLogs = append(s.scanLogs, l)
	return nil
}
