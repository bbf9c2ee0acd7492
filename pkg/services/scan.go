package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/sources"
)

// ScanService drives chapter discovery: resolve the site's scanner, collect
// the chapters it lists, and insert the ones the store has never seen.
type ScanService struct {
	cfg      *config.Config
	store    Store
	registry *sources.Registry
}

func NewScanService(cfg *config.Config, store Store, registry *sources.Registry) *ScanService {
	return &ScanService{cfg: cfg, store: store, registry: registry}
}

// ScanManga scans one manga and returns the number of newly discovered
// chapters. A scan log row is written for every attempt, including adapter
// failures; store failures propagate immediately.
func (s *ScanService) ScanManga(ctx context.Context, mangaID string) (int, error) {
	manga, err := s.store.GetManga(mangaID)
	if err != nil {
		return 0, err
	}
	if manga == nil {
		return 0, fmt.Errorf("%w: %s", data.ErrMangaNotFound, mangaID)
	}

	site := s.cfg.Site(manga.Site)
	if site == nil {
		return 0, fmt.Errorf("site %q: %w", manga.Site, sources.ErrSiteNotSupported)
	}
	scanner, err := s.registry.Scanner(site.ScannerType)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	scanLog := data.NewScanLog(manga.ID, manga.Site)

	chapters, scanErr := scanner.ScanManga(ctx, site, manga)
	newChapters := 0
	if scanErr != nil {
		scanLog.Status = data.ScanFailed
		scanLog.ErrorMessage = scanErr.Error()
	} else {
		scanLog.ChaptersFound = len(chapters)
		for _, ch := range chapters {
			existing, err := s.store.GetChapterByNumber(manga.ID, ch.Number)
			if err != nil {
				return newChapters, err
			}
			if existing != nil {
				continue
			}
			if _, err := s.store.CreateOrGetChapter(ch); err != nil {
				return newChapters, err
			}
			newChapters++
		}
		scanLog.ChaptersNew = newChapters

		all, err := s.store.GetChaptersByManga(manga.ID)
		if err != nil {
			return newChapters, err
		}
		now := time.Now().UTC()
		manga.ChapterCount = len(all)
		manga.LastUpdated = now
		manga.UpdatedAt = now
		if err := s.store.UpdateManga(manga); err != nil {
			return newChapters, err
		}
	}

	scanLog.DurationMs = time.Since(start).Milliseconds()
	if err := s.store.CreateScanLog(scanLog); err != nil {
		return newChapters, err
	}

	if scanErr != nil {
		return 0, fmt.Errorf("scan of %q failed: %w", manga.Title, scanErr)
	}
	return newChapters, nil
}

// ScanAll scans every active manga. Per-title failures are logged and the
// run continues to the next title.
func (s *ScanService) ScanAll(ctx context.Context) error {
	mangas, err := s.store.ListMangas()
	if err != nil {
		return err
	}
	for _, manga := range mangas {
		if manga.Status != data.MangaActive {
			continue
		}
		if _, err := s.ScanManga(ctx, manga.ID); err != nil {
			logrus.WithError(err).WithField("manga", manga.Title).Warn("scan failed")
		}
	}
	return nil
}
