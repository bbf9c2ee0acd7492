package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/fetch"
	"github.com/guloader/guloader/pkg/sources"
	"github.com/guloader/guloader/pkg/storage"
)

// DownloadService fetches a chapter's pages, writes them to disk, and
// packages the result into a zip archive. Page fetches run concurrently under
// a bounded semaphore; file writes are sequential and fatal on error.
type DownloadService struct {
	cfg      *config.Config
	store    Store
	registry *sources.Registry
	client   *fetch.Client
	storage  *storage.Manager
}

func NewDownloadService(cfg *config.Config, store Store, registry *sources.Registry, client *fetch.Client, st *storage.Manager) *DownloadService {
	return &DownloadService{cfg: cfg, store: store, registry: registry, client: client, storage: st}
}

// DownloadChapter downloads one chapter into the manual tree.
func (d *DownloadService) DownloadChapter(ctx context.Context, chapter *data.Chapter) error {
	return d.download(ctx, chapter, false)
}

// DownloadChapterToScans downloads one chapter into the scans tree used by
// the monitor loop.
func (d *DownloadService) DownloadChapterToScans(ctx context.Context, chapter *data.Chapter) error {
	return d.download(ctx, chapter, true)
}

type fetchedPage struct {
	order int
	url   string
	body  []byte
}

func (d *DownloadService) download(ctx context.Context, chapter *data.Chapter, scans bool) error {
	manga, err := d.store.GetManga(chapter.MangaID)
	if err != nil {
		return err
	}
	if manga == nil {
		return fmt.Errorf("%w: %s", data.ErrMangaNotFound, chapter.MangaID)
	}
	site := d.cfg.Site(manga.Site)
	if site == nil {
		return fmt.Errorf("site %q: %w", manga.Site, sources.ErrSiteNotSupported)
	}
	downloader, err := d.registry.Downloader(site.DownloaderType)
	if err != nil {
		return err
	}

	// Claim the chapter before touching the network so a concurrent cycle
	// never picks it up twice.
	chapter.Status = data.ChapterDownloading
	chapter.UpdatedAt = time.Now().UTC()
	if err := d.store.UpdateChapter(chapter); err != nil {
		return err
	}

	pages, err := downloader.ChapterImages(ctx, site, chapter)
	if err != nil {
		return d.fail(chapter, fmt.Errorf("image extraction failed: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"manga":   manga.Title,
		"chapter": chapter.Number,
		"pages":   len(pages),
	}).Info("downloading chapter")

	fetched := d.fetchPages(ctx, pages)
	if len(fetched) == 0 {
		return d.fail(chapter, fmt.Errorf("all %d page downloads failed", len(pages)))
	}
	if len(fetched) < len(pages) {
		logrus.WithFields(logrus.Fields{
			"chapter": chapter.Title,
			"lost":    len(pages) - len(fetched),
		}).Warn("some pages could not be downloaded")
	}

	// Renumber survivors densely so page files and rows stay contiguous.
	sort.Slice(fetched, func(i, j int) bool { return fetched[i].order < fetched[j].order })

	if err := d.store.DeletePages(chapter.ID); err != nil {
		return err
	}

	var totalBytes int64
	for i, fp := range fetched {
		pageNumber := i + 1
		var path string
		if scans {
			path, err = d.storage.ScansPagePath(manga.Title, chapter, pageNumber)
		} else {
			path, err = d.storage.PagePath(manga.Title, chapter, pageNumber)
		}
		if err != nil {
			return d.fail(chapter, err)
		}
		if err := os.WriteFile(path, fp.body, 0o644); err != nil {
			return d.fail(chapter, fmt.Errorf("failed to write page %d: %w", pageNumber, err))
		}

		page := data.NewChapterPage(chapter.ID, pageNumber, fp.url)
		page.LocalPath = path
		page.FileSizeBytes = int64(len(fp.body))
		page.DownloadedAt = time.Now().UTC()
		if err := d.store.SavePage(page); err != nil {
			return err
		}
		totalBytes += page.FileSizeBytes
	}

	now := time.Now().UTC()
	chapter.Status = data.ChapterDownloaded
	chapter.PageCount = len(fetched)
	chapter.FileSizeBytes = totalBytes
	chapter.DownloadedAt = now
	chapter.UpdatedAt = now
	if err := d.store.UpdateChapter(chapter); err != nil {
		return err
	}

	var zipPath string
	if scans {
		zipPath, err = d.storage.CreateScansChapterZip(manga.Title, chapter)
	} else {
		zipPath, err = d.storage.CreateChapterZip(manga.Title, chapter)
	}
	if err != nil {
		return fmt.Errorf("failed to archive chapter %g: %w", chapter.Number, err)
	}

	logrus.WithFields(logrus.Fields{
		"manga":   manga.Title,
		"chapter": chapter.Number,
		"pages":   len(fetched),
		"bytes":   totalBytes,
		"archive": zipPath,
	}).Info("chapter downloaded")
	return nil
}

// fetchPages pulls page bytes concurrently, at most MaxPageDownloads in
// flight. Failed pages are dropped with a warning; callers decide what a
// fully empty result means.
func (d *DownloadService) fetchPages(ctx context.Context, pages []*data.ChapterPage) []fetchedPage {
	limit := d.cfg.Scanner.MaxPageDownloads
	if limit <= 0 {
		limit = 4
	}
	sem := make(chan struct{}, limit)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		fetched []fetchedPage
	)
	for _, page := range pages {
		wg.Add(1)
		go func(p *data.ChapterPage) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			body, err := d.client.GetBytes(ctx, p.ImageURL)
			if err != nil {
				logrus.WithError(err).WithField("url", p.ImageURL).Warn("page download failed")
				return
			}
			mu.Lock()
			fetched = append(fetched, fetchedPage{order: p.PageNumber, url: p.ImageURL, body: body})
			mu.Unlock()
		}(page)
	}
	wg.Wait()
	return fetched
}

// fail records a failed attempt: bump the retry counter, flip the status,
// and hand the cause back to the caller.
func (d *DownloadService) fail(chapter *data.Chapter, cause error) error {
	chapter.Status = data.ChapterFailed
	chapter.RetryCount++
	chapter.UpdatedAt = time.Now().UTC()
	if err := d.store.UpdateChapter(chapter); err != nil {
		logrus.WithError(err).WithField("chapter", chapter.ID).Error("failed to record download failure")
	}
	return cause
}
