package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/fetch"
	"github.com/guloader/guloader/pkg/sources"
	"github.com/guloader/guloader/pkg/storage"
)

// CatalogService discovers new titles from a site's front catalog page and
// registers the ones the store has never seen.
type CatalogService struct {
	cfg      *config.Config
	store    Store
	registry *sources.Registry
	client   *fetch.Client
	storage  *storage.Manager
	scan     *ScanService
	download *DownloadService
}

func NewCatalogService(cfg *config.Config, store Store, registry *sources.Registry, client *fetch.Client, st *storage.Manager, scan *ScanService, download *DownloadService) *CatalogService {
	return &CatalogService{cfg: cfg, store: store, registry: registry, client: client, storage: st, scan: scan, download: download}
}

// CheckSite pulls the first catalog page of a configured site, creates manga
// rows for unknown titles, and returns them. With downloadAll set, each new
// title is scanned and all of its chapters downloaded immediately.
func (c *CatalogService) CheckSite(ctx context.Context, siteName string, downloadAll bool) ([]*data.Manga, error) {
	site := c.cfg.Site(siteName)
	if site == nil {
		return nil, fmt.Errorf("site %q: %w", siteName, sources.ErrSiteNotSupported)
	}
	catalog, err := c.registry.Catalog(site.CatalogType)
	if err != nil {
		return nil, err
	}

	entries, err := catalog.FirstPage(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("catalog check of %q failed: %w", siteName, err)
	}

	var added []*data.Manga
	for _, entry := range entries {
		existing, err := c.store.GetMangaByURL(entry.URL)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}

		manga := data.NewManga(entry.Title, siteName, entry.URL)
		manga.CoverURL = entry.CoverURL
		if err := c.store.CreateManga(manga); err != nil {
			return added, err
		}
		added = append(added, manga)
		logrus.WithFields(logrus.Fields{"manga": manga.Title, "site": siteName}).
			Info("new title registered")

		c.saveCover(ctx, manga)
	}

	if downloadAll {
		for _, manga := range added {
			if _, err := c.scan.ScanManga(ctx, manga.ID); err != nil {
				logrus.WithError(err).WithField("manga", manga.Title).Warn("scan failed")
				continue
			}
			chapters, err := c.store.GetChaptersByManga(manga.ID)
			if err != nil {
				return added, err
			}
			for _, chapter := range chapters {
				if chapter.Status != data.ChapterPending {
					continue
				}
				if err := c.download.DownloadChapter(ctx, chapter); err != nil {
					logrus.WithError(err).WithFields(logrus.Fields{
						"manga": manga.Title, "chapter": chapter.Number,
					}).Warn("chapter download failed")
				}
			}
		}
	}
	return added, nil
}

// saveCover fetches the catalog cover and stores a thumbnail. Best effort.
func (c *CatalogService) saveCover(ctx context.Context, manga *data.Manga) {
	if manga.CoverURL == "" {
		return
	}
	body, err := c.client.GetBytes(ctx, manga.CoverURL)
	if err != nil {
		logrus.WithError(err).WithField("manga", manga.Title).Debug("cover download failed")
		return
	}
	if _, err := c.storage.WriteCoverThumbnail(manga.Title, body); err != nil {
		logrus.WithError(err).WithField("manga", manga.Title).Debug("cover thumbnail failed")
	}
}
