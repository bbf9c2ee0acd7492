package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/notify"
)

// MonitorService ties scanning and downloading into the periodic cycle the
// daemon runs: scan every active title, download what turned up, retry what
// failed last time, then report.
type MonitorService struct {
	cfg      *config.Config
	store    Store
	scan     *ScanService
	download *DownloadService
	notifier *notify.Notifier
}

func NewMonitorService(cfg *config.Config, store Store, scan *ScanService, download *DownloadService, notifier *notify.Notifier) *MonitorService {
	return &MonitorService{cfg: cfg, store: store, scan: scan, download: download, notifier: notifier}
}

// CycleSummary is the outcome of one monitor pass.
type CycleSummary struct {
	NewChapters int
	Downloaded  int
	Failed      int
}

// RunCycle performs one full monitor pass over every active manga.
func (m *MonitorService) RunCycle(ctx context.Context) (*CycleSummary, error) {
	mangas, err := m.store.ListMangas()
	if err != nil {
		return nil, err
	}

	summary := &CycleSummary{}
	for _, manga := range mangas {
		if manga.Status != data.MangaActive {
			continue
		}
		// Placeholder rows from catalog checks carry no fetchable URL yet.
		if manga.URL == "" || manga.URL == "temp" || !strings.HasPrefix(manga.URL, "http") {
			logrus.WithField("manga", manga.Title).Debug("skipping manga without a usable url")
			continue
		}
		if m.cfg.Site(manga.Site) == nil {
			logrus.WithFields(logrus.Fields{"manga": manga.Title, "site": manga.Site}).
				Warn("manga references an unconfigured site")
			continue
		}

		newChapters, err := m.scan.ScanManga(ctx, manga.ID)
		if err != nil {
			logrus.WithError(err).WithField("manga", manga.Title).Warn("scan failed")
			continue
		}
		summary.NewChapters += newChapters

		chapters, err := m.store.GetChaptersByManga(manga.ID)
		if err != nil {
			return summary, err
		}
		for _, chapter := range chapters {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			switch chapter.Status {
			case data.ChapterPending:
				m.downloadOne(ctx, chapter, summary)
			case data.ChapterFailed:
				if chapter.RetryCount >= m.cfg.Scanner.RetryAttempts {
					continue
				}
				if !m.waitRetryDelay(ctx) {
					return summary, ctx.Err()
				}
				m.downloadOne(ctx, chapter, summary)
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"new":        summary.NewChapters,
		"downloaded": summary.Downloaded,
		"failed":     summary.Failed,
	}).Info("monitor cycle complete")

	if summary.NewChapters > 0 {
		m.notifier.NotifyNewChapters(ctx, summary.NewChapters, summary.Downloaded, summary.Failed)
	}
	return summary, nil
}

func (m *MonitorService) downloadOne(ctx context.Context, chapter *data.Chapter, summary *CycleSummary) {
	if err := m.download.DownloadChapterToScans(ctx, chapter); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"manga":   chapter.MangaTitle,
			"chapter": chapter.Number,
			"retries": chapter.RetryCount,
		}).Warn("chapter download failed")
		summary.Failed++
		return
	}
	summary.Downloaded++
}

func (m *MonitorService) waitRetryDelay(ctx context.Context) bool {
	delay := time.Duration(m.cfg.Scanner.RetryDelayMs) * time.Millisecond
	if delay <= 0 {
		return true
	}
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

// Watch runs monitor cycles on the configured interval until the context is
// cancelled. The first cycle starts immediately.
func (m *MonitorService) Watch(ctx context.Context) error {
	interval := time.Duration(m.cfg.Scanner.IntervalMinutes) * time.Minute
	logrus.WithField("interval", interval).Info("monitor started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logrus.WithError(err).Error("monitor cycle failed")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			logrus.Info("monitor stopped")
			return nil
		}
	}
}
