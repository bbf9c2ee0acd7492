package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/storage"
)

// CleanupService removes downloaded chapters older than a cutoff: the files
// go, the rows stay and flip to deleted so history survives.
type CleanupService struct {
	store   Store
	storage *storage.Manager
}

func NewCleanupService(store Store, st *storage.Manager) *CleanupService {
	return &CleanupService{store: store, storage: st}
}

// CleanupOlderThan deletes chapter files downloaded before now-age and marks
// their rows deleted. Returns the number of chapters removed.
func (c *CleanupService) CleanupOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	chapters, err := c.store.GetOldChapters(cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, chapter := range chapters {
		if err := c.storage.RemoveChapter(chapter.MangaTitle, chapter); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"manga": chapter.MangaTitle, "chapter": chapter.Number,
			}).Warn("failed to remove chapter files")
			continue
		}
		if err := c.store.DeletePages(chapter.ID); err != nil {
			return removed, err
		}
		if err := c.store.MarkChapterDeleted(chapter.ID); err != nil {
			return removed, err
		}
		removed++
	}

	logrus.WithFields(logrus.Fields{"cutoff": cutoff.Format(time.RFC3339), "removed": removed}).
		Info("cleanup finished")
	return removed, nil
}
