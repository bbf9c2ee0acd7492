// Package sources contains the per-site adapter families. Adapters are pure
// extractors: given a site config and a fetched document they produce
// chapters, pages or catalog entries, and never touch the record store.
package sources

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
)

// ErrSiteNotSupported is returned by the registry for unknown adapter types.
var ErrSiteNotSupported = errors.New("site not supported")

// ExtractionError means the expected structure was absent from a fetched
// document: a missing payload marker, an empty selector cascade, or an
// unbalanced bracket scan.
type ExtractionError struct {
	Site   string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %s", e.Site, e.Reason)
}

func extractionErr(site, reason string) *ExtractionError {
	return &ExtractionError{Site: site, Reason: reason}
}

// Scanner discovers the chapters listed on a manga's title page.
type Scanner interface {
	ScanManga(ctx context.Context, site *config.SiteConfig, manga *data.Manga) ([]*data.Chapter, error)
}

// Downloader extracts the ordered image URLs of a chapter page.
type Downloader interface {
	ChapterImages(ctx context.Context, site *config.SiteConfig, chapter *data.Chapter) ([]*data.ChapterPage, error)
}

// Catalog scans a site's first listing page for recently updated titles.
type Catalog interface {
	FirstPage(ctx context.Context, site *config.SiteConfig) ([]*data.CatalogEntry, error)
}

var chapterNumberRe = regexp.MustCompile(`Chapter\s*([0-9]+(?:\.[0-9]+)?)`)

// chapterNumber extracts the numeric key from a "Chapter <n>" title.
// Falls back to the 1-based position when the title carries no number.
func chapterNumber(title string, index int) float64 {
	if m := chapterNumberRe.FindStringSubmatch(title); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			return n
		}
	}
	return float64(index + 1)
}

// absoluteURL resolves site-relative and scheme-relative URLs against the
// site's base URL.
func absoluteURL(base, url string) string {
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "http"):
		return url
	case strings.HasPrefix(url, "//"):
		return "https:" + url
	default:
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(url, "/")
	}
}

var imageExtensions = []string{".webp", ".jpg", ".jpeg", ".png"}

func hasImageExtension(url string) bool {
	for _, ext := range imageExtensions {
		if strings.Contains(url, ext) {
			return true
		}
	}
	return false
}
