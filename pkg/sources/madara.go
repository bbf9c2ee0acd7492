package sources

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/fetch"
)

// Madara handles template-driven sites (Madara/Thunder themes). Page images
// live in regular markup, but theme variants move them around, so extraction
// walks an ordered selector cascade and falls back to raw-HTML regex for the
// catalog.
type Madara struct {
	client *fetch.Client
}

func NewMadara(client *fetch.Client) *Madara {
	return &Madara{client: client}
}

func (m *Madara) ScanManga(ctx context.Context, site *config.SiteConfig, manga *data.Manga) ([]*data.Chapter, error) {
	logrus.WithFields(logrus.Fields{"site": site.Name, "manga": manga.Title}).
		Info("scanning title page")

	html, err := m.client.Get(ctx, manga.URL, site)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, extractionErr(site.Name, "unparseable title page")
	}

	listSel := site.Selectors.ChapterList
	if listSel == "" {
		listSel = "#chapterlist li"
	}
	titleSel := site.Selectors.ChapterTitle
	if titleSel == "" {
		titleSel = ".chapternum"
	}

	var chapters []*data.Chapter
	doc.Find(listSel).Each(func(i int, item *goquery.Selection) {
		link := item.Find("a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		title := strings.TrimSpace(link.Find(titleSel).First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}

		chapters = append(chapters, data.NewChapter(
			manga.ID, manga.Title, title,
			chapterNumber(title, i),
			absoluteURL(site.BaseURL, href)))
	})

	logrus.WithFields(logrus.Fields{"manga": manga.Title, "chapters": len(chapters)}).
		Info("title page scanned")
	return chapters, nil
}

// Image selector cascade, most specific theme location first. Lazy-loaded
// data-src wins over src within each match.
var madaraImageSelectors = []string{
	".reading-content img",
	".entry-content img",
	".chapter-content img",
	".wp-manga-chapter-img",
	".page-break img",
	"img[data-src]",
	"img[src*='wp-content']",
}

func (m *Madara) ChapterImages(ctx context.Context, site *config.SiteConfig, chapter *data.Chapter) ([]*data.ChapterPage, error) {
	html, err := m.client.Get(ctx, chapter.URL, site)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, extractionErr(site.Name, "unparseable chapter page")
	}

	seen := make(map[string]bool)
	var urls []string
	for _, sel := range madaraImageSelectors {
		doc.Find(sel).Each(func(_ int, img *goquery.Selection) {
			u, _ := img.Attr("data-src")
			if u == "" {
				u, _ = img.Attr("src")
			}
			u = strings.TrimSpace(u)
			if u == "" || !isContentImage(u) || seen[u] {
				return
			}
			seen[u] = true
			urls = append(urls, u)
		})
	}
	sort.Strings(urls)

	if len(urls) == 0 {
		return nil, extractionErr(site.Name, "selector cascade matched no images")
	}

	logrus.WithFields(logrus.Fields{"chapter": chapter.Title, "pages": len(urls)}).
		Debug("selector cascade extracted images")

	pages := make([]*data.ChapterPage, len(urls))
	for i, u := range urls {
		pages[i] = data.NewChapterPage(chapter.ID, i+1, u)
	}
	return pages, nil
}

// isContentImage filters site furniture out of the image set.
func isContentImage(url string) bool {
	if !strings.HasPrefix(url, "http") || !hasImageExtension(url) {
		return false
	}
	for _, noise := range []string{"avatar", "logo", "icon"} {
		if strings.Contains(url, noise) {
			return false
		}
	}
	return true
}

var (
	madaraBlockRe = regexp.MustCompile(`<div class="bsx">([\s\S]*?)</div>\s*</div>`)
	madaraLinkRe  = regexp.MustCompile(`<a href="([^"]+)"[^>]*title="([^"]+)"`)
	madaraImgRe   = regexp.MustCompile(`<img[^>]+src="([^"]+)"[^>]*>`)
)

func (m *Madara) FirstPage(ctx context.Context, site *config.SiteConfig) ([]*data.CatalogEntry, error) {
	html, err := m.client.Get(ctx, site.BaseURL, site)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, extractionErr(site.Name, "unparseable catalog page")
	}

	// The container selectors overlap (body always matches), so entries are
	// deduplicated by URL.
	seen := make(map[string]bool)
	var entries []*data.CatalogEntry
	doc.Find(".listupd, .list-update, .postbody, body").Each(func(_ int, list *goquery.Selection) {
		list.Find(".bsx, .bs, .utao .bsx").Each(func(_ int, item *goquery.Selection) {
			a := item.Find("a[title][href]").First()
			url, _ := a.Attr("href")
			title := strings.TrimSpace(a.AttrOr("title", ""))
			cover, _ := item.Find("img[src]").First().Attr("src")

			if url == "" || title == "" || cover == "" || seen[url] {
				return
			}
			seen[url] = true
			entries = append(entries, &data.CatalogEntry{
				Title:    title,
				URL:      url,
				CoverURL: absoluteURL(site.BaseURL, cover),
			})
		})
	})

	// raw-HTML pass for theme variants the selectors miss
	if len(entries) == 0 {
		entries = m.firstPageFromRaw(site, html)
	}

	logrus.WithFields(logrus.Fields{"site": site.Name, "entries": len(entries)}).
		Info("catalog first page parsed")
	return entries, nil
}

func (m *Madara) firstPageFromRaw(site *config.SiteConfig, html string) []*data.CatalogEntry {
	var entries []*data.CatalogEntry
	for _, block := range madaraBlockRe.FindAllStringSubmatch(html, -1) {
		var url, title, cover string
		if lm := madaraLinkRe.FindStringSubmatch(block[1]); lm != nil {
			url = lm[1]
			title = strings.TrimSpace(lm[2])
		}
		if im := madaraImgRe.FindStringSubmatch(block[1]); im != nil {
			cover = im[1]
		}
		if url == "" || title == "" || cover == "" {
			continue
		}
		entries = append(entries, &data.CatalogEntry{
			Title:    title,
			URL:      url,
			CoverURL: absoluteURL(site.BaseURL, cover),
		})
	}
	return entries
}
