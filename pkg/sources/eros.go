package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/fetch"
)

// Eros handles sites that embed a JSON-like reader payload in an inline
// ts_reader.run(...) script. Chapter listings are regular HTML; page images
// are pulled out of the payload by bracket scanning plus regex.
type Eros struct {
	client *fetch.Client
}

func NewEros(client *fetch.Client) *Eros {
	return &Eros{client: client}
}

func (e *Eros) ScanManga(ctx context.Context, site *config.SiteConfig, manga *data.Manga) ([]*data.Chapter, error) {
	logrus.WithFields(logrus.Fields{"site": site.Name, "manga": manga.Title}).
		Info("scanning title page")

	html, err := e.client.Get(ctx, manga.URL, site)
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
	linkSel := site.Selectors.ChapterURL
	if linkSel == "" {
		linkSel = ".eph-num a"
	}
	titleSel := site.Selectors.ChapterTitle
	if titleSel == "" {
		titleSel = ".chapternum"
	}

	var chapters []*data.Chapter
	doc.Find(listSel).Each(func(i int, item *goquery.Selection) {
		link := item.Find(linkSel).First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}

		title := strings.TrimSpace(link.Find(titleSel).First().Text())
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}

		ch := data.NewChapter(
			manga.ID, manga.Title, title,
			chapterNumber(title, i),
			absoluteURL(site.BaseURL, href))
		chapters = append(chapters, ch)
	})

	logrus.WithFields(logrus.Fields{"manga": manga.Title, "chapters": len(chapters)}).
		Info("title page scanned")
	return chapters, nil
}

const readerMarker = "ts_reader.run("

// erosImageRe matches the escaped absolute image URLs inside the reader
// payload, e.g. https:\/\/cdn.example\/x.webp.
var erosImageRe = regexp.MustCompile(`https:\\/\\/[^"]+?\.(?:webp|jpg|jpeg|png)`)

func (e *Eros) ChapterImages(ctx context.Context, site *config.SiteConfig, chapter *data.Chapter) ([]*data.ChapterPage, error) {
	logrus.WithFields(logrus.Fields{"site": site.Name, "chapter": chapter.Title}).
		Debug("extracting reader payload")

	html, err := e.client.Get(ctx, chapter.URL, site)
	if err != nil {
		return nil, err
	}

	payload, err := readerPayload(site.Name, html)
	if err != nil {
		return nil, err
	}
	imagesArray, err := imagesArray(site.Name, payload)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, m := range erosImageRe.FindAllString(imagesArray, -1) {
		urls = append(urls, strings.ReplaceAll(m, `\`, ""))
	}
	if len(urls) == 0 {
		logrus.WithField("chapter", chapter.Title).
			Debug("escaped-URL pattern found nothing, trying token split")
		urls = splitImageTokens(imagesArray)
	}
	if len(urls) == 0 {
		return nil, extractionErr(site.Name, "no image URLs in reader payload")
	}

	pages := make([]*data.ChapterPage, len(urls))
	for i, u := range urls {
		pages[i] = data.NewChapterPage(chapter.ID, i+1, u)
	}
	return pages, nil
}

// readerPayload isolates the ts_reader.run(...) call in the raw document.
func readerPayload(siteName, html string) (string, error) {
	start := strings.Index(html, readerMarker)
	if start < 0 {
		return "", extractionErr(siteName, "reader marker not found")
	}
	rest := html[start:]
	end := strings.Index(rest, ");")
	if end < 0 {
		return "", extractionErr(siteName, "reader payload not terminated")
	}
	return rest[:end], nil
}

// imagesArray isolates the balanced "images":[...] array inside the payload.
// A bracket-depth scan is required: the payload can hold nested arrays, so a
// whole-document regex would cut the array short.
func imagesArray(siteName, payload string) (string, error) {
	start := strings.Index(payload, `"images":[`)
	if start < 0 {
		return "", extractionErr(siteName, "images array not found")
	}
	rest := payload[start:]

	depth := 0
	for i, r := range rest {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[:i+1], nil
			}
		}
	}
	return "", extractionErr(siteName, "images array not balanced")
}

// splitImageTokens is the naive fallback: comma-split the raw array and
// sanitize each token.
func splitImageTokens(imagesArray string) []string {
	clean := strings.Replace(imagesArray, `"images":[`, "", 1)

	var urls []string
	for _, token := range strings.Split(clean, ",") {
		u := strings.TrimSpace(token)
		u = strings.ReplaceAll(u, `"`, "")
		u = strings.ReplaceAll(u, `\`, "")
		u = strings.ReplaceAll(u, "]", "")
		if strings.HasPrefix(u, "https://") && hasImageExtension(u) {
			urls = append(urls, u)
		}
	}
	return urls
}

func (e *Eros) FirstPage(ctx context.Context, site *config.SiteConfig) ([]*data.CatalogEntry, error) {
	html, err := e.client.Get(ctx, site.BaseURL, site)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, extractionErr(site.Name, "unparseable catalog page")
	}

	var entries []*data.CatalogEntry
	doc.Find("div.utao.styletwo").Each(func(_ int, block *goquery.Selection) {
		url, _ := block.Find(".imgu a.series").First().Attr("href")
		cover, _ := block.Find(".imgu img").First().Attr("src")
		title := strings.TrimSpace(block.Find("h4").First().Text())

		// title and URL are required; cover is best effort
		if url == "" || title == "" {
			return
		}

		entries = append(entries, &data.CatalogEntry{
			Title:    title,
			URL:      url,
			CoverURL: absoluteURL(site.BaseURL, cover),
		})
	})

	logrus.WithFields(logrus.Fields{"site": site.Name, "entries": len(entries)}).
		Info("catalog first page parsed")
	return entries, nil
}
