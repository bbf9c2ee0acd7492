// Package integrations holds exports to external reading formats.
package integrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-shiori/go-epub"

	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/storage"
)

// EPubBuilder compiles a manga's downloaded chapters into a single EPUB.
type EPubBuilder struct {
	storage   *storage.Manager
	outputDir string
}

func NewEPubBuilder(st *storage.Manager, outputDir string) *EPubBuilder {
	return &EPubBuilder{storage: st, outputDir: outputDir}
}

// CreateEPub writes <title>.epub containing every downloaded chapter's pages
// in chapter order and returns its path.
func (p *EPubBuilder) CreateEPub(manga *data.Manga, chapters []*data.Chapter) (string, error) {
	if len(chapters) == 0 {
		return "", fmt.Errorf("no chapters to compile")
	}
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	sorted := make([]*data.Chapter, len(chapters))
	copy(sorted, chapters)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	e, err := epub.NewEpub(manga.Title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor(manga.Site)
	if manga.Description != "" {
		e.SetDescription(manga.Description)
	}
	e.SetLang("en")

	added := 0
	for _, chapter := range sorted {
		if chapter.Status != data.ChapterDownloaded {
			continue
		}
		if err := p.addChapter(e, manga, chapter); err != nil {
			return "", fmt.Errorf("failed to add chapter %g: %w", chapter.Number, err)
		}
		added++
	}
	if added == 0 {
		return "", fmt.Errorf("no downloaded chapters to compile")
	}

	outputPath := filepath.Join(p.outputDir, storage.SanitizeFilename(manga.Title)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}
	return outputPath, nil
}

func (p *EPubBuilder) addChapter(e *epub.Epub, manga *data.Manga, chapter *data.Chapter) error {
	pagesDir, err := p.storage.PagesDir(manga.Title, chapter)
	if err != nil {
		return err
	}
	files, err := os.ReadDir(pagesDir)
	if err != nil {
		return fmt.Errorf("failed to read pages directory: %w", err)
	}

	var images []os.DirEntry
	for _, file := range files {
		if !file.IsDir() && isImageFile(file.Name()) {
			images = append(images, file)
		}
	}
	if len(images) == 0 {
		return fmt.Errorf("no page images found")
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Name() < images[j].Name() })

	chapterTitle := fmt.Sprintf("Chapter %g", chapter.Number)
	if chapter.Title != "" && chapter.Title != chapterTitle {
		chapterTitle = fmt.Sprintf("%s: %s", chapterTitle, chapter.Title)
	}

	var html strings.Builder
	html.WriteString(fmt.Sprintf("<h1>%s</h1>\n", chapterTitle))
	for i, img := range images {
		internalPath, err := e.AddImage(filepath.Join(pagesDir, img.Name()), "")
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", img.Name(), err)
		}
		html.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}

	if _, err := e.AddSection(html.String(), chapterTitle, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}

func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
