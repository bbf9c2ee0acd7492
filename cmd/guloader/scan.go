package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/data"
)

var scanCmd = &cobra.Command{
	Use:   "scan [manga-title or manga-id]",
	Short: "Scan for new chapters",
	Long:  "Scan one manga, or every active manga when no argument is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		download, _ := cmd.Flags().GetBool("download")
		listNew, _ := cmd.Flags().GetBool("new")

		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()
		ctx := cmd.Context()

		var targets []*data.Manga
		if len(args) == 1 {
			manga, err := findManga(a, args[0])
			if err != nil {
				cobra.CheckErr(err)
			}
			targets = append(targets, manga)
		} else {
			mangas, err := a.repo.ListMangas()
			if err != nil {
				cobra.CheckErr(err)
			}
			for _, m := range mangas {
				if m.Status == data.MangaActive {
					targets = append(targets, m)
				}
			}
		}

		totalNew := 0
		for _, manga := range targets {
			newChapters, err := a.scan.ScanManga(ctx, manga.ID)
			if err != nil {
				fmt.Printf("⚠️  %s: %v\n", manga.Title, err)
				continue
			}
			fmt.Printf("🔍 %s: %d new chapter(s)\n", manga.Title, newChapters)
			totalNew += newChapters

			if !download && !listNew {
				continue
			}
			chapters, err := a.repo.GetChaptersByManga(manga.ID)
			if err != nil {
				cobra.CheckErr(err)
			}
			for _, chapter := range chapters {
				if chapter.Status != data.ChapterPending {
					continue
				}
				if listNew {
					fmt.Printf("   • Chapter %g (%s)\n", chapter.Number, chapter.URL)
				}
				if !download {
					continue
				}
				if err := a.download.DownloadChapter(ctx, chapter); err != nil {
					fmt.Printf("⚠️  chapter %g: %v\n", chapter.Number, err)
					continue
				}
				fmt.Printf("📥 chapter %g downloaded\n", chapter.Number)
			}
		}
		fmt.Printf("\n✅ Scan complete, %d new chapter(s)\n", totalNew)
	},
}

func init() {
	scanCmd.Flags().BoolP("download", "d", false, "download pending chapters after scanning")
	scanCmd.Flags().BoolP("new", "n", false, "list pending chapters after scanning")
}

// findManga resolves a CLI argument as a title first, then as an id.
func findManga(a *app, identifier string) (*data.Manga, error) {
	mangas, err := a.repo.ListMangas()
	if err != nil {
		return nil, err
	}
	for _, m := range mangas {
		if strings.EqualFold(m.Title, identifier) {
			return m, nil
		}
	}
	manga, err := a.repo.GetManga(identifier)
	if err != nil {
		return nil, err
	}
	if manga == nil {
		return nil, fmt.Errorf("%w: %s", data.ErrMangaNotFound, identifier)
	}
	return manga, nil
}
