package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/data"
)

var downloadCmd = &cobra.Command{
	Use:   "download [site] [chapter-url]",
	Short: "Download a single chapter by URL",
	Long:  "Download one already-discovered chapter of a configured site into the downloads tree",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		site, chapterURL := args[0], args[1]

		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		if a.cfg.Site(site) == nil {
			cobra.CheckErr(fmt.Errorf("site %q is not configured", site))
		}

		chapter, err := a.repo.GetChapterByURL(chapterURL)
		if err != nil {
			cobra.CheckErr(err)
		}
		if chapter == nil {
			cobra.CheckErr(fmt.Errorf("%w: %s (scan its manga first)", data.ErrChapterNotFound, chapterURL))
		}

		if err := a.download.DownloadChapter(cmd.Context(), chapter); err != nil {
			cobra.CheckErr(fmt.Errorf("download failed: %w", err))
		}
		fmt.Printf("✅ Chapter %g of %s downloaded (%d pages)\n",
			chapter.Number, chapter.MangaTitle, chapter.PageCount)
	},
}
