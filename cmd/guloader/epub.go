package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/integrations"
)

var epubCmd = &cobra.Command{
	Use:   "epub [manga-title or manga-id]",
	Short: "Compile a manga's downloaded chapters into an EPUB",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		manga, err := findManga(a, args[0])
		if err != nil {
			cobra.CheckErr(err)
		}
		chapters, err := a.repo.GetChaptersByManga(manga.ID)
		if err != nil {
			cobra.CheckErr(err)
		}

		if output == "" {
			output = filepath.Join(a.cfg.Storage.BasePath, "epub")
		}
		builder := integrations.NewEPubBuilder(a.storage, output)
		path, err := builder.CreateEPub(manga, chapters)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("EPUB generation failed: %w", err))
		}
		fmt.Printf("📖 EPUB created: %s\n", path)
	},
}

func init() {
	epubCmd.Flags().StringP("output", "o", "", "output directory (default <base_path>/epub)")
}
