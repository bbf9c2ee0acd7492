package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/config"
)

var checkCmd = &cobra.Command{
	Use:   "check [site]",
	Short: "Check a site's catalog for new titles",
	Long:  "Fetch the first catalog page of a configured site and register titles not seen before",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		downloadAll, _ := cmd.Flags().GetBool("download")
		writeConfig, _ := cmd.Flags().GetBool("cfg")

		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		added, err := a.catalog.CheckSite(cmd.Context(), args[0], downloadAll)
		if err != nil {
			cobra.CheckErr(err)
		}
		if len(added) == 0 {
			fmt.Println("✅ No new titles found")
			return
		}

		for _, manga := range added {
			fmt.Printf("➕ %s (%s)\n", manga.Title, manga.URL)
		}
		fmt.Printf("\n✅ %d new title(s) registered\n", len(added))

		if writeConfig {
			for _, manga := range added {
				a.cfg.Manga = append(a.cfg.Manga, config.MangaConfig{
					Title:  manga.Title,
					Site:   manga.Site,
					URL:    manga.URL,
					Active: true,
				})
			}
			if err := a.cfg.Save(cfgPath); err != nil {
				cobra.CheckErr(err)
			}
			fmt.Printf("📝 Config updated: %s\n", cfgPath)
		}
	},
}

func init() {
	checkCmd.Flags().BoolP("download", "d", false, "scan and download every chapter of newly found titles")
	checkCmd.Flags().Bool("cfg", false, "append newly found titles to the config file")
}
