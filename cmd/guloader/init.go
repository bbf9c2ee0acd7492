package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/data"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database and register configured manga",
	Long:  "Create the database schema and insert the manga listed in the config file",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		added := 0
		for _, mc := range a.cfg.Manga {
			existing, err := a.repo.GetMangaByURL(mc.URL)
			if err != nil {
				cobra.CheckErr(err)
			}
			if existing != nil {
				continue
			}
			manga := data.NewManga(mc.Title, mc.Site, mc.URL)
			if !mc.Active {
				manga.Status = data.MangaPaused
			}
			if err := a.repo.CreateManga(manga); err != nil {
				cobra.CheckErr(err)
			}
			added++
		}

		fmt.Printf("✅ Database ready at %s, %d manga registered\n", a.cfg.Database.Path, added)
	},
}
