package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/data"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the monitored library",
	Long:  "Display every monitored manga with its chapter counts in a formatted table",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		mangas, err := a.repo.ListMangas()
		if err != nil {
			cobra.CheckErr(err)
		}
		if len(mangas) == 0 {
			fmt.Println("📚 Nothing monitored yet. Use 'guloader check <site>' or the config file to add manga.")
			return
		}

		columns := []table.Column{
			{Title: "Title", Width: 40},
			{Title: "Site", Width: 10},
			{Title: "Status", Width: 10},
			{Title: "Chapters", Width: 10},
			{Title: "Downloaded", Width: 12},
			{Title: "Last Scan", Width: 10},
			{Title: "Last Update", Width: 18},
		}

		rows := []table.Row{}
		for _, manga := range mangas {
			chapters, err := a.repo.GetChaptersByManga(manga.ID)
			if err != nil {
				cobra.CheckErr(err)
			}
			downloaded := 0
			for _, ch := range chapters {
				if ch.Status == data.ChapterDownloaded {
					downloaded++
				}
			}
			lastScan := "-"
			if logs, err := a.repo.GetScanLogs(manga.ID, 1); err == nil && len(logs) > 0 {
				lastScan = logs[0].Status
			}

			rows = append(rows, table.Row{
				truncateString(manga.Title, 38),
				manga.Site,
				manga.Status,
				fmt.Sprintf("%d", len(chapters)),
				fmt.Sprintf("%d", downloaded),
				lastScan,
				manga.LastUpdated.Format("2006-01-02 15:04"),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		t.SetStyles(s)

		fmt.Printf("\n📚 Monitored manga (%d)\n\n", len(mangas))
		fmt.Println(t.View())
	},
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
