package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [days]",
	Short: "Remove chapters downloaded more than N days ago",
	Long:  "Delete page files and archives of old chapters. Database rows are kept and marked deleted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		days, err := strconv.Atoi(args[0])
		if err != nil || days < 0 {
			cobra.CheckErr(fmt.Errorf("invalid day count %q", args[0]))
		}

		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		removed, err := a.cleanup.CleanupOlderThan(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			cobra.CheckErr(err)
		}
		fmt.Printf("🧹 Removed %d chapter(s) older than %d day(s)\n", removed, days)
	},
}
