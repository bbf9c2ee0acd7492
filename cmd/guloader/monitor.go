package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a monitor cycle over every active manga",
	Long:  "Scan all active manga, download new chapters, and retry failed ones. With --watch, repeat on the configured interval until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")

		a, err := newApp()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if watch {
			cobra.CheckErr(a.monitor.Watch(ctx))
			return
		}

		summary, err := a.monitor.RunCycle(ctx)
		if err != nil {
			cobra.CheckErr(err)
		}
		fmt.Printf("✅ Cycle complete: %d new, %d downloaded, %d failed\n",
			summary.NewChapters, summary.Downloaded, summary.Failed)
	},
}

func init() {
	monitorCmd.Flags().BoolP("watch", "w", false, "keep running on the configured interval")
}
