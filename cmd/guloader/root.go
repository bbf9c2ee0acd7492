package cmd

import (
	"database/sql"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/guloader/guloader/pkg/config"
	"github.com/guloader/guloader/pkg/data"
	"github.com/guloader/guloader/pkg/fetch"
	"github.com/guloader/guloader/pkg/notify"
	"github.com/guloader/guloader/pkg/services"
	"github.com/guloader/guloader/pkg/sources"
	"github.com/guloader/guloader/pkg/storage"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guloader",
	Short: "A manga site monitor and downloader",
	Long:  "Monitor manga sites for new chapters, download pages, and archive them locally",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.toml", "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(epubCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired service graph every subcommand runs against.
type app struct {
	cfg      *config.Config
	db       *sql.DB
	repo     *data.Repository
	client   *fetch.Client
	registry *sources.Registry
	storage  *storage.Manager
	scan     *services.ScanService
	download *services.DownloadService
	monitor  *services.MonitorService
	catalog  *services.CatalogService
	cleanup  *services.CleanupService
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := data.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	repo := data.NewRepository(db)

	client := fetch.New()
	registry := sources.NewRegistry(client)
	st := storage.NewManager(cfg.Storage)

	scan := services.NewScanService(cfg, repo, registry)
	download := services.NewDownloadService(cfg, repo, registry, client, st)
	notifier := notify.NewNotifier(cfg.Notifications)

	return &app{
		cfg:      cfg,
		db:       db,
		repo:     repo,
		client:   client,
		registry: registry,
		storage:  st,
		scan:     scan,
		download: download,
		monitor:  services.NewMonitorService(cfg, repo, scan, download, notifier),
		catalog:  services.NewCatalogService(cfg, repo, registry, client, st, scan, download),
		cleanup:  services.NewCleanupService(repo, st),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		logrus.WithError(err).Warn("failed to close database")
	}
}

// loadConfig reads the configured TOML file, or falls back to defaults when
// it does not exist yet.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		logrus.WithField("path", cfgPath).Warn("config file not found, using defaults")
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}
