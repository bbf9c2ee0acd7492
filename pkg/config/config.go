package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level TOML configuration for guloader.
type Config struct {
	Database      DatabaseConfig        `toml:"database"`
	Storage       StorageConfig         `toml:"storage"`
	Sites         map[string]SiteConfig `toml:"sites"`
	Scanner       ScannerConfig         `toml:"scanner"`
	Notifications NotificationConfig    `toml:"notifications"`
	Manga         []MangaConfig         `toml:"manga"`
}

type DatabaseConfig struct {
	Path           string `toml:"path"`
	MaxConnections int    `toml:"max_connections"`
}

type StorageConfig struct {
	BasePath      string `toml:"base_path"`
	ScansPath     string `toml:"scans_path"`
	MaxSizeGB     int64  `toml:"max_size_gb"`
	Compression   bool   `toml:"compression"`
	ThumbnailSize int    `toml:"thumbnail_size"`
}

// SiteConfig describes one monitored site: where it lives, which adapter
// family parses it, and how to talk to it politely.
type SiteConfig struct {
	Name           string            `toml:"name"`
	BaseURL        string            `toml:"base_url"`
	ScannerType    string            `toml:"scanner_type"`
	DownloaderType string            `toml:"downloader_type"`
	CatalogType    string            `toml:"catalog_type"`
	RateLimitMs    int               `toml:"rate_limit_ms"`
	UserAgent      string            `toml:"user_agent"`
	Headers        map[string]string `toml:"headers"`
	Selectors      SelectorsConfig   `toml:"selectors"`
}

type SelectorsConfig struct {
	MangaList      string `toml:"manga_list"`
	ChapterList    string `toml:"chapter_list"`
	ChapterTitle   string `toml:"chapter_title"`
	ChapterURL     string `toml:"chapter_url"`
	ImageContainer string `toml:"image_container"`
	ImageURL       string `toml:"image_url"`
	NextPage       string `toml:"next_page"`
}

type MangaConfig struct {
	Title  string `toml:"title"`
	Site   string `toml:"site"`
	URL    string `toml:"url"`
	Active bool   `toml:"active"`
}

type ScannerConfig struct {
	IntervalMinutes    int `toml:"interval_minutes"`
	MaxConcurrentScans int `toml:"max_concurrent_scans"`
	MaxPageDownloads   int `toml:"max_page_downloads"`
	RetryAttempts      int `toml:"retry_attempts"`
	RetryDelayMs       int `toml:"retry_delay_ms"`
}

type NotificationConfig struct {
	DiscordWebhook   string      `toml:"discord_webhook"`
	TelegramBotToken string      `toml:"telegram_bot_token"`
	TelegramChatID   string      `toml:"telegram_chat_id"`
	EmailSMTP        *SMTPConfig `toml:"email_smtp"`
}

type SMTPConfig struct {
	Server   string   `toml:"server"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

// Load reads a TOML config file and fills in defaults for missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config back to disk. Used by `check --cfg` to append
// newly discovered manga.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// Site returns the configuration for a site by its key, or nil.
func (c *Config) Site(name string) *SiteConfig {
	if site, ok := c.Sites[name]; ok {
		return &site
	}
	return nil
}

// Default returns a config with the built-in eros site and sane limits.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:           "data/guloader.db",
			MaxConnections: 10,
		},
		Storage: StorageConfig{
			BasePath:      "./downloads",
			ScansPath:     "./scans",
			MaxSizeGB:     50,
			Compression:   true,
			ThumbnailSize: 200,
		},
		Sites: map[string]SiteConfig{
			"eros": {
				Name:           "Eros Moon",
				BaseURL:        "https://eros-moon.xyz",
				ScannerType:    "eros",
				DownloaderType: "eros",
				CatalogType:    "eros",
				RateLimitMs:    1500,
				UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
				Selectors: SelectorsConfig{
					MangaList:      ".story_item",
					ChapterList:    "#chapterlist li",
					ChapterTitle:   ".chapternum",
					ChapterURL:     ".eph-num a",
					ImageContainer: ".reader-main",
					ImageURL:       ".reader-main img",
					NextPage:       ".nav-next a",
				},
			},
		},
		Scanner: ScannerConfig{
			IntervalMinutes:    10,
			MaxConcurrentScans: 5,
			MaxPageDownloads:   4,
			RetryAttempts:      3,
			RetryDelayMs:       5000,
		},
		Notifications: NotificationConfig{},
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/guloader.db"
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./downloads"
	}
	if c.Storage.ScansPath == "" {
		c.Storage.ScansPath = "./scans"
	}
	if c.Storage.ThumbnailSize == 0 {
		c.Storage.ThumbnailSize = 200
	}
	if c.Scanner.IntervalMinutes == 0 {
		c.Scanner.IntervalMinutes = 10
	}
	if c.Scanner.MaxConcurrentScans == 0 {
		c.Scanner.MaxConcurrentScans = 5
	}
	if c.Scanner.MaxPageDownloads == 0 {
		c.Scanner.MaxPageDownloads = 4
	}
	if c.Scanner.RetryAttempts == 0 {
		c.Scanner.RetryAttempts = 3
	}
	if c.Scanner.RetryDelayMs == 0 {
		c.Scanner.RetryDelayMs = 5000
	}
}
