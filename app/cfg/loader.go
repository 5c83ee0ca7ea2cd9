package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/rss.db" description:"Path to the SQLite database file"`
	StreamsFile string `long:"streams-file" env:"STREAMS_FILE" default:"./streams.yml" description:"Optional YAML file with streams and filters to register at startup"`

	// HTTP server
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`

	// Ingestion
	WorkerCount       int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	IngestConcurrency int           `long:"ingest-concurrency" env:"INGEST_CONCURRENCY" default:"1" description:"Items processed concurrently per stream during ingestion"`
	SchedulerInterval int           `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Ingestion interval in seconds"`
	Retention         time.Duration `long:"retention" env:"RETENTION" default:"720h" description:"Items older than this are purged at the start of every run"`
	FetchTimeout      time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10s" description:"Timeout for every outbound HTTP request"`
	UserAgent         string        `long:"user-agent" env:"USER_AGENT" default:"RSS Aggregator/1.0" description:"User agent for feed requests"`
	PageUserAgent     string        `long:"page-user-agent" env:"PAGE_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/125 (RSS Verification Bot)" description:"User agent for article page requests"`

	// Public feed
	FeedTitle       string        `long:"feed-title" env:"FEED_TITLE" default:"Latest" description:"Channel title of the aggregated feed"`
	FeedDescription string        `long:"feed-description" env:"FEED_DESCRIPTION" default:"The latest news from around the world." description:"Channel description of the aggregated feed"`
	RedisAddr       string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for caching rendered feed pages (optional)"`
	FeedCacheTTL    time.Duration `long:"feed-cache-ttl" env:"FEED_CACHE_TTL" default:"5m" description:"TTL of cached feed pages"`

	// Bootstrap account
	AdminUsername string `long:"admin-username" env:"ADMIN_USERNAME" default:"admin" description:"Username of the superadmin created on first start"`
	AdminPassword string `long:"admin-password" env:"ADMIN_PASSWORD" default:"admin" description:"Password of the superadmin created on first start"`
	AdminToken    string `long:"admin-token" env:"ADMIN_TOKEN" description:"API token of the superadmin created on first start (generated when empty)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		StreamsFile:       raw.StreamsFile,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		IngestConcurrency: max(raw.IngestConcurrency, 1),
		SchedulerInterval: raw.SchedulerInterval,
		Retention:         raw.Retention,
		FetchTimeout:      raw.FetchTimeout,
		UserAgent:         raw.UserAgent,
		PageUserAgent:     raw.PageUserAgent,
		FeedTitle:         raw.FeedTitle,
		FeedDescription:   raw.FeedDescription,
		RedisAddr:         raw.RedisAddr,
		FeedCacheTTL:      raw.FeedCacheTTL,
		AdminUsername:     raw.AdminUsername,
		AdminPassword:     raw.AdminPassword,
		AdminToken:        raw.AdminToken,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs cfg as the global configuration. Intended for tests.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func (c *Cfg) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive, got %d", c.WorkerCount)
	}
	if c.SchedulerInterval < 1 {
		return fmt.Errorf("scheduler interval must be positive, got %d", c.SchedulerInterval)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", c.Retention)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
