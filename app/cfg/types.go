package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath      string
	StreamsFile string

	// HTTP server
	Port    string
	BaseUrl string

	// Ingestion
	WorkerCount       int
	IngestConcurrency int
	SchedulerInterval int
	Retention         time.Duration
	FetchTimeout      time.Duration
	UserAgent         string
	PageUserAgent     string

	// Public feed
	FeedTitle       string
	FeedDescription string
	RedisAddr       string
	FeedCacheTTL    time.Duration

	// Bootstrap account
	AdminUsername string
	AdminPassword string
	AdminToken    string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// PublicURL returns the externally visible base URL without a trailing slash.
func (c *Cfg) PublicURL() string {
	if c.BaseUrl != "" {
		return trimSlash(c.BaseUrl)
	}
	return "http://localhost:" + c.Port
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
