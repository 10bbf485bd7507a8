package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1

	DefaultFreshTTL         = 2 * time.Hour
	DefaultDegradedTTL      = 24 * time.Hour
	DefaultUpstreamTimeout  = 15 * time.Second
	DefaultCacheWriteBuffer = 64
	DefaultSQLitePath       = "assetsync.db"
	DefaultFMPBaseURL       = "https://financialmodelingprep.com"
)
