package config

import (
	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/lyrics"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                     string `envconfig:"PORT" default:"8080"`
		RateLimitPerSecond       int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"30"` // lookups arrive once per UI tick
		RateLimitBurstLimit      int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"60"`
		ParseRateLimitPerSecond  int    `envconfig:"PARSE_RATE_LIMIT_PER_SECOND" default:"2"`
		ParseRateLimitBurstLimit int    `envconfig:"PARSE_RATE_LIMIT_BURST_LIMIT" default:"5"`
		StoreAccessToken         string `envconfig:"STORE_ACCESS_TOKEN" default:""`
		APIKey                   string `envconfig:"API_KEY" default:""`
		APIKeyRequired           bool   `envconfig:"API_KEY_REQUIRED" default:"false"`
		StorePath                string `envconfig:"STORE_PATH" default:"./data/sources.db"`
		StoreBackupPath          string `envconfig:"STORE_BACKUP_PATH" default:"./data/backups"`
		StatsPath                string `envconfig:"STATS_PATH" default:"./data/stats.db"`
		StatsSaveIntervalSecs    int    `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"300"`
		AllowedOrigins           string `envconfig:"ALLOWED_ORIGINS" default:"*"`
		LogLevel                 string `envconfig:"LOG_LEVEL" default:"info"`
	}

	// Timing overrides, all in seconds. See lyrics.Timing.
	Timing struct {
		LineLookahead     float64 `envconfig:"LYRICS_LINE_LOOKAHEAD" default:"0.6"`
		WordLineEndLead   float64 `envconfig:"LYRICS_WORD_END_LEAD" default:"0.1"`
		WordLineStartLead float64 `envconfig:"LYRICS_WORD_START_LEAD" default:"0.2"`
		LongNoteThreshold float64 `envconfig:"LYRICS_LONG_NOTE_THRESHOLD" default:"2.0"`
		MergeTolerance    float64 `envconfig:"LYRICS_MERGE_TOLERANCE" default:"0.1"`
	}

	FeatureFlags struct {
		StoreCompression bool `envconfig:"FF_STORE_COMPRESSION" default:"true"`
		PersistStats     bool `envconfig:"FF_PERSIST_STATS" default:"true"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debugf("%s No .env file loaded: %v", logcolors.LogConfig, err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("%s Unable to load configuration", logcolors.LogConfig)
	}

	return c
}

func Get() Config {
	return conf
}

// LyricsTiming converts the timing overrides for the lyrics package
func (c Config) LyricsTiming() lyrics.Timing {
	return lyrics.Timing{
		LineLookahead:     c.Timing.LineLookahead,
		WordLineEndLead:   c.Timing.WordLineEndLead,
		WordLineStartLead: c.Timing.WordLineStartLead,
		LongNoteThreshold: c.Timing.LongNoteThreshold,
		MergeTolerance:    c.Timing.MergeTolerance,
	}
}
