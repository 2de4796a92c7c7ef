package main

import (
	"lyrics-timeline-go/cache"
	"lyrics-timeline-go/lyrics"
)

type contextKey string

const (
	rateLimitTypeKey contextKey = "rateLimitType"
)

// ParseResponse is returned by /parse and /tracks/{id}
type ParseResponse struct {
	ID     string        `json:"id,omitempty"`
	Format lyrics.Format `json:"format"`
	Lyrics lyrics.Set    `json:"lyrics"`
}

// LineResponse is returned by /tracks/{id}/line
type LineResponse struct {
	ID    string       `json:"id"`
	Time  float64      `json:"time"`
	Index int          `json:"index"`
	Line  *lyrics.Line `json:"line"`
}

// WordsResponse is returned by /tracks/{id}/words
type WordsResponse struct {
	ID string `json:"id"`
	lyrics.Frame
}

// StoreDumpResponse is the response format for /cache
type StoreDumpResponse struct {
	NumberOfKeys int                 `json:"number_of_keys"`
	SizeInKB     int                 `json:"size_kb"`
	Timelines    int                 `json:"timelines_in_memory"`
	Performance  TimelinePerformance `json:"performance"`
	IDs          []string            `json:"ids"`
}

// TimelinePerformance contains timeline memo hit/miss statistics
type TimelinePerformance struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate_percent"`
}

// BackupListResponse is the response format for /cache/backups
type BackupListResponse struct {
	Count   int                `json:"count"`
	Backups []cache.BackupInfo `json:"backups"`
}
