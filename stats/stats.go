package stats

import (
	"strings"
	"sync/atomic"
	"time"

	"lyrics-timeline-go/lyrics"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests  atomic.Int64
	ParseRequests  atomic.Int64
	DetectRequests atomic.Int64
	LookupRequests atomic.Int64
	FormatRequests atomic.Int64
	CacheRequests  atomic.Int64
	StatsRequests  atomic.Int64
	HealthRequests atomic.Int64
	OtherRequests  atomic.Int64

	// Parsing
	LineFormats    atomic.Int64
	WordFormats    atomic.Int64
	UnknownFormats atomic.Int64
	ParseFailures  atomic.Int64

	// Timeline memo
	TimelineHits   atomic.Int64
	TimelineMisses atomic.Int64

	// Rate limiting
	RateLimitLookup   atomic.Int64
	RateLimitParse    atomic.Int64
	RateLimitExceeded atomic.Int64 // rejected with 429

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	lookupResponseTime  atomic.Int64
	lookupResponseCount atomic.Int64
}

const noResponseTime = int64(^uint64(0) >> 1)

var global = New()

// New returns a zeroed Stats starting now
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(noResponseTime)
	return s
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// endpointGroup maps a request path onto the counter that tracks it
func endpointGroup(path string) string {
	switch {
	case path == "/parse":
		return "parse"
	case path == "/detect":
		return "detect"
	case strings.HasPrefix(path, "/tracks/"):
		return "lookup"
	case path == "/format":
		return "format"
	case path == "/cache" || strings.HasPrefix(path, "/cache/"):
		return "cache"
	case path == "/stats":
		return "stats"
	case path == "/health":
		return "health"
	default:
		return "other"
	}
}

// RecordRequest records a request to the given path
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch endpointGroup(path) {
	case "parse":
		s.ParseRequests.Add(1)
	case "detect":
		s.DetectRequests.Add(1)
	case "lookup":
		s.LookupRequests.Add(1)
	case "format":
		s.FormatRequests.Add(1)
	case "cache":
		s.CacheRequests.Add(1)
	case "stats":
		s.StatsRequests.Add(1)
	case "health":
		s.HealthRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordFormat records the detected format of a submitted text
func (s *Stats) RecordFormat(format lyrics.Format) {
	switch format {
	case lyrics.FormatLine:
		s.LineFormats.Add(1)
	case lyrics.FormatWord:
		s.WordFormats.Add(1)
	default:
		s.UnknownFormats.Add(1)
	}
}

// RecordParseFailure records a parse that was recovered into the empty set
func (s *Stats) RecordParseFailure() {
	s.ParseFailures.Add(1)
}

// RecordTimelineHit records a lookup served from the in-memory timeline
func (s *Stats) RecordTimelineHit() {
	s.TimelineHits.Add(1)
}

// RecordTimelineMiss records a lookup that had to parse the stored source
func (s *Stats) RecordTimelineMiss() {
	s.TimelineMisses.Add(1)
}

// RecordRateLimit records rate limit tier usage
func (s *Stats) RecordRateLimit(tier string) {
	switch tier {
	case "lookup":
		s.RateLimitLookup.Add(1)
	case "parse":
		s.RateLimitParse.Add(1)
	case "exceeded":
		s.RateLimitExceeded.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time for the given path
func (s *Stats) RecordResponseTime(duration time.Duration, path string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if endpointGroup(path) == "lookup" {
		s.lookupResponseTime.Add(us)
		s.lookupResponseCount.Add(1)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// TimelineHitRate returns the share of lookups served from memory, in percent
func (s *Stats) TimelineHitRate() float64 {
	hits := s.TimelineHits.Load()
	total := hits + s.TimelineMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == noResponseTime {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgLookupResponseTime returns the average response time of track lookups
func (s *Stats) AvgLookupResponseTime() time.Duration {
	count := s.lookupResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.lookupResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":  s.TotalRequests.Load(),
			"parse":  s.ParseRequests.Load(),
			"detect": s.DetectRequests.Load(),
			"lookup": s.LookupRequests.Load(),
			"format": s.FormatRequests.Load(),
			"cache":  s.CacheRequests.Load(),
			"stats":  s.StatsRequests.Load(),
			"health": s.HealthRequests.Load(),
			"other":  s.OtherRequests.Load(),
		},
		"parsing": map[string]interface{}{
			"line_formats":    s.LineFormats.Load(),
			"word_formats":    s.WordFormats.Load(),
			"unknown_formats": s.UnknownFormats.Load(),
			"failures":        s.ParseFailures.Load(),
		},
		"timelines": map[string]interface{}{
			"hits":     s.TimelineHits.Load(),
			"misses":   s.TimelineMisses.Load(),
			"hit_rate": s.TimelineHitRate(),
		},
		"rate_limiting": map[string]interface{}{
			"lookup_tier": s.RateLimitLookup.Load(),
			"parse_tier":  s.RateLimitParse.Load(),
			"exceeded":    s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":        s.AvgResponseTime().String(),
			"min":        s.MinResponseTime().String(),
			"max":        s.MaxResponseTime().String(),
			"avg_lookup": s.AvgLookupResponseTime().String(),
		},
	}
}
