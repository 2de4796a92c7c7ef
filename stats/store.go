package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lyrics-timeline-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	statsBucketName = "stats"
	statsKey        = "server_stats"
)

// Store persists a Stats instance to its own BoltDB file
type Store struct {
	db       *bolt.DB
	dbPath   string
	stats    *Stats
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PersistedStats is the on-disk form of the counters. Counters accumulate
// across restarts.
type PersistedStats struct {
	TotalRequests     int64 `json:"total_requests"`
	ParseRequests     int64 `json:"parse_requests"`
	DetectRequests    int64 `json:"detect_requests"`
	LookupRequests    int64 `json:"lookup_requests"`
	FormatRequests    int64 `json:"format_requests"`
	CacheRequests     int64 `json:"cache_requests"`
	StatsRequests     int64 `json:"stats_requests"`
	HealthRequests    int64 `json:"health_requests"`
	OtherRequests     int64 `json:"other_requests"`
	LineFormats       int64 `json:"line_formats"`
	WordFormats       int64 `json:"word_formats"`
	UnknownFormats    int64 `json:"unknown_formats"`
	ParseFailures     int64 `json:"parse_failures"`
	TimelineHits      int64 `json:"timeline_hits"`
	TimelineMisses    int64 `json:"timeline_misses"`
	RateLimitLookup   int64 `json:"rate_limit_lookup"`
	RateLimitParse    int64 `json:"rate_limit_parse"`
	RateLimitExceeded int64 `json:"rate_limit_exceeded"`
	Status2xx         int64 `json:"status_2xx"`
	Status4xx         int64 `json:"status_4xx"`
	Status5xx         int64 `json:"status_5xx"`

	TotalResponseTime   int64 `json:"total_response_time"`
	ResponseCount       int64 `json:"response_count"`
	MinResponseTime     int64 `json:"min_response_time"`
	MaxResponseTime     int64 `json:"max_response_time"`
	LookupResponseTime  int64 `json:"lookup_response_time"`
	LookupResponseCount int64 `json:"lookup_response_count"`

	LastSaved    time.Time `json:"last_saved"`
	FirstStarted time.Time `json:"first_started"`
}

// NewStore opens the stats database at dbPath for the given stats
func NewStore(dbPath string, stats *Stats) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(statsBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats bucket: %w", err)
	}

	log.Infof("%s Stats store initialized at %s", logcolors.LogStats, dbPath)
	return &Store{
		db:       db,
		dbPath:   dbPath,
		stats:    stats,
		stopChan: make(chan struct{}),
	}, nil
}

// Load applies the persisted counters to the stats
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var persisted PersistedStats
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(statsKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &persisted)
	})
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	stats := s.stats
	stats.TotalRequests.Store(persisted.TotalRequests)
	stats.ParseRequests.Store(persisted.ParseRequests)
	stats.DetectRequests.Store(persisted.DetectRequests)
	stats.LookupRequests.Store(persisted.LookupRequests)
	stats.FormatRequests.Store(persisted.FormatRequests)
	stats.CacheRequests.Store(persisted.CacheRequests)
	stats.StatsRequests.Store(persisted.StatsRequests)
	stats.HealthRequests.Store(persisted.HealthRequests)
	stats.OtherRequests.Store(persisted.OtherRequests)
	stats.LineFormats.Store(persisted.LineFormats)
	stats.WordFormats.Store(persisted.WordFormats)
	stats.UnknownFormats.Store(persisted.UnknownFormats)
	stats.ParseFailures.Store(persisted.ParseFailures)
	stats.TimelineHits.Store(persisted.TimelineHits)
	stats.TimelineMisses.Store(persisted.TimelineMisses)
	stats.RateLimitLookup.Store(persisted.RateLimitLookup)
	stats.RateLimitParse.Store(persisted.RateLimitParse)
	stats.RateLimitExceeded.Store(persisted.RateLimitExceeded)
	stats.Status2xx.Store(persisted.Status2xx)
	stats.Status4xx.Store(persisted.Status4xx)
	stats.Status5xx.Store(persisted.Status5xx)
	stats.totalResponseTime.Store(persisted.TotalResponseTime)
	stats.responseCount.Store(persisted.ResponseCount)
	stats.lookupResponseTime.Store(persisted.LookupResponseTime)
	stats.lookupResponseCount.Store(persisted.LookupResponseCount)

	if persisted.MinResponseTime > 0 && persisted.MinResponseTime < noResponseTime {
		stats.minResponseTime.Store(persisted.MinResponseTime)
	}
	if persisted.MaxResponseTime > 0 {
		stats.maxResponseTime.Store(persisted.MaxResponseTime)
	}
	if !persisted.FirstStarted.IsZero() {
		stats.StartTime = persisted.FirstStarted
	}

	log.Infof("%s Loaded persisted stats (total requests: %d, first started: %s)",
		logcolors.LogStats, persisted.TotalRequests, persisted.FirstStarted.Format(time.RFC3339))
	return nil
}

// Save writes the current counters to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	persisted := PersistedStats{
		TotalRequests:       stats.TotalRequests.Load(),
		ParseRequests:       stats.ParseRequests.Load(),
		DetectRequests:      stats.DetectRequests.Load(),
		LookupRequests:      stats.LookupRequests.Load(),
		FormatRequests:      stats.FormatRequests.Load(),
		CacheRequests:       stats.CacheRequests.Load(),
		StatsRequests:       stats.StatsRequests.Load(),
		HealthRequests:      stats.HealthRequests.Load(),
		OtherRequests:       stats.OtherRequests.Load(),
		LineFormats:         stats.LineFormats.Load(),
		WordFormats:         stats.WordFormats.Load(),
		UnknownFormats:      stats.UnknownFormats.Load(),
		ParseFailures:       stats.ParseFailures.Load(),
		TimelineHits:        stats.TimelineHits.Load(),
		TimelineMisses:      stats.TimelineMisses.Load(),
		RateLimitLookup:     stats.RateLimitLookup.Load(),
		RateLimitParse:      stats.RateLimitParse.Load(),
		RateLimitExceeded:   stats.RateLimitExceeded.Load(),
		Status2xx:           stats.Status2xx.Load(),
		Status4xx:           stats.Status4xx.Load(),
		Status5xx:           stats.Status5xx.Load(),
		TotalResponseTime:   stats.totalResponseTime.Load(),
		ResponseCount:       stats.responseCount.Load(),
		MinResponseTime:     stats.minResponseTime.Load(),
		MaxResponseTime:     stats.maxResponseTime.Load(),
		LookupResponseTime:  stats.lookupResponseTime.Load(),
		LookupResponseCount: stats.lookupResponseCount.Load(),
		LastSaved:           time.Now(),
		FirstStarted:        stats.StartTime,
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(statsBucketName))
		if b == nil {
			return fmt.Errorf("stats bucket not found")
		}
		return b.Put([]byte(statsKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// StartAutoSave saves the counters every interval until Close
func (s *Store) StartAutoSave(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Save(); err != nil {
					log.Warnf("%s Failed to auto-save stats: %v", logcolors.LogStats, err)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
	log.Infof("%s Started auto-save with interval %v", logcolors.LogStats, interval)
}

// Close stops auto-save, saves once more and closes the database
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()

	if err := s.Save(); err != nil {
		log.Warnf("%s Failed to save stats on close: %v", logcolors.LogStats, err)
	} else {
		log.Infof("%s Stats saved on shutdown", logcolors.LogStats)
	}
	return s.db.Close()
}
