package stats

import (
	"path/filepath"
	"testing"
	"time"

	"lyrics-timeline-go/lyrics"
)

func TestRecordRequest(t *testing.T) {
	tests := []struct {
		path    string
		counter func(*Stats) int64
	}{
		{"/parse", func(s *Stats) int64 { return s.ParseRequests.Load() }},
		{"/detect", func(s *Stats) int64 { return s.DetectRequests.Load() }},
		{"/tracks/abc/line", func(s *Stats) int64 { return s.LookupRequests.Load() }},
		{"/tracks/abc", func(s *Stats) int64 { return s.LookupRequests.Load() }},
		{"/format", func(s *Stats) int64 { return s.FormatRequests.Load() }},
		{"/cache", func(s *Stats) int64 { return s.CacheRequests.Load() }},
		{"/cache/backup", func(s *Stats) int64 { return s.CacheRequests.Load() }},
		{"/stats", func(s *Stats) int64 { return s.StatsRequests.Load() }},
		{"/health", func(s *Stats) int64 { return s.HealthRequests.Load() }},
		{"/", func(s *Stats) int64 { return s.OtherRequests.Load() }},
		{"/tracks", func(s *Stats) int64 { return s.OtherRequests.Load() }},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s := New()
			s.RecordRequest(tt.path)

			if got := tt.counter(s); got != 1 {
				t.Errorf("Expected counter 1 for %s, got %d", tt.path, got)
			}
			if got := s.TotalRequests.Load(); got != 1 {
				t.Errorf("Expected total 1, got %d", got)
			}
		})
	}
}

func TestRecordFormat(t *testing.T) {
	s := New()
	s.RecordFormat(lyrics.FormatLine)
	s.RecordFormat(lyrics.FormatWord)
	s.RecordFormat(lyrics.FormatWord)
	s.RecordFormat(lyrics.FormatUnknown)

	if got := s.LineFormats.Load(); got != 1 {
		t.Errorf("Expected 1 line format, got %d", got)
	}
	if got := s.WordFormats.Load(); got != 2 {
		t.Errorf("Expected 2 word formats, got %d", got)
	}
	if got := s.UnknownFormats.Load(); got != 1 {
		t.Errorf("Expected 1 unknown format, got %d", got)
	}
}

func TestRecordStatusCode(t *testing.T) {
	s := New()
	for _, code := range []int{200, 201, 304, 404, 429, 500, 503} {
		s.RecordStatusCode(code)
	}

	if got := s.Status2xx.Load(); got != 2 {
		t.Errorf("Expected 2xx = 2, got %d", got)
	}
	if got := s.Status4xx.Load(); got != 2 {
		t.Errorf("Expected 4xx = 2, got %d", got)
	}
	if got := s.Status5xx.Load(); got != 2 {
		t.Errorf("Expected 5xx = 2, got %d", got)
	}
}

func TestResponseTimes(t *testing.T) {
	s := New()

	if s.MinResponseTime() != 0 || s.AvgResponseTime() != 0 {
		t.Error("Expected zero response times before any request")
	}

	s.RecordResponseTime(10*time.Millisecond, "/tracks/a/line")
	s.RecordResponseTime(30*time.Millisecond, "/parse")

	if got := s.MinResponseTime(); got != 10*time.Millisecond {
		t.Errorf("Expected min 10ms, got %v", got)
	}
	if got := s.MaxResponseTime(); got != 30*time.Millisecond {
		t.Errorf("Expected max 30ms, got %v", got)
	}
	if got := s.AvgResponseTime(); got != 20*time.Millisecond {
		t.Errorf("Expected avg 20ms, got %v", got)
	}
	if got := s.AvgLookupResponseTime(); got != 10*time.Millisecond {
		t.Errorf("Expected lookup avg 10ms, got %v", got)
	}
}

func TestTimelineHitRate(t *testing.T) {
	s := New()
	if s.TimelineHitRate() != 0 {
		t.Error("Expected 0 hit rate without lookups")
	}

	s.RecordTimelineHit()
	s.RecordTimelineHit()
	s.RecordTimelineHit()
	s.RecordTimelineMiss()

	if got := s.TimelineHitRate(); got != 75 {
		t.Errorf("Expected 75%% hit rate, got %v", got)
	}
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.RecordRequest("/parse")
	s.RecordParseFailure()
	s.RecordRateLimit("exceeded")

	snapshot := s.Snapshot()
	for _, key := range []string{"server", "requests", "parsing", "timelines", "rate_limiting", "responses", "response_times"} {
		if _, ok := snapshot[key]; !ok {
			t.Errorf("Expected snapshot key %q", key)
		}
	}

	parsing := snapshot["parsing"].(map[string]interface{})
	if parsing["failures"] != int64(1) {
		t.Errorf("Expected 1 failure, got %v", parsing["failures"])
	}
	limits := snapshot["rate_limiting"].(map[string]interface{})
	if limits["exceeded"] != int64(1) {
		t.Errorf("Expected 1 exceeded, got %v", limits["exceeded"])
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	original := New()
	original.RecordRequest("/parse")
	original.RecordRequest("/tracks/x/line")
	original.RecordFormat(lyrics.FormatWord)
	original.RecordResponseTime(5*time.Millisecond, "/tracks/x/line")

	store, err := NewStore(dbPath, original)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	restored := New()
	reopened, err := NewStore(dbPath, restored)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	if err := reopened.Load(); err != nil {
		t.Fatalf("Failed to load stats: %v", err)
	}

	tests := []struct {
		name     string
		got      int64
		expected int64
	}{
		{"total", restored.TotalRequests.Load(), 2},
		{"parse", restored.ParseRequests.Load(), 1},
		{"lookup", restored.LookupRequests.Load(), 1},
		{"word formats", restored.WordFormats.Load(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, tt.got)
			}
		})
	}

	if got := restored.MinResponseTime(); got != 5*time.Millisecond {
		t.Errorf("Expected min 5ms after load, got %v", got)
	}
	if !restored.StartTime.Equal(original.StartTime) {
		t.Errorf("Expected start time %v, got %v", original.StartTime, restored.StartTime)
	}
}

func TestStoreLoadEmpty(t *testing.T) {
	s := New()
	store, err := NewStore(filepath.Join(t.TempDir(), "stats.db"), s)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.Load(); err != nil {
		t.Errorf("Expected no error loading empty store, got %v", err)
	}
	if s.TotalRequests.Load() != 0 {
		t.Errorf("Expected zero counters, got %d", s.TotalRequests.Load())
	}
}

func TestStoreAutoSave(t *testing.T) {
	s := New()
	store, err := NewStore(filepath.Join(t.TempDir(), "stats.db"), s)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	store.StartAutoSave(10 * time.Millisecond)
	s.RecordRequest("/health")
	time.Sleep(50 * time.Millisecond)

	if err := store.Close(); err != nil {
		t.Errorf("Failed to close store: %v", err)
	}
}
