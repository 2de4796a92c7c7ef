package main

import (
	"fmt"
	"sync"

	"lyrics-timeline-go/cache"
	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/lyrics"
	"lyrics-timeline-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// trackRegistry resolves track ids to parsed timelines. Raw sources live in
// the source store; parsed timelines are only kept in memory.
type trackRegistry struct {
	store     *cache.SourceStore
	parser    *lyrics.Parser
	timing    lyrics.Timing
	timelines sync.Map
	inFlight  singleflight.Group

	// mu guards generations and epoch. A parse started from the store only
	// lands in the memo if neither moved while it ran.
	mu          sync.Mutex
	generations map[string]uint64
	epoch       uint64
}

// revision identifies the state of one id in the memo
type revision struct {
	epoch      uint64
	generation uint64
}

func newTrackRegistry(store *cache.SourceStore, timing lyrics.Timing) *trackRegistry {
	parser := lyrics.NewParser(timing)
	parser.OnFailure = func(err error) {
		stats.Get().RecordParseFailure()
	}

	return &trackRegistry{
		store:       store,
		parser:      parser,
		timing:      timing,
		generations: make(map[string]uint64),
	}
}

func (t *trackRegistry) revision(id string) revision {
	t.mu.Lock()
	defer t.mu.Unlock()
	return revision{epoch: t.epoch, generation: t.generations[id]}
}

// replace bumps the generation of id and swaps its memo entry. A nil
// timeline drops the entry.
func (t *trackRegistry) replace(id string, timeline *lyrics.Timeline) {
	t.mu.Lock()
	t.generations[id]++
	if timeline != nil {
		t.timelines.Store(id, timeline)
	} else {
		t.timelines.Delete(id)
	}
	t.mu.Unlock()

	t.inFlight.Forget(id)
}

// memoise stores timeline for id unless a write happened since rev was taken
func (t *trackRegistry) memoise(id string, rev revision, timeline *lyrics.Timeline) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.epoch != rev.epoch || t.generations[id] != rev.generation {
		return false
	}
	t.timelines.Store(id, timeline)
	return true
}

// parse turns src into a timeline without touching the store
func (t *trackRegistry) parse(src lyrics.Source) *lyrics.Timeline {
	return lyrics.NewTimeline(t.parser.Parse(src), t.timing)
}

// put stores src under id and replaces any memoised timeline
func (t *trackRegistry) put(id string, src lyrics.Source) (*lyrics.Timeline, error) {
	if err := t.store.Put(id, src); err != nil {
		return nil, fmt.Errorf("failed to store source %s: %w", id, err)
	}

	timeline := t.parse(src)
	t.replace(id, timeline)

	log.Infof("%s Stored %s (%d lines, word timing: %v)",
		logcolors.LogTrack, id, len(timeline.Set().Lines), timeline.Set().HasWordTiming)
	return timeline, nil
}

// get returns the timeline for id along with its cache status (HIT when it
// was already parsed)
func (t *trackRegistry) get(id string) (*lyrics.Timeline, string, bool) {
	if value, ok := t.timelines.Load(id); ok {
		stats.Get().RecordTimelineHit()
		return value.(*lyrics.Timeline), "HIT", true
	}

	value, err, _ := t.inFlight.Do(id, func() (interface{}, error) {
		if value, ok := t.timelines.Load(id); ok {
			return value, nil
		}

		// Taken before reading the store, so a write racing the parse
		// leaves the memo to the writer
		rev := t.revision(id)
		src, ok := t.store.Get(id)
		if !ok {
			return nil, nil
		}

		timeline := t.parse(src)
		if t.memoise(id, rev, timeline) {
			log.Debugf("%s Parsed stored source %s", logcolors.LogTrack, id)
		} else {
			log.Debugf("%s Source %s changed while parsing, not memoised", logcolors.LogTrack, id)
		}
		return timeline, nil
	})
	if err != nil || value == nil {
		return nil, "", false
	}

	stats.Get().RecordTimelineMiss()
	return value.(*lyrics.Timeline), "MISS", true
}

// delete drops id from the store and the memo
func (t *trackRegistry) delete(id string) error {
	err := t.store.Delete(id)
	t.replace(id, nil)
	if err != nil {
		return fmt.Errorf("failed to delete source %s: %w", id, err)
	}
	log.Infof("%s Deleted %s", logcolors.LogTrack, id)
	return nil
}

// forget empties the memo, used after the store is cleared
func (t *trackRegistry) forget() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.epoch++
	t.timelines.Range(func(key, _ interface{}) bool {
		t.timelines.Delete(key)
		t.inFlight.Forget(key.(string))
		return true
	})
}

// memoised returns the number of timelines held in memory
func (t *trackRegistry) memoised() int {
	count := 0
	t.timelines.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
