package lyrics

import "fmt"

// FindCurrentLine returns the active line-level index at currentTime
// (seconds), or -1 before the first line. See FindCurrentLineWithin.
func FindCurrentLine(lines []Line, currentTime float64) int {
	return FindCurrentLineWithin(lines, currentTime, DefaultLineLookahead)
}

// FindCurrentLineWithin finds the first line starting at or after
// currentTime+lookahead; the line before it is active. Past the last cutoff
// the last line stays active.
func FindCurrentLineWithin(lines []Line, currentTime, lookahead float64) int {
	if len(lines) == 0 {
		return -1
	}
	target := currentTime + lookahead
	for i, line := range lines {
		if line.StartTime >= target {
			return i - 1
		}
	}
	return len(lines) - 1
}

// FindCurrentWordLine returns the active word-level index at currentTime
// (seconds), or -1. See FindCurrentWordLineWithin.
func FindCurrentWordLine(lines []Line, currentTime float64) int {
	return FindCurrentWordLineWithin(lines, currentTime, DefaultWordLineEndLead, DefaultWordLineStartLead)
}

// FindCurrentWordLineWithin scans for the first line whose last word ends at
// or after currentTime+endLead and which itself starts at or after
// currentTime+startLead. The line before it is active. Lines without words
// are never active.
func FindCurrentWordLineWithin(lines []Line, currentTime, endLead, startLead float64) int {
	active := -1
	for i, line := range lines {
		if len(line.Words) == 0 {
			continue
		}
		lastWord := line.Words[len(line.Words)-1]
		lineEndTime := lastWord.StartTime + lastWord.Duration
		if lineEndTime >= currentTime+endLead && line.StartTime >= currentTime+startLead {
			return active
		}
		active = i
	}
	return active
}

// WordStatus is the playback state of one word
type WordStatus int

const (
	WordPending WordStatus = iota
	WordPlaying
	WordPlayed
)

func (s WordStatus) String() string {
	switch s {
	case WordPending:
		return "pending"
	case WordPlaying:
		return "playing"
	case WordPlayed:
		return "played"
	default:
		return "unknown"
	}
}

func (s WordStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *WordStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = WordPending
	case "playing":
		*s = WordPlaying
	case "played":
		*s = WordPlayed
	default:
		return fmt.Errorf("unknown word status: %q", string(text))
	}
	return nil
}

// WordState is the highlight state of one word at a time sample
type WordState struct {
	Word     Word       `json:"word"`
	Status   WordStatus `json:"status"`
	Fraction float64    `json:"fraction"`
}

// WordProgress reports every word of line at currentTimeMs (milliseconds).
// Fraction is 0 for pending words, 1 for played words and the elapsed share
// of the word for the playing one.
func WordProgress(line Line, currentTimeMs float64) []WordState {
	states := make([]WordState, 0, len(line.Words))
	for _, word := range line.Words {
		start := word.StartTime * 1000
		end := word.EndTime() * 1000

		state := WordState{Word: word}
		switch {
		case currentTimeMs < start:
			state.Status = WordPending
		case currentTimeMs > end:
			state.Status = WordPlayed
			state.Fraction = 1
		default:
			state.Status = WordPlaying
			if end > start {
				state.Fraction = (currentTimeMs - start) / (end - start)
			}
		}
		states = append(states, state)
	}
	return states
}

// Frame is everything the renderer needs for one tick
type Frame struct {
	Time  float64     `json:"time"`
	Index int         `json:"index"`
	Line  *Line       `json:"line,omitempty"`
	Words []WordState `json:"words,omitempty"`
}

// Timeline answers per-tick lookups against a parsed set. It never mutates
// the set, so concurrent lookups are safe.
type Timeline struct {
	set    Set
	timing Timing
}

// NewTimeline binds a set to the timing values used for lookups
func NewTimeline(set Set, timing Timing) *Timeline {
	return &Timeline{set: set, timing: timing.withDefaults()}
}

// Set returns the underlying lyric set
func (t *Timeline) Set() Set {
	return t.set
}

// adjust applies the set's LRC offset to a playback time sample
func (t *Timeline) adjust(currentTime float64) float64 {
	return currentTime + float64(t.set.TimeOffsetMs)/1000
}

// ActiveLine picks the lookup mode from the set's word timing flag
func (t *Timeline) ActiveLine(currentTime float64) int {
	at := t.adjust(currentTime)
	if t.set.HasWordTiming {
		return FindCurrentWordLineWithin(t.set.Lines, at, t.timing.WordLineEndLead, t.timing.WordLineStartLead)
	}
	return FindCurrentLineWithin(t.set.Lines, at, t.timing.LineLookahead)
}

// At resolves the active line and, for word-level lines, per-word progress
func (t *Timeline) At(currentTime float64) Frame {
	frame := Frame{Time: currentTime, Index: t.ActiveLine(currentTime)}
	if frame.Index < 0 {
		return frame
	}
	line := t.set.Lines[frame.Index]
	frame.Line = &line
	if line.Kind == KindWord {
		frame.Words = WordProgress(line, t.adjust(currentTime)*1000)
	}
	return frame
}
