package lyrics

import "math"

// Default timing values, in seconds
const (
	// DefaultLineLookahead is added to the playback clock before comparing it
	// against line-level start times.
	DefaultLineLookahead = 0.6

	// DefaultWordLineEndLead and DefaultWordLineStartLead are the two
	// thresholds of the word-level active line scan.
	DefaultWordLineEndLead   = 0.1
	DefaultWordLineStartLead = 0.2

	// DefaultLongNoteThreshold marks words sustained at least this long.
	DefaultLongNoteThreshold = 2.0

	// DefaultMergeTolerance is the widest gap, exclusive, between a primary
	// and a secondary line that still counts as the same lyric moment.
	DefaultMergeTolerance = 0.1
)

// Timing holds the time constants used by parsing, merging and lookup.
// All values are seconds.
type Timing struct {
	LineLookahead     float64 `json:"lineLookahead"`
	WordLineEndLead   float64 `json:"wordLineEndLead"`
	WordLineStartLead float64 `json:"wordLineStartLead"`
	LongNoteThreshold float64 `json:"longNoteThreshold"`
	MergeTolerance    float64 `json:"mergeTolerance"`
}

// DefaultTiming returns the stock timing values
func DefaultTiming() Timing {
	return Timing{
		LineLookahead:     DefaultLineLookahead,
		WordLineEndLead:   DefaultWordLineEndLead,
		WordLineStartLead: DefaultWordLineStartLead,
		LongNoteThreshold: DefaultLongNoteThreshold,
		MergeTolerance:    DefaultMergeTolerance,
	}
}

// withDefaults returns DefaultTiming for the zero Timing. Otherwise zero
// values are kept as overrides and only negative or non-finite fields fall
// back to the stock values.
func (t Timing) withDefaults() Timing {
	if t == (Timing{}) {
		return DefaultTiming()
	}

	d := DefaultTiming()
	t.LineLookahead = orDefault(t.LineLookahead, d.LineLookahead)
	t.WordLineEndLead = orDefault(t.WordLineEndLead, d.WordLineEndLead)
	t.WordLineStartLead = orDefault(t.WordLineStartLead, d.WordLineStartLead)
	t.LongNoteThreshold = orDefault(t.LongNoteThreshold, d.LongNoteThreshold)
	t.MergeTolerance = orDefault(t.MergeTolerance, d.MergeTolerance)
	return t
}

func orDefault(value, fallback float64) float64 {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return value
}
