package lyrics

import "fmt"

// Kind tells line-level (LRC) lines apart from word-level (karaoke) lines
type Kind int

const (
	KindLine Kind = iota // one timestamp, no intra-line timing
	KindWord             // per-word start and duration
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindWord:
		return "word"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "line":
		*k = KindLine
	case "word":
		*k = KindWord
	default:
		return fmt.Errorf("unknown line kind: %q", string(text))
	}
	return nil
}

// Word is a single timed syllable or word inside a karaoke line.
// Times are in seconds.
type Word struct {
	StartTime  float64 `json:"startTime"`
	Duration   float64 `json:"duration"`
	Text       string  `json:"text"`
	Emphasized bool    `json:"emphasized"`
	Pitch      int     `json:"pitch,omitempty"`
}

// EndTime returns the moment the word stops being sung
func (w Word) EndTime() float64 {
	return w.StartTime + w.Duration
}

// Line is one lyric line. Words is empty for KindLine lines and EndTime is
// only meaningful for KindWord lines.
type Line struct {
	Kind         Kind    `json:"kind"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime,omitempty"`
	Text         string  `json:"text"`
	Words        []Word  `json:"words,omitempty"`
	Translation  string  `json:"translation,omitempty"`
	Romanization string  `json:"romanization,omitempty"`
}

// HasEnd reports whether EndTime carries a value
func (l Line) HasEnd() bool {
	return l.Kind == KindWord
}

// Set is the result of one parse invocation
type Set struct {
	TimeOffsetMs       int               `json:"timeOffsetMs"`
	Lines              []Line            `json:"lines"`
	HasTranslation     bool              `json:"hasTranslation"`
	HasRomanization    bool              `json:"hasRomanization"`
	HasWordTiming      bool              `json:"hasWordTiming"`
	HasWordTranslation bool              `json:"hasWordTranslation"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Empty returns the canonical "no lyrics available" set
func Empty() Set {
	return Set{Lines: []Line{}}
}

// IsEmpty reports whether the set has no lines to display
func (s Set) IsEmpty() bool {
	return len(s.Lines) == 0
}
