package lyrics

import (
	"fmt"
	"regexp"
)

// Format is the lyric syntax family of a raw text
type Format int

const (
	FormatUnknown Format = iota
	FormatLine           // [mm:ss.xx]text
	FormatWord           // [startMs,durationMs](startMs,durationMs,pitch)text...
)

var (
	// A (start,duration,pitch) triplet followed by at least one character of text
	wordTripletRegex = regexp.MustCompile(`\(\d+(?:\.\d+)?,\d+(?:\.\d+)?,-?\d+(?:\.\d+)?\)[^(\r\n]`)

	// Any [mm:ss], [mm:ss.xx] or [mm:ss:xx] timestamp
	lineTimestampRegex = regexp.MustCompile(`\[\d+:\d+(?:[.:]\d+)?\]`)
)

func (f Format) String() string {
	switch f {
	case FormatLine:
		return "line"
	case FormatWord:
		return "word"
	default:
		return "unknown"
	}
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	switch string(text) {
	case "line":
		*f = FormatLine
	case "word":
		*f = FormatWord
	case "unknown":
		*f = FormatUnknown
	default:
		return fmt.Errorf("unknown lyric format: %q", string(text))
	}
	return nil
}

// Detect classifies raw lyric text. Word-level syntax wins over line-level
// syntax when both appear; anything else is FormatUnknown.
func Detect(text string) Format {
	if wordTripletRegex.MatchString(text) {
		return FormatWord
	}
	if lineTimestampRegex.MatchString(text) {
		return FormatLine
	}
	return FormatUnknown
}
