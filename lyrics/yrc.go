package lyrics

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Line header: [startMs,durationMs]
	yrcHeaderRegex = regexp.MustCompile(`^\[([^,\]]*),([^,\]]*)\]`)

	// Word group: (startMs,durationMs,pitch)text, text runs until the next "("
	yrcWordRegex = regexp.MustCompile(`\(([^(),]*),([^(),]*),([^(),]*)\)([^(]*)`)
)

// ParseWordTimed parses word-level karaoke text into lines that carry word
// timing. Output keeps input order.
func ParseWordTimed(text string) []Line {
	return parseWordTimed(text, DefaultLongNoteThreshold)
}

func parseWordTimed(text string, longNote float64) []Line {
	lines := []Line{}

	for _, rawLine := range strings.Split(text, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}
		if line, ok := parseWordLine(rawLine, longNote); ok {
			lines = append(lines, line)
		}
	}

	return lines
}

func parseWordLine(rawLine string, longNote float64) (Line, bool) {
	header := yrcHeaderRegex.FindStringSubmatchIndex(rawLine)
	if header == nil {
		return Line{}, false
	}
	startMs, err := parseMillis(rawLine[header[2]:header[3]])
	if err != nil || startMs < 0 {
		return Line{}, false
	}
	durationMs, err := parseMillis(rawLine[header[4]:header[5]])
	if err != nil || durationMs < 0 {
		return Line{}, false
	}

	line := Line{
		Kind:      KindWord,
		StartTime: startMs / 1000,
		EndTime:   (startMs + durationMs) / 1000,
	}

	var text strings.Builder
	for _, group := range yrcWordRegex.FindAllStringSubmatch(rawLine[header[1]:], -1) {
		word, ok := parseWord(group, longNote)
		if !ok {
			continue
		}
		// Words sung before the line opens fall outside its interval
		if word.StartTime < line.StartTime {
			continue
		}
		line.Words = append(line.Words, word)
		text.WriteString(word.Text)
	}

	if len(line.Words) == 0 {
		return Line{}, false
	}
	line.Text = text.String()
	if strings.TrimSpace(line.Text) == "" {
		return Line{}, false
	}

	if end := line.Words[len(line.Words)-1].EndTime(); end > line.EndTime {
		line.EndTime = end
	}

	return line, true
}

func parseWord(group []string, longNote float64) (Word, bool) {
	startMs, err := parseMillis(group[1])
	if err != nil || startMs < 0 {
		return Word{}, false
	}
	durationMs, err := parseMillis(group[2])
	if err != nil || durationMs <= 0 {
		return Word{}, false
	}
	// Pitch is informational only
	pitch, _ := strconv.Atoi(strings.TrimSpace(group[3]))

	duration := durationMs / 1000
	return Word{
		StartTime:  startMs / 1000,
		Duration:   duration,
		Text:       group[4],
		Emphasized: duration >= longNote,
		Pitch:      pitch,
	}, true
}

func parseMillis(value string) (float64, error) {
	ms, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("not a finite number: %q", value)
	}
	return ms, nil
}
