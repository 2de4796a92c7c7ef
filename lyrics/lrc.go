package lyrics

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// LRC timestamp pattern: [mm:ss], [mm:ss.xx], [mm:ss.xxx] or [mm:ss:xx]
	lrcTimeRegex = regexp.MustCompile(`^\[(\d+):(\d+)(?:[.:](\d+))?\]`)

	// Metadata tags pattern: [tag:value]
	metadataRegex = regexp.MustCompile(`^\[([a-zA-Z]+):([^\]]*)\]$`)
)

// ParseLines parses LRC text into lines sorted by start time.
// A physical line carrying several timestamps yields one line per timestamp.
func ParseLines(text string) []Line {
	lines, _ := parseLRC(text)
	return lines
}

// ParseMetadata returns the [ar:], [ti:], [al:], [by:] and [offset:] tags of LRC text
func ParseMetadata(text string) map[string]string {
	_, metadata := parseLRC(text)
	return metadata
}

func parseLRC(text string) ([]Line, map[string]string) {
	lines := []Line{}
	metadata := make(map[string]string)

	for _, rawLine := range strings.Split(text, "\n") {
		rawLine = strings.TrimSpace(rawLine)
		if rawLine == "" {
			continue
		}

		if matches := metadataRegex.FindStringSubmatch(rawLine); len(matches) == 3 {
			value := strings.TrimSpace(matches[2])
			switch strings.ToLower(matches[1]) {
			case "ar":
				metadata["artist"] = value
			case "ti":
				metadata["title"] = value
			case "al":
				metadata["album"] = value
			case "by":
				metadata["creator"] = value
			case "offset":
				metadata["offset"] = value
			}
			continue
		}

		timestamps, rest := splitLeadingTimestamps(rawLine)
		rest = strings.TrimSpace(rest)
		if rest == "" || len(timestamps) == 0 {
			continue
		}

		for _, start := range timestamps {
			// Zero timestamps are headers (title, credits) sharing the tag syntax
			if start <= 0 {
				continue
			}
			lines = append(lines, Line{
				Kind:      KindLine,
				StartTime: start,
				Text:      rest,
			})
		}
	}

	// Repeated timestamps fan out of order, ties keep source order
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartTime < lines[j].StartTime
	})

	return lines, metadata
}

// splitLeadingTimestamps consumes every timestamp tag at the start of the line
// and returns them in seconds together with the remaining text
func splitLeadingTimestamps(line string) ([]float64, string) {
	var timestamps []float64
	for {
		match := lrcTimeRegex.FindStringSubmatchIndex(line)
		if match == nil {
			break
		}
		minutes, err := strconv.ParseInt(line[match[2]:match[3]], 10, 64)
		if err != nil {
			break
		}
		seconds, err := strconv.ParseInt(line[match[4]:match[5]], 10, 64)
		if err != nil {
			break
		}
		var fraction float64
		if match[6] >= 0 {
			fraction, err = strconv.ParseFloat("0."+line[match[6]:match[7]], 64)
			if err != nil {
				break
			}
		}
		totalMs := math.Round((float64(minutes*60+seconds) + fraction) * 1000)
		timestamps = append(timestamps, totalMs/1000)
		line = line[match[1]:]
	}
	return timestamps, line
}

// parseOffset reads an LRC [offset:] value in milliseconds
func parseOffset(value string) int {
	value = strings.TrimPrefix(strings.TrimSpace(value), "+")
	offset, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return offset
}
