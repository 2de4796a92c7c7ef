package lyrics

import (
	"fmt"
	"sort"

	"lyrics-timeline-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Parser turns raw channels into a Set. The zero value uses DefaultTiming.
type Parser struct {
	Timing Timing

	// OnFailure receives unexpected failures recovered during Parse
	OnFailure func(err error)
}

// NewParser creates a parser with the given timing values
func NewParser(timing Timing) *Parser {
	return &Parser{Timing: timing}
}

var defaultParser = &Parser{Timing: DefaultTiming()}

// Parse parses src with the default timing values
func Parse(src Source) Set {
	return defaultParser.Parse(src)
}

// ParseText parses a single raw text with the default timing values
func ParseText(text string) Set {
	return defaultParser.ParseText(text)
}

// ParseJSON parses a JSON channel object or JSON string with the default
// timing values
func ParseJSON(raw []byte) Set {
	return defaultParser.ParseJSON(raw)
}

// ParseText routes a bare text to the word-level or line-level channel
// depending on its detected format
func (p *Parser) ParseText(text string) Set {
	return p.Parse(SourceFromText(text))
}

// ParseJSON accepts either a channel object or a JSON string. Anything else
// yields the empty set.
func (p *Parser) ParseJSON(raw []byte) Set {
	src, err := ReadSource(raw)
	if err != nil {
		log.Debugf("%s Ignoring input (%d bytes): %v", logcolors.LogParser, len(raw), err)
		return Empty()
	}
	return p.Parse(src)
}

// Parse runs detection, parsing and merging over every channel of src.
// It never fails: malformed input degrades to fewer lines, and unexpected
// failures are recovered into the empty set and reported through OnFailure.
func (p *Parser) Parse(src Source) (set Set) {
	set = Empty()
	if src.IsZero() {
		return set
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("lyric parse failed: %v", r)
			log.Errorf("%s %v", logcolors.LogParser, err)
			if p.OnFailure != nil {
				p.OnFailure(err)
			}
			set = Empty()
		}
	}()

	timing := p.Timing.withDefaults()

	primary, metadata := p.parseChannel("lrc", src.Lrc, timing)

	var wordLines []Line
	if Detect(src.Yrc) == FormatWord {
		wordLines, _ = p.parseChannel("yrc", src.Yrc, timing)
	}
	// A word-level text delivered in the primary channel drives word timing itself
	if len(wordLines) == 0 && len(primary) > 0 && primary[0].Kind == KindWord {
		wordLines, primary = primary, nil
	}

	translation, _ := p.parseChannel("tlrc", src.Tlrc, timing)
	if len(translation) > 0 {
		set.HasTranslation = true
		p.merge(primary, translation, ChannelTranslation, timing)
	}
	romanization, _ := p.parseChannel("romalrc", src.Romalrc, timing)
	if len(romanization) > 0 {
		set.HasRomanization = true
		p.merge(primary, romanization, ChannelRomanization, timing)
	}

	if len(wordLines) > 0 {
		set.HasWordTiming = true

		wordTranslation, _ := p.parseChannel("ytlrc", src.Ytlrc, timing)
		switch {
		case len(wordTranslation) > 0:
			set.HasWordTranslation = true
			p.merge(wordLines, wordTranslation, ChannelTranslation, timing)
		case len(translation) > 0:
			p.merge(wordLines, translation, ChannelTranslation, timing)
		}

		wordRomanization, _ := p.parseChannel("yromalrc", src.Yromalrc, timing)
		switch {
		case len(wordRomanization) > 0:
			set.HasRomanization = true
			p.merge(wordLines, wordRomanization, ChannelRomanization, timing)
		case len(romanization) > 0:
			p.merge(wordLines, romanization, ChannelRomanization, timing)
		}
	}

	lines := primary
	if set.HasWordTiming {
		lines = wordLines
	}
	if lines == nil {
		lines = []Line{}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartTime < lines[j].StartTime
	})
	set.Lines = lines

	if len(metadata) > 0 {
		if offset, ok := metadata["offset"]; ok {
			set.TimeOffsetMs = parseOffset(offset)
			delete(metadata, "offset")
		}
		if len(metadata) > 0 {
			set.Metadata = metadata
		}
	}

	log.Debugf("%s Parsed %d lines (word timing: %v, translation: %v, offset: %dms)",
		logcolors.LogParser, len(set.Lines), set.HasWordTiming, set.HasTranslation, set.TimeOffsetMs)

	return set
}

// parseChannel detects the format of one channel and dispatches it
func (p *Parser) parseChannel(name, text string, timing Timing) ([]Line, map[string]string) {
	switch Detect(text) {
	case FormatWord:
		lines := parseWordTimed(text, timing.LongNoteThreshold)
		log.Debugf("%s %d word-level lines", logcolors.Channel(name), len(lines))
		return lines, nil
	case FormatLine:
		lines, metadata := parseLRC(text)
		log.Debugf("%s %d line-level lines", logcolors.Channel(name), len(lines))
		return lines, metadata
	default:
		return nil, nil
	}
}

func (p *Parser) merge(primary, secondary []Line, channel Channel, timing Timing) {
	attached := MergeWithin(primary, secondary, channel, timing.MergeTolerance)
	log.Debugf("%s Attached %d/%d %s lines", logcolors.LogMerge, attached, len(secondary), channel)
}
