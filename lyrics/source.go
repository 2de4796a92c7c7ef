package lyrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedInput is returned by ReadSource for JSON input that is
// neither a channel object nor a string
var ErrUnsupportedInput = errors.New("lyric input is neither a channel object nor a JSON string")

// Source bundles the raw text channels of one song. Only Lrc or Yrc is
// needed; the others overlay translation and romanization.
type Source struct {
	Lrc      string `json:"lrc,omitempty"`
	Tlrc     string `json:"tlrc,omitempty"`
	Romalrc  string `json:"romalrc,omitempty"`
	Yrc      string `json:"yrc,omitempty"`
	Ytlrc    string `json:"ytlrc,omitempty"`
	Yromalrc string `json:"yromalrc,omitempty"`
}

// IsZero reports whether every channel is blank
func (s Source) IsZero() bool {
	return strings.TrimSpace(s.Lrc) == "" &&
		strings.TrimSpace(s.Tlrc) == "" &&
		strings.TrimSpace(s.Romalrc) == "" &&
		strings.TrimSpace(s.Yrc) == "" &&
		strings.TrimSpace(s.Ytlrc) == "" &&
		strings.TrimSpace(s.Yromalrc) == ""
}

// SourceFromText places a bare lyric text in the word-level or line-level
// channel depending on its detected format
func SourceFromText(text string) Source {
	if Detect(text) == FormatWord {
		return Source{Yrc: text}
	}
	return Source{Lrc: text}
}

// ReadSource accepts a channel object or a JSON string holding one lyric
// text. Blank input gives the zero Source.
func ReadSource(raw []byte) (Source, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Source{}, nil
	}

	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return Source{}, fmt.Errorf("decode lyric text: %w", err)
		}
		return SourceFromText(text), nil
	case '{':
		return DecodeSource(raw)
	default:
		return Source{}, ErrUnsupportedInput
	}
}

// channelKeys lists the accepted JSON keys per channel, preferred key first
var channelKeys = []struct {
	keys   []string
	assign func(*Source, string)
}{
	{[]string{"lrc", "lrcx"}, func(s *Source, v string) { s.Lrc = v }},
	{[]string{"tlrc", "tran", "tlyric"}, func(s *Source, v string) { s.Tlrc = v }},
	{[]string{"romalrc"}, func(s *Source, v string) { s.Romalrc = v }},
	{[]string{"yrc"}, func(s *Source, v string) { s.Yrc = v }},
	{[]string{"ytlrc"}, func(s *Source, v string) { s.Ytlrc = v }},
	{[]string{"yromalrc"}, func(s *Source, v string) { s.Yromalrc = v }},
}

// DecodeSource reads a channel object. Each channel value may be a plain
// string or an object with a "lyric" field; unknown keys are ignored.
func DecodeSource(raw []byte) (Source, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Source{}, fmt.Errorf("decode lyric source: %w", err)
	}
	if fields == nil {
		return Source{}, fmt.Errorf("decode lyric source: not an object")
	}

	var src Source
	for _, channel := range channelKeys {
		for _, key := range channel.keys {
			value, ok := fields[key]
			if !ok {
				continue
			}
			if text := decodeChannel(value); text != "" {
				channel.assign(&src, text)
				break
			}
		}
	}
	return src, nil
}

func decodeChannel(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var wrapped struct {
		Lyric string `json:"lyric"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Lyric
	}
	return ""
}
