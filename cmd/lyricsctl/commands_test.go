package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyrics-timeline-go/lyrics"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	lrc := writeFile(t, "song.lrc", "[00:01.00]Hello\n[00:05.00]World")
	tlrc := writeFile(t, "song.tlrc", "[00:01.00]你好")

	out, err := run(t, "parse", lrc, "--translation", tlrc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var set lyrics.Set
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("Failed to decode output %q: %v", out, err)
	}
	if len(set.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(set.Lines))
	}
	if !set.HasTranslation || set.Lines[0].Translation != "你好" {
		t.Errorf("Expected translation on first line, got %+v", set.Lines[0])
	}
}

func TestParseCommandJSON(t *testing.T) {
	path := writeFile(t, "song.json", `{"yrc":{"lyric":"[1000,2000](1000,500,0)Hel(1500,500,0)lo"}}`)

	out, err := run(t, "parse", path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var set lyrics.Set
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if !set.HasWordTiming || len(set.Lines) != 1 || set.Lines[0].Text != "Hello" {
		t.Errorf("Expected one word-level line, got %+v", set)
	}
}

func TestParseCommandJSONWithOverlays(t *testing.T) {
	path := writeFile(t, "song.json", `{"yrc":{"lyric":"[1000,2000](1000,500,0)Hel(1500,500,0)lo"}}`)
	tlrc := writeFile(t, "song.tlrc", "[00:01.00]Bonjour")
	roma := writeFile(t, "song.roma", "[00:01.00]Haro")

	out, err := run(t, "parse", path, "-t", tlrc, "-r", roma)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var set lyrics.Set
	if err := json.Unmarshal([]byte(out), &set); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if len(set.Lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(set.Lines))
	}
	if !set.HasTranslation || set.Lines[0].Translation != "Bonjour" {
		t.Errorf("Expected overlay translation, got %+v", set.Lines[0])
	}
	if set.Lines[0].Romanization != "Haro" {
		t.Errorf("Expected overlay romanization, got %+v", set.Lines[0])
	}
}

func TestParseCommandInvalidJSON(t *testing.T) {
	path := writeFile(t, "song.json", `["[00:01.00]Hello"]`)
	if _, err := run(t, "parse", path); err == nil {
		t.Error("Expected error for a JSON array input")
	}
}

func TestParseCommandMissingFile(t *testing.T) {
	if _, err := run(t, "parse", filepath.Join(t.TempDir(), "missing.lrc")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDetectCommand(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{"line", "[00:01.00]Hello", "line"},
		{"word", "[1000,2000](1000,500,0)Hel", "word"},
		{"unknown", "just words", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "detect", writeFile(t, "input.txt", tt.content))
			if err != nil {
				t.Fatalf("detect failed: %v", err)
			}
			if strings.TrimSpace(out) != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestAtCommand(t *testing.T) {
	lrc := writeFile(t, "song.lrc", "[00:01.00]Hello\n[00:05.00]World")

	t.Run("single sample", func(t *testing.T) {
		out, err := run(t, "at", lrc, "3")
		if err != nil {
			t.Fatalf("at failed: %v", err)
		}
		var frame lyrics.Frame
		if err := json.Unmarshal([]byte(out), &frame); err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		if frame.Index != 0 || frame.Line == nil || frame.Line.Text != "Hello" {
			t.Errorf("Expected Hello active, got %+v", frame)
		}
	})

	t.Run("sampled range", func(t *testing.T) {
		out, err := run(t, "at", lrc, "0", "--until", "5", "--step", "0.5")
		if err != nil {
			t.Fatalf("at failed: %v", err)
		}
		expected := "00:00.00\t-1\t\n00:00.50\t0\tHello\n00:04.50\t1\tWorld\n"
		if out != expected {
			t.Errorf("Expected\n%q\ngot\n%q", expected, out)
		}
	})

	t.Run("custom lookahead", func(t *testing.T) {
		out, err := run(t, "at", lrc, "0.5", "--line-lookahead", "0.2")
		if err != nil {
			t.Fatalf("at failed: %v", err)
		}
		var frame lyrics.Frame
		json.Unmarshal([]byte(out), &frame)
		if frame.Index != -1 {
			t.Errorf("Expected no active line with a 0.2s lookahead, got %d", frame.Index)
		}
	})

	t.Run("invalid time", func(t *testing.T) {
		if _, err := run(t, "at", lrc, "soon"); err == nil {
			t.Error("Expected error for invalid time")
		}
	})
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"format", "83456"}, "01:23"},
		{[]string{"format", "83456", "--centis"}, "01:23.45"},
		{[]string{"format", "3600000"}, "60:00"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("format failed: %v", err)
			}
			if strings.TrimSpace(out) != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestAtCommandZeroLookahead(t *testing.T) {
	lrc := writeFile(t, "song.lrc", "[00:01.00]Hello\n[00:05.00]World")

	tests := []struct {
		name     string
		args     []string
		expected int
	}{
		{"default lookahead", []string{"at", lrc, "4.5"}, 1},
		{"zero lookahead", []string{"at", lrc, "4.5", "--line-lookahead", "0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("at failed: %v", err)
			}
			var frame lyrics.Frame
			if err := json.Unmarshal([]byte(out), &frame); err != nil {
				t.Fatalf("Failed to decode frame: %v", err)
			}
			if frame.Index != tt.expected {
				t.Errorf("Expected index %d, got %d", tt.expected, frame.Index)
			}
		})
	}
}
