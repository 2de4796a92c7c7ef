package lyrics

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestParse_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Empty", ""},
		{"Whitespace", "   \n "},
		{"Null", "null"},
		{"Number", "42"},
		{"Array", `["[00:01.00]Hi"]`},
		{"Broken JSON", `{"lrc": `},
		{"Empty object", `{}`},
		{"Unknown keys only", `{"foo": "[00:01.00]Hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ParseJSON([]byte(tt.raw))
			assertEmptySet(t, set)
		})
	}
}

func assertEmptySet(t *testing.T, set Set) {
	t.Helper()
	if set.Lines == nil {
		t.Fatal("Expected non-nil empty lines")
	}
	if len(set.Lines) != 0 {
		t.Errorf("Expected no lines, got %d", len(set.Lines))
	}
	if set.HasTranslation || set.HasRomanization || set.HasWordTiming || set.HasWordTranslation {
		t.Errorf("Expected all flags false, got %+v", set)
	}
	if set.TimeOffsetMs != 0 {
		t.Errorf("Expected zero offset, got %d", set.TimeOffsetMs)
	}
}

func TestParseText(t *testing.T) {
	set := ParseText("[00:01.00]Hello\n[00:02.50]World")

	if len(set.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(set.Lines))
	}
	if set.HasWordTiming {
		t.Error("Line-level text should not enable word timing")
	}

	set = ParseText("[1000,2000](1000,500,0)Hi(1500,500,0) there")
	if !set.HasWordTiming {
		t.Error("Word-level text should enable word timing")
	}
	if len(set.Lines) != 1 || set.Lines[0].Text != "Hi there" {
		t.Errorf("Unexpected lines: %+v", set.Lines)
	}

	assertEmptySet(t, ParseText("no timestamps here"))
}

func TestParseJSON_String(t *testing.T) {
	set := ParseJSON([]byte(`"[00:01.00]Hello\n[00:02.50]World"`))

	if len(set.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(set.Lines))
	}
	if set.Lines[1].Text != "World" {
		t.Errorf("Expected 'World', got %q", set.Lines[1].Text)
	}
}

func TestParse_Translation(t *testing.T) {
	src := Source{
		Lrc:  "[00:10.00]Original\n[00:20.00]Second",
		Tlrc: "[00:10.05]Translated\n[00:11.00]Orphan",
	}

	set := Parse(src)

	if !set.HasTranslation {
		t.Error("Expected HasTranslation")
	}
	if len(set.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(set.Lines))
	}
	if set.Lines[0].Translation != "Translated" {
		t.Errorf("Expected 'Translated', got %q", set.Lines[0].Translation)
	}
	if set.Lines[1].Translation != "" {
		t.Errorf("Expected no translation on second line, got %q", set.Lines[1].Translation)
	}
}

func TestParse_WordTimingWithTranslation(t *testing.T) {
	src := Source{
		Lrc:   "[00:01.00]Hi there\n[00:04.00]Again",
		Tlrc:  "[00:01.00]Line translation",
		Yrc:   "[1000,2000](1000,500,0)Hi(1500,500,0) there\n[4000,1000](4000,1000,0)Again",
		Ytlrc: "[00:01.02]Word translation\n[00:04.00]Encore",
	}

	set := Parse(src)

	if !set.HasWordTiming || !set.HasTranslation || !set.HasWordTranslation {
		t.Errorf("Unexpected flags: %+v", set)
	}
	if len(set.Lines) != 2 {
		t.Fatalf("Expected word lines as output, got %d", len(set.Lines))
	}
	for _, line := range set.Lines {
		if line.Kind != KindWord {
			t.Errorf("Expected word-level lines, got %v", line.Kind)
		}
	}
	if set.Lines[0].Translation != "Word translation" {
		t.Errorf("Expected word translation channel to win, got %q", set.Lines[0].Translation)
	}
	if set.Lines[1].Translation != "Encore" {
		t.Errorf("Expected 'Encore', got %q", set.Lines[1].Translation)
	}
}

func TestParse_WordTimingFallsBackToLineTranslation(t *testing.T) {
	src := Source{
		Tlrc: "[00:01.00]Bonjour",
		Yrc:  "[1000,2000](1000,500,0)Hello",
	}

	set := Parse(src)

	if set.HasWordTranslation {
		t.Error("HasWordTranslation should be false without a word translation channel")
	}
	if !set.HasTranslation {
		t.Error("Expected HasTranslation")
	}
	if len(set.Lines) != 1 || set.Lines[0].Translation != "Bonjour" {
		t.Errorf("Expected fallback translation, got %+v", set.Lines)
	}
}

func TestParse_WordTranslationWithoutWordTiming(t *testing.T) {
	src := Source{
		Lrc:   "[00:01.00]Hello",
		Ytlrc: "[00:01.00]Bonjour",
	}

	set := Parse(src)

	if set.HasWordTiming || set.HasWordTranslation {
		t.Errorf("Word translation must be a no-op without word timing: %+v", set)
	}
	if set.Lines[0].Translation != "" {
		t.Errorf("Expected no translation, got %q", set.Lines[0].Translation)
	}
}

func TestParse_YrcThatIsNotWordLevel(t *testing.T) {
	src := Source{
		Lrc: "[00:01.00]Hello",
		Yrc: "[00:01.00]Not karaoke",
	}

	set := Parse(src)

	if set.HasWordTiming {
		t.Error("Line-level text in the word channel should not enable word timing")
	}
	if len(set.Lines) != 1 || set.Lines[0].Text != "Hello" {
		t.Errorf("Unexpected lines: %+v", set.Lines)
	}
}

func TestParse_Romanization(t *testing.T) {
	src := Source{
		Lrc:     "[00:01.00]こんにちは",
		Romalrc: "[00:01.00]konnichiwa",
	}

	set := Parse(src)

	if !set.HasRomanization {
		t.Error("Expected HasRomanization")
	}
	if set.Lines[0].Romanization != "konnichiwa" {
		t.Errorf("Expected romanization, got %q", set.Lines[0].Romanization)
	}
}

func TestParse_MetadataAndOffset(t *testing.T) {
	src := Source{Lrc: "[ar:Someone]\n[ti:Something]\n[offset:-250]\n[00:01.00]Hello"}

	set := Parse(src)

	if set.TimeOffsetMs != -250 {
		t.Errorf("Expected offset -250, got %d", set.TimeOffsetMs)
	}
	if set.Metadata["artist"] != "Someone" || set.Metadata["title"] != "Something" {
		t.Errorf("Unexpected metadata: %v", set.Metadata)
	}
	if _, ok := set.Metadata["offset"]; ok {
		t.Error("Offset should be lifted out of metadata")
	}
}

func TestParse_OutputSorted(t *testing.T) {
	inputs := []Source{
		{Lrc: "[00:30.00][00:10.00]Chorus\n[00:20.00]Verse\n[00:05.00]Intro"},
		{Yrc: "[5000,1000](5000,1000,0)Later\n[1000,1000](1000,1000,0)Earlier"},
	}

	for _, src := range inputs {
		set := Parse(src)
		for i := 1; i < len(set.Lines); i++ {
			if set.Lines[i].StartTime < set.Lines[i-1].StartTime {
				t.Errorf("Lines not sorted at %d: %v < %v", i, set.Lines[i].StartTime, set.Lines[i-1].StartTime)
			}
		}
	}
}

func TestParse_Idempotent(t *testing.T) {
	src := Source{
		Lrc:   "[ar:Someone]\n[00:01.00][00:09.00]Hello\n[00:05.00]World",
		Tlrc:  "[00:01.00]Bonjour",
		Yrc:   "[1000,2000](1000,500,0)Hi(1500,500,0) there",
		Ytlrc: "[00:01.00]Salut",
	}

	first := Parse(src)
	second := Parse(src)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parsing twice should give equal results:\n%+v\n%+v", first, second)
	}
}

// panicHook makes the first debug log entry emitted while parsing panic
type panicHook struct{}

func (panicHook) Levels() []log.Level {
	return []log.Level{log.DebugLevel}
}

func (panicHook) Fire(*log.Entry) error {
	panic(errors.New("boom"))
}

func TestParse_RecoversFromPanic(t *testing.T) {
	logger := log.StandardLogger()
	previousLevel := logger.GetLevel()
	logger.SetLevel(log.DebugLevel)
	logger.AddHook(panicHook{})
	t.Cleanup(func() {
		logger.ReplaceHooks(make(log.LevelHooks))
		logger.SetLevel(previousLevel)
	})

	var reported error
	parser := NewParser(DefaultTiming())
	parser.OnFailure = func(err error) {
		reported = err
	}

	set := func() (set Set) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Panic escaped Parse: %v", r)
			}
		}()
		return parser.Parse(Source{Lrc: "[00:01.00]Hello"})
	}()

	assertEmptySet(t, set)
	if reported == nil || !strings.Contains(reported.Error(), "boom") {
		t.Errorf("Expected failure to be reported, got %v", reported)
	}
}

func TestReadSource(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Source
		err      error
	}{
		{"Blank", "  ", Source{}, nil},
		{"Line-level string", `"[00:01.00]Hello"`, Source{Lrc: "[00:01.00]Hello"}, nil},
		{"Word-level string", `"[1000,1000](1000,1000,0)Hello"`, Source{Yrc: "[1000,1000](1000,1000,0)Hello"}, nil},
		{"Channel object", `{"lrc":"[00:01.00]Hello","tlrc":"[00:01.00]Hi"}`, Source{Lrc: "[00:01.00]Hello", Tlrc: "[00:01.00]Hi"}, nil},
		{"Raw text", "[00:01.00]Hello", Source{}, ErrUnsupportedInput},
		{"Number", "42", Source{}, ErrUnsupportedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ReadSource([]byte(tt.raw))
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected error %v, got %v", tt.err, err)
			}
			if src != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, src)
			}
		})
	}
}

func TestReadSource_MalformedString(t *testing.T) {
	if _, err := ReadSource([]byte(`"unterminated`)); err == nil || errors.Is(err, ErrUnsupportedInput) {
		t.Errorf("Expected a decode error, got %v", err)
	}
}

func TestDecodeSource(t *testing.T) {
	raw := []byte(`{
		"lrcx": {"lyric": "[00:01.00]Hello"},
		"tran": "[00:01.00]Bonjour",
		"yrc": {"lyric": "[1000,1000](1000,1000,0)Hello"},
		"ytlrc": {"version": 3},
		"romalrc": 12
	}`)

	src, err := DecodeSource(raw)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.Lrc != "[00:01.00]Hello" {
		t.Errorf("Expected lrcx alias to fill Lrc, got %q", src.Lrc)
	}
	if src.Tlrc != "[00:01.00]Bonjour" {
		t.Errorf("Expected tran alias to fill Tlrc, got %q", src.Tlrc)
	}
	if src.Yrc == "" {
		t.Error("Expected Yrc from wrapped lyric object")
	}
	if src.Ytlrc != "" || src.Romalrc != "" {
		t.Errorf("Unusable channel values should be ignored: %+v", src)
	}
}

func TestDecodeSource_PreferredKeyWins(t *testing.T) {
	src, err := DecodeSource([]byte(`{"lrc": "[00:01.00]A", "lrcx": "[00:01.00]B"}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.Lrc != "[00:01.00]A" {
		t.Errorf("Expected 'lrc' to win over 'lrcx', got %q", src.Lrc)
	}

	src, _ = DecodeSource([]byte(`{"lrc": "", "lrcx": "[00:01.00]B"}`))
	if src.Lrc != "[00:01.00]B" {
		t.Errorf("Expected alias when preferred key is empty, got %q", src.Lrc)
	}
}

func TestDecodeSource_Errors(t *testing.T) {
	for _, raw := range []string{`null`, `[]`, `"text"`, `{`} {
		if _, err := DecodeSource([]byte(raw)); err == nil {
			t.Errorf("Expected error for %s", raw)
		}
	}
}

func TestParseText_FractionalWordTiming(t *testing.T) {
	set := ParseText("[1000,2000](1000.5,500.5,0)Hi(1501,499,0) there")

	if !set.HasWordTiming || len(set.Lines) != 1 {
		t.Fatalf("Expected one word-level line, got %+v", set)
	}
	words := set.Lines[0].Words
	if len(words) != 2 {
		t.Fatalf("Expected 2 words, got %d", len(words))
	}
	if d := words[0].StartTime - 1.0005; d > 1e-9 || d < -1e-9 {
		t.Errorf("Expected first word at 1.0005, got %v", words[0].StartTime)
	}
}
