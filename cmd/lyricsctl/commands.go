package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/lyrics"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// readInput reads a file, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

type channelFiles struct {
	translation  string
	romanization string
}

// loadSet parses path plus any overlay channel files
func loadSet(cmd *cobra.Command, opts *options, path string, overlays channelFiles) (lyrics.Set, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return lyrics.Set{}, err
	}

	parser := lyrics.NewParser(opts.timing)
	parser.OnFailure = func(err error) {
		log.Errorf("%s %s: %v", logcolors.LogParser, path, err)
	}

	var src lyrics.Source
	if strings.EqualFold(filepath.Ext(path), ".json") {
		src, err = lyrics.ReadSource(data)
		if err != nil {
			return lyrics.Set{}, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	} else {
		src = lyrics.SourceFromText(string(data))
	}

	// Overlay files replace the matching channels of the input
	if overlays.translation != "" {
		data, err := readInput(cmd, overlays.translation)
		if err != nil {
			return lyrics.Set{}, err
		}
		src.Tlrc = string(data)
	}
	if overlays.romanization != "" {
		data, err := readInput(cmd, overlays.romanization)
		if err != nil {
			return lyrics.Set{}, err
		}
		src.Romalrc = string(data)
	}

	return parser.Parse(src), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func parseCmd(opts *options) *cobra.Command {
	var overlays channelFiles

	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse a lyric file and print the merged lyric set as JSON",
		Long: `Parse a lyric file and print the merged lyric set as JSON.
Files ending in .json are read as channel objects (lrc, tlrc, yrc, ...);
anything else is detected as line-level or word-level text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadSet(cmd, opts, args[0], overlays)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), set)
		},
	}

	cmd.Flags().StringVarP(&overlays.translation, "translation", "t", "", "line-level translation file")
	cmd.Flags().StringVarP(&overlays.romanization, "romanization", "r", "", "line-level romanization file")
	return cmd
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file|->",
		Short: "Print whether a lyric file is line-level, word-level or unknown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), lyrics.Detect(string(data)))
			return nil
		},
	}
}

func atCmd(opts *options) *cobra.Command {
	var (
		overlays channelFiles
		until    float64
		step     float64
	)

	cmd := &cobra.Command{
		Use:   "at <file|-> <seconds>",
		Short: "Print the active line (and word progress) at a playback time",
		Long: `Print the active line at a playback time. With --until, sample every
--step seconds up to that time and print one line per change of the active
line, the way a player polling once per tick would see it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid time %q: %w", args[1], err)
			}

			set, err := loadSet(cmd, opts, args[0], overlays)
			if err != nil {
				return err
			}
			timeline := lyrics.NewTimeline(set, opts.timing)

			if until <= start {
				return writeJSON(cmd.OutOrStdout(), timeline.At(start))
			}
			if step <= 0 {
				return fmt.Errorf("--step must be positive")
			}

			out := cmd.OutOrStdout()
			previous := -2
			for i := 0; ; i++ {
				t := start + float64(i)*step
				if t > until {
					break
				}
				index := timeline.ActiveLine(t)
				if index == previous {
					continue
				}
				previous = index

				text := ""
				if index >= 0 {
					text = set.Lines[index].Text
				}
				stamp := lyrics.FormatDuration(int64(t*1000), true)
				fmt.Fprintf(out, "%s\t%d\t%s\n", stamp, index, text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&overlays.translation, "translation", "t", "", "line-level translation file")
	cmd.Flags().StringVarP(&overlays.romanization, "romanization", "r", "", "line-level romanization file")
	cmd.Flags().Float64Var(&until, "until", 0, "sample up to this time in seconds")
	cmd.Flags().Float64Var(&step, "step", 0.1, "sampling step in seconds")
	return cmd
}

func formatCmd() *cobra.Command {
	var centis bool

	cmd := &cobra.Command{
		Use:   "format <milliseconds>",
		Short: "Render milliseconds as mm:ss or mm:ss.cc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid milliseconds %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), lyrics.FormatDuration(ms, centis))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&centis, "centis", "c", false, "include hundredths of a second")
	return cmd
}
