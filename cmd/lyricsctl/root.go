package main

import (
	"os"

	"lyrics-timeline-go/lyrics"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	verbose bool
	timing  lyrics.Timing
}

func newRootCmd() *cobra.Command {
	opts := &options{timing: lyrics.DefaultTiming()}

	rootCmd := &cobra.Command{
		Use:   "lyricsctl",
		Short: "Parse synced lyrics and query their playback timeline",
		Long: `lyricsctl parses line-level (LRC) and word-level (karaoke) lyric files,
merges translation and romanization channels, and answers which line and
word are active at a given playback time.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.verbose)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	flags.Float64Var(&opts.timing.LineLookahead, "line-lookahead", lyrics.DefaultLineLookahead, "seconds a line-level line is shown early")
	flags.Float64Var(&opts.timing.WordLineEndLead, "word-end-lead", lyrics.DefaultWordLineEndLead, "seconds before a word-level line ends that it is released")
	flags.Float64Var(&opts.timing.WordLineStartLead, "word-start-lead", lyrics.DefaultWordLineStartLead, "seconds a word-level line is shown early")
	flags.Float64Var(&opts.timing.LongNoteThreshold, "long-note", lyrics.DefaultLongNoteThreshold, "word duration in seconds that counts as a long note")
	flags.Float64Var(&opts.timing.MergeTolerance, "merge-tolerance", lyrics.DefaultMergeTolerance, "seconds within which translation lines attach")

	rootCmd.AddCommand(parseCmd(opts))
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(atCmd(opts))
	rootCmd.AddCommand(formatCmd())

	return rootCmd
}

func setupLogging(verbose bool) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}
