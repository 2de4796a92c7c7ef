package lyrics

import "fmt"

// FormatDuration renders milliseconds as mm:ss, or mm:ss.cc when
// withCentis is set. Negative values render as zero.
func FormatDuration(ms int64, withCentis bool) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	if !withCentis {
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
	centis := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
}
