package lyrics

import "math"

// Channel selects which field of a primary line a secondary timeline fills
type Channel int

const (
	ChannelTranslation Channel = iota
	ChannelRomanization
)

func (c Channel) String() string {
	switch c {
	case ChannelTranslation:
		return "translation"
	case ChannelRomanization:
		return "romanization"
	default:
		return "unknown"
	}
}

// Merge attaches the text of each secondary line to the first primary line
// starting within DefaultMergeTolerance of it. See MergeWithin.
func Merge(primary, secondary []Line, channel Channel) int {
	return MergeWithin(primary, secondary, channel, DefaultMergeTolerance)
}

// MergeWithin mutates primary in place. For every secondary line the first
// primary line whose start time differs by strictly less than tolerance
// receives the secondary text; secondary lines without such a match are
// dropped. The first match wins even when a later line is closer.
// It returns the number of secondary lines that were attached.
func MergeWithin(primary, secondary []Line, channel Channel, tolerance float64) int {
	if len(primary) == 0 || len(secondary) == 0 {
		return 0
	}

	attached := 0
	for _, sec := range secondary {
		for i := range primary {
			if math.Abs(primary[i].StartTime-sec.StartTime) >= tolerance {
				continue
			}
			switch channel {
			case ChannelTranslation:
				primary[i].Translation = sec.Text
			case ChannelRomanization:
				primary[i].Romanization = sec.Text
			}
			attached++
			break
		}
	}
	return attached
}
