// Package view derives everything the dashboard shows from the fetched
// state. Nothing here performs I/O.
package view

// Band is a threat severity bucket.
type Band string

const (
	BandInformational Band = "informational"
	BandCaution       Band = "caution"
	BandCritical      Band = "critical"
)

// Threshold lower bounds, inclusive.
const (
	CautionThreshold  = 40
	CriticalThreshold = 70
)

// BandFor buckets a 0–100 threat score.
func BandFor(score float64) Band {
	switch {
	case score >= CriticalThreshold:
		return BandCritical
	case score >= CautionThreshold:
		return BandCaution
	default:
		return BandInformational
	}
}

// Color is the colour name renderers use for the band.
func (b Band) Color() string {
	switch b {
	case BandCritical:
		return "red"
	case BandCaution:
		return "yellow"
	default:
		return "green"
	}
}

// Label is the upper-case band name shown next to the gauge.
func (b Band) Label() string {
	switch b {
	case BandCritical:
		return "CRITICAL"
	case BandCaution:
		return "CAUTION"
	default:
		return "INFORMATIONAL"
	}
}
