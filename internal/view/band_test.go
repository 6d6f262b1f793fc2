package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFor(t *testing.T) {
	cases := []struct {
		score float64
		want  Band
	}{
		{0, BandInformational},
		{39.9, BandInformational},
		{40, BandCaution},
		{69.99, BandCaution},
		{70, BandCritical},
		{100, BandCritical},
		{-5, BandInformational},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BandFor(tc.score), "score %v", tc.score)
	}
}

func TestBandForAllIntegerScores(t *testing.T) {
	for s := 0; s <= 100; s++ {
		got := BandFor(float64(s))
		switch {
		case s >= 70:
			assert.Equal(t, BandCritical, got, s)
		case s >= 40:
			assert.Equal(t, BandCaution, got, s)
		default:
			assert.Equal(t, BandInformational, got, s)
		}
	}
}

func TestBandColorsAndLabels(t *testing.T) {
	assert.Equal(t, "red", BandCritical.Color())
	assert.Equal(t, "yellow", BandCaution.Color())
	assert.Equal(t, "green", BandInformational.Color())
	assert.Equal(t, "CRITICAL", BandCritical.Label())
	assert.Equal(t, "INFORMATIONAL", BandInformational.Label())
}
