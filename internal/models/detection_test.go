package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetectionType(t *testing.T) {
	assert.Equal(t, DetectionFall, ParseDetectionType(" Fall "))
	assert.Equal(t, DetectionHazard, ParseDetectionType("hazard"))
	assert.Equal(t, DetectionNone, ParseDetectionType("explosion"))
	assert.Equal(t, DetectionNone, ParseDetectionType(""))
}

func TestSensitivitySlider(t *testing.T) {
	cases := map[int]Sensitivity{
		0:   SensitivityLow,
		33:  SensitivityLow,
		34:  SensitivityMedium,
		66:  SensitivityMedium,
		67:  SensitivityHigh,
		100: SensitivityHigh,
	}
	for v, want := range cases {
		assert.Equal(t, want, SensitivityFromSlider(v), "slider %d", v)
	}

	for _, s := range []Sensitivity{SensitivityLow, SensitivityMedium, SensitivityHigh} {
		assert.Equal(t, s, SensitivityFromSlider(s.Slider()))
	}
}

func TestParseSensitivity(t *testing.T) {
	s, err := ParseSensitivity("HIGH")
	assert.NoError(t, err)
	assert.Equal(t, SensitivityHigh, s)

	_, err = ParseSensitivity("extreme")
	assert.Error(t, err)
}

func TestThresholdsFor(t *testing.T) {
	th := Thresholds{Low: 30, Medium: 50, High: 70}
	assert.Equal(t, 30, th.For(SensitivityLow))
	assert.Equal(t, 50, th.For(SensitivityMedium))
	assert.Equal(t, 70, th.For(SensitivityHigh))
	assert.Equal(t, 50, th.For(""))
}

func TestMapsURL(t *testing.T) {
	p := GeoPoint{Latitude: 37.5, Longitude: -122.25}
	assert.Equal(t, "https://maps.google.com/?q=37.500000,-122.250000", p.MapsURL())
}
