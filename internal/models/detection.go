package models

import (
	"fmt"
	"strings"
)

type DetectionType string

const (
	DetectionFall     DetectionType = "fall"
	DetectionDistress DetectionType = "distress"
	DetectionMedical  DetectionType = "medical"
	DetectionHazard   DetectionType = "hazard"
	DetectionNone     DetectionType = "none"
)

// ParseDetectionType maps free text to a known category. Anything
// unrecognised is "none".
func ParseDetectionType(s string) DetectionType {
	switch DetectionType(strings.ToLower(strings.TrimSpace(s))) {
	case DetectionFall:
		return DetectionFall
	case DetectionDistress:
		return DetectionDistress
	case DetectionMedical:
		return DetectionMedical
	case DetectionHazard:
		return DetectionHazard
	default:
		return DetectionNone
	}
}

type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return true
	}
	return false
}

func ParseSensitivity(s string) (Sensitivity, error) {
	v := Sensitivity(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("invalid sensitivity %q", s)
	}
	return v, nil
}

// SensitivityFromSlider maps a 0-100 slider position onto the three levels.
func SensitivityFromSlider(v int) Sensitivity {
	switch {
	case v < 34:
		return SensitivityLow
	case v < 67:
		return SensitivityMedium
	default:
		return SensitivityHigh
	}
}

// Slider returns the slider position a level is shown at.
func (s Sensitivity) Slider() int {
	switch s {
	case SensitivityLow:
		return 0
	case SensitivityHigh:
		return 100
	default:
		return 50
	}
}

// Thresholds holds the confidence cutoff for each sensitivity level.
type Thresholds struct {
	Low    int
	Medium int
	High   int
}

func (t Thresholds) For(s Sensitivity) int {
	switch s {
	case SensitivityLow:
		return t.Low
	case SensitivityHigh:
		return t.High
	default:
		return t.Medium
	}
}

type GeoPoint struct {
	Latitude  float64 `json:"lat" bson:"lat" binding:"min=-90,max=90"`
	Longitude float64 `json:"lng" bson:"lng" binding:"min=-180,max=180"`
}

func (p GeoPoint) MapsURL() string {
	return fmt.Sprintf("https://maps.google.com/?q=%f,%f", p.Latitude, p.Longitude)
}
