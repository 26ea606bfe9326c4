package config

import (
	"fmt"
	"time"
)

type EmergencyConfig struct {
	// Confidence thresholds per sensitivity level, compared with a strict >.
	ThresholdLow    int `yaml:"threshold_low"`
	ThresholdMedium int `yaml:"threshold_medium"`
	ThresholdHigh   int `yaml:"threshold_high"`

	DefaultCountdown int `yaml:"default_countdown"`
	MinCountdown     int `yaml:"min_countdown"`
	MaxCountdown     int `yaml:"max_countdown"`

	SampleInterval   time.Duration `yaml:"sample_interval"`
	MaxInFlight      int           `yaml:"max_in_flight"`
	MaxFrameSize     uint          `yaml:"max_frame_size"`
	JPEGQuality      int           `yaml:"jpeg_quality"`
	FrameStaleAfter  time.Duration `yaml:"frame_stale_after"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	ReaperSchedule   string        `yaml:"reaper_schedule"`
	LeaseTTL         time.Duration `yaml:"lease_ttl"`
	NotifyLimit      int           `yaml:"notify_limit"`
	DispatchTimeout  time.Duration `yaml:"dispatch_timeout"`
	ServicesNumber   string        `yaml:"services_number"`
	MaxFrameBytes    int64         `yaml:"max_frame_bytes"`
	DefaultLogsLimit int           `yaml:"default_logs_limit"`
}

func loadEmergencyConfig() *EmergencyConfig {
	return &EmergencyConfig{
		ThresholdLow:     getEnvAsInt("EMERGENCY_THRESHOLD_LOW", 30),
		ThresholdMedium:  getEnvAsInt("EMERGENCY_THRESHOLD_MEDIUM", 50),
		ThresholdHigh:    getEnvAsInt("EMERGENCY_THRESHOLD_HIGH", 70),
		DefaultCountdown: getEnvAsInt("EMERGENCY_DEFAULT_COUNTDOWN", 10),
		MinCountdown:     getEnvAsInt("EMERGENCY_MIN_COUNTDOWN", 5),
		MaxCountdown:     getEnvAsInt("EMERGENCY_MAX_COUNTDOWN", 30),
		SampleInterval:   getEnvAsDuration("EMERGENCY_SAMPLE_INTERVAL", 5*time.Second),
		MaxInFlight:      getEnvAsInt("EMERGENCY_MAX_IN_FLIGHT", 2),
		MaxFrameSize:     uint(getEnvAsInt("EMERGENCY_MAX_FRAME_SIZE", 640)),
		JPEGQuality:      getEnvAsInt("EMERGENCY_JPEG_QUALITY", 80),
		FrameStaleAfter:  getEnvAsDuration("EMERGENCY_FRAME_STALE_AFTER", 15*time.Second),
		IdleTimeout:      getEnvAsDuration("EMERGENCY_IDLE_TIMEOUT", 2*time.Minute),
		ReaperSchedule:   getEnv("EMERGENCY_REAPER_SCHEDULE", "@every 30s"),
		LeaseTTL:         getEnvAsDuration("EMERGENCY_LEASE_TTL", time.Minute),
		NotifyLimit:      getEnvAsInt("EMERGENCY_NOTIFY_LIMIT", 8),
		DispatchTimeout:  getEnvAsDuration("EMERGENCY_DISPATCH_TIMEOUT", 60*time.Second),
		ServicesNumber:   getEnv("EMERGENCY_SERVICES_NUMBER", ""),
		MaxFrameBytes:    int64(getEnvAsInt("EMERGENCY_MAX_FRAME_BYTES", 5<<20)),
		DefaultLogsLimit: getEnvAsInt("EMERGENCY_DEFAULT_LOGS_LIMIT", 50),
	}
}

func (c *EmergencyConfig) Validate() error {
	if c.MinCountdown <= 0 || c.MinCountdown > c.MaxCountdown {
		return fmt.Errorf("invalid countdown bounds %d-%d", c.MinCountdown, c.MaxCountdown)
	}
	if c.DefaultCountdown < c.MinCountdown || c.DefaultCountdown > c.MaxCountdown {
		return fmt.Errorf("default countdown %d outside %d-%d", c.DefaultCountdown, c.MinCountdown, c.MaxCountdown)
	}
	if c.ThresholdLow < 0 || c.ThresholdHigh > 100 {
		return fmt.Errorf("thresholds must be within 0-100")
	}
	if c.ThresholdLow > c.ThresholdMedium || c.ThresholdMedium > c.ThresholdHigh {
		return fmt.Errorf("thresholds must satisfy low <= medium <= high")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if c.MaxInFlight < 1 {
		c.MaxInFlight = 1
	}
	if c.NotifyLimit < 1 {
		c.NotifyLimit = 1
	}
	return nil
}
