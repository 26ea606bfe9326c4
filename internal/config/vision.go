package config

import (
	"time"
)

// VisionConfig points at an OpenAI compatible chat completion endpoint
// that accepts image parts.
type VisionConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	ImageDetail string        `yaml:"image_detail"`
}

func loadVisionConfig() *VisionConfig {
	return &VisionConfig{
		APIKey:      getEnv("VISION_API_KEY", ""),
		BaseURL:     getEnv("VISION_BASE_URL", ""),
		Model:       getEnv("VISION_MODEL", "gpt-4o-mini"),
		MaxTokens:   getEnvAsInt("VISION_MAX_TOKENS", 300),
		Temperature: getEnvAsFloat64("VISION_TEMPERATURE", 0.1),
		Timeout:     getEnvAsDuration("VISION_TIMEOUT", 20*time.Second),
		ImageDetail: getEnv("VISION_IMAGE_DETAIL", "low"),
	}
}
