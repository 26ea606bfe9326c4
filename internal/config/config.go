package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Log       *LogConfig       `yaml:"log"`
	Database  *DatabaseConfig  `yaml:"database"`
	Redis     *RedisConfig     `yaml:"redis"`
	SMS       *SMSConfig       `yaml:"sms"`
	Push      *PushConfig      `yaml:"push"`
	Maps      *MapsConfig      `yaml:"maps"`
	Vision    *VisionConfig    `yaml:"vision"`
	Emergency *EmergencyConfig `yaml:"emergency"`
	Storage   *StorageConfig   `yaml:"storage"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Security  *SecurityConfig  `yaml:"security"`
}

type AppConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Environment     string        `yaml:"environment"`
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	BaseURL         string        `yaml:"base_url"`
	Debug           bool          `yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
}

type SecurityConfig struct {
	JWTSecret          string   `yaml:"jwt_secret"`
	JWTIssuer          string   `yaml:"jwt_issuer"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	ClassifyRateLimit  string   `yaml:"classify_rate_limit"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	TrustedProxies     []string `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:       loadAppConfig(),
		Log:       loadLogConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		SMS:       loadSMSConfig(),
		Push:      loadPushConfig(),
		Maps:      loadMapsConfig(),
		Vision:    loadVisionConfig(),
		Emergency: loadEmergencyConfig(),
		Storage:   loadStorageConfig(),
		WebSocket: loadWebSocketConfig(),
		Security:  loadSecurityConfig(),
	}

	if err := config.Emergency.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:            getEnv("APP_NAME", "happyshaa"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		Environment:     getEnv("APP_ENV", "development"),
		Port:            getEnvAsInt("APP_PORT", 8080),
		Host:            getEnv("APP_HOST", "0.0.0.0"),
		BaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:           getEnvAsBool("APP_DEBUG", true),
		ShutdownTimeout: getEnvAsDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
		MetricsEnabled:  getEnvAsBool("METRICS_ENABLED", true),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		ClassifyRateLimit:  getEnv("CLASSIFY_RATE_LIMIT", "30-M"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}
