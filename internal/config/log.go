package config

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	Caller     bool   `yaml:"caller"`
	Colors     bool   `yaml:"colors"`
	AuditOut   string `yaml:"audit_output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "json"),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
		Caller:     getEnvAsBool("LOG_CALLER", false),
		Colors:     getEnvAsBool("LOG_COLORS", false),
		AuditOut:   getEnv("AUDIT_LOG_OUTPUT", "stdout"),
		MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
		MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 28),
	}
}
