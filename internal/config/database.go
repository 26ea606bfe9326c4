package config

import (
	"time"
)

const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
	MinPoolSize    int           `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	AuthSource     string        `yaml:"auth_source"`

	// DSN is used by the SQL drivers. For sqlite it is a file path or ":memory:".
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	LogQueries      bool          `yaml:"log_queries"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", DriverSQLite),
		URI:             getEnv("MONGODB_URI", "mongodb://localhost:27017/happyshaa"),
		Database:        getEnv("MONGODB_DATABASE", "happyshaa"),
		Username:        getEnv("MONGODB_USERNAME", ""),
		Password:        getEnv("MONGODB_PASSWORD", ""),
		MaxPoolSize:     getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:     getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout:  getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:   getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		AuthSource:      getEnv("MONGODB_AUTH_SOURCE", "admin"),
		DSN:             getEnv("DB_DSN", "happyshaa.db"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		LogQueries:      getEnvAsBool("DB_LOG_QUERIES", false),
	}
}
