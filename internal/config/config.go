package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete runtime configuration of the API server.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Session       SessionConfig       `koanf:"session"`
	JWT           JWTConfig           `koanf:"jwt"`
	Storage       StorageConfig       `koanf:"storage"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Log           LogConfig           `koanf:"log"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Mode string `koanf:"mode"`
	// AllowedOrigins is a comma separated list of CORS origins. "*" allows any.
	AllowedOrigins string `koanf:"allowed_origins"`
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (s ServerConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	DSN      string `koanf:"dsn"`
	LogLevel string `koanf:"log_level"`
}

type SessionConfig struct {
	Secret    string `koanf:"secret"`
	Store     string `koanf:"store"`
	RedisAddr string `koanf:"redis_addr"`
	Secure    bool   `koanf:"secure"`
	MaxAge    int    `koanf:"max_age"`
}

type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

type StorageConfig struct {
	UploadDir   string `koanf:"upload_dir"`
	MaxUploadMB int64  `koanf:"max_upload_mb"`
}

type NotificationsConfig struct {
	CleanupInterval   time.Duration `koanf:"cleanup_interval"`
	ReadRetentionDays int           `koanf:"read_retention_days"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported session stores.
const (
	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"
)

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverMySQL
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case DriverPostgres:
			cfg.Database.Port = 5432
		default:
			cfg.Database.Port = 3306
		}
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "workforce"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "workforce"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = SessionStoreCookie
	}
	if cfg.Session.RedisAddr == "" {
		cfg.Session.RedisAddr = "localhost:6379"
	}
	if cfg.Session.MaxAge == 0 {
		cfg.Session.MaxAge = 86400 * 7
	}

	if cfg.JWT.AccessTTL == 0 {
		cfg.JWT.AccessTTL = 30 * time.Minute
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	}

	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.MaxUploadMB == 0 {
		cfg.Storage.MaxUploadMB = 20
	}

	if cfg.Notifications.ReadRetentionDays == 0 {
		cfg.Notifications.ReadRetentionDays = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.Driver == DriverSQLite && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required for sqlite"))
	}

	switch c.Session.Store {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("session.store %q is not supported", c.Session.Store))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		errs = append(errs, errors.New("jwt.access_ttl must be shorter than jwt.refresh_ttl"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not supported", c.Log.Format))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Storage.MaxUploadMB < 0 {
		errs = append(errs, errors.New("storage.max_upload_mb must not be negative"))
	}

	return errors.Join(errs...)
}
