package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backends understood by CacheConfig.Backend.
const (
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
	CacheBackendSQLite   = "sqlite"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Upstream UpstreamConfig
	Refresh  RefreshConfig
	Sessions SessionConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig selects the persistent store behind the entity caches and their TTLs.
type CacheConfig struct {
	Backend     string
	ScheduleTTL time.Duration
	ExamTTL     time.Duration
	SQLitePath  string
	// Retention bounds how long Redis keeps an entry physically; zero keeps it until overwritten.
	Retention time.Duration
}

// UpstreamConfig points at the university API gateway and the backend proxy.
type UpstreamConfig struct {
	SchoolBaseURL string
	ProxyBaseURL  string
	Timeout       time.Duration
	TimeZone      string
	// RecheckInterval is how long a transport failure marks the upstream offline before
	// requests are attempted again.
	RecheckInterval time.Duration
}

// RefreshConfig sizes the background cache refresh worker pool.
type RefreshConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SessionConfig governs the multi-session store.
type SessionConfig struct {
	TTL         time.Duration
	MaxPerUser  int
	SettingsTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Backend:     strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
		ScheduleTTL: parseDuration(v.GetString("SCHEDULE_CACHE_TTL"), 30*time.Minute),
		ExamTTL:     parseDuration(v.GetString("EXAM_CACHE_TTL"), 30*time.Minute),
		SQLitePath:  v.GetString("CACHE_SQLITE_PATH"),
		Retention:   parseDuration(v.GetString("CACHE_RETENTION"), 0),
	}

	cfg.Upstream = UpstreamConfig{
		SchoolBaseURL: strings.TrimRight(v.GetString("SCHOOL_API_URL"), "/"),
		ProxyBaseURL:  strings.TrimRight(v.GetString("PROXY_API_URL"), "/"),
		Timeout:       parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
		TimeZone:      v.GetString("SCHOOL_TIME_ZONE"),

		RecheckInterval: parseDuration(v.GetString("UPSTREAM_RECHECK_INTERVAL"), 30*time.Second),
	}

	cfg.Refresh = RefreshConfig{
		Workers:    v.GetInt("REFRESH_WORKERS"),
		MaxRetries: v.GetInt("REFRESH_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("REFRESH_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Sessions = SessionConfig{
		TTL:         parseDuration(v.GetString("SESSION_TTL"), 7*24*time.Hour),
		MaxPerUser:  v.GetInt("SESSION_MAX_PER_USER"),
		SettingsTTL: parseDuration(v.GetString("SETTINGS_TTL"), 365*24*time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lhu_dashboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("SCHEDULE_CACHE_TTL", "30m")
	v.SetDefault("EXAM_CACHE_TTL", "30m")
	v.SetDefault("CACHE_SQLITE_PATH", "./lhu-cache.db")
	v.SetDefault("CACHE_RETENTION", "")

	v.SetDefault("SCHOOL_API_URL", "https://api.lhu.edu.vn")
	v.SetDefault("PROXY_API_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("SCHOOL_TIME_ZONE", "Asia/Ho_Chi_Minh")
	v.SetDefault("UPSTREAM_RECHECK_INTERVAL", "30s")

	v.SetDefault("REFRESH_WORKERS", 2)
	v.SetDefault("REFRESH_MAX_RETRIES", 3)
	v.SetDefault("REFRESH_RETRY_DELAY", "5s")

	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("SESSION_MAX_PER_USER", 5)
	v.SetDefault("SETTINGS_TTL", "8760h")
}

// Location resolves the configured school time zone, falling back to UTC.
func (c UpstreamConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
