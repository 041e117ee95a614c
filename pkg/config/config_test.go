package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ScheduleTTL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ExamTTL)
	assert.Zero(t, cfg.Cache.Retention)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Upstream.RecheckInterval)
	assert.Equal(t, 2, cfg.Refresh.Workers)
	assert.Equal(t, 5, cfg.Sessions.MaxPerUser)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("CACHE_BACKEND", " Redis ")
	v.Set("SCHEDULE_CACHE_TTL", "5m")
	v.Set("EXAM_CACHE_TTL", "not-a-duration")
	v.Set("SCHOOL_API_URL", "https://api.example.edu/")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ScheduleTTL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ExamTTL, "unparseable durations fall back")
	assert.Equal(t, "https://api.example.edu", cfg.Upstream.SchoolBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestUpstreamLocation(t *testing.T) {
	assert.Equal(t, time.UTC, UpstreamConfig{}.Location())
	assert.Equal(t, time.UTC, UpstreamConfig{TimeZone: "Mars/Olympus"}.Location())

	loc := UpstreamConfig{TimeZone: "Asia/Ho_Chi_Minh"}.Location()
	_, offset := time.Date(2024, 3, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7*3600, offset)
}
