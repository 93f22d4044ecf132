package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 200, cfg.Reports.HistoryLimit)
	assert.Equal(t, "xlsx", cfg.Reports.ExportFormat)
	assert.Equal(t, "report_attachments", cfg.Storage.AttachmentsBucket)
	assert.Equal(t, "timetables", cfg.Storage.TimetablesBucket)
	assert.Equal(t, 30*24*time.Hour, cfg.Dashboard.AttendanceWindow)
	assert.Equal(t, 4, cfg.Dashboard.QueryConcurrency)
	assert.False(t, cfg.Redis.Enabled)
}

func TestOverridesTrimPublicURL(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com/files/")
	v.Set("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := fromViper(v)

	assert.Equal(t, "https://cdn.example.com/files", cfg.Storage.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
}
