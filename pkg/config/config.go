package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Storage    StorageConfig
	Reports    ReportsConfig
	Dashboard  DashboardConfig
	Timetables TimetablesConfig
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
	// Enabled toggles the live-session registry; tokens are trusted on signature alone when off.
	Enabled bool
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig describes the bucket store used for attachments and timetables.
type StorageConfig struct {
	BaseDir           string
	PublicBaseURL     string
	AttachmentsBucket string
	TimetablesBucket  string
}

// ReportsConfig tunes submission and history behaviour.
type ReportsConfig struct {
	HistoryLimit      int
	MaxAttachmentSize int64
	ExportFormat      string
}

// DashboardConfig governs aggregate fan-out.
type DashboardConfig struct {
	QueryConcurrency int
	AttendanceWindow time.Duration
	QueryTimeout     time.Duration
}

// TimetablesConfig controls timetable uploads and signed download links.
type TimetablesConfig struct {
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
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
		Enabled:  v.GetBool("ENABLE_SESSION_REGISTRY"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		BaseDir:           v.GetString("STORAGE_BASE_DIR"),
		PublicBaseURL:     strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		AttachmentsBucket: v.GetString("STORAGE_ATTACHMENTS_BUCKET"),
		TimetablesBucket:  v.GetString("STORAGE_TIMETABLES_BUCKET"),
	}

	maxAttachment := v.GetInt64("REPORTS_MAX_ATTACHMENT_SIZE")
	if maxAttachment <= 0 {
		maxAttachment = 20 * 1024 * 1024
	}
	cfg.Reports = ReportsConfig{
		HistoryLimit:      v.GetInt("REPORTS_HISTORY_LIMIT"),
		MaxAttachmentSize: maxAttachment,
		ExportFormat:      strings.ToLower(v.GetString("REPORTS_EXPORT_FORMAT")),
	}

	cfg.Dashboard = DashboardConfig{
		QueryConcurrency: v.GetInt("DASHBOARD_QUERY_CONCURRENCY"),
		AttendanceWindow: parseDuration(v.GetString("DASHBOARD_ATTENDANCE_WINDOW"), 30*24*time.Hour),
		QueryTimeout:     parseDuration(v.GetString("DASHBOARD_QUERY_TIMEOUT"), 10*time.Second),
	}

	maxTimetable := v.GetInt64("TIMETABLES_MAX_FILE_SIZE")
	if maxTimetable <= 0 {
		maxTimetable = 10 * 1024 * 1024
	}
	cfg.Timetables = TimetablesConfig{
		SignedURLSecret:  v.GetString("TIMETABLES_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("TIMETABLES_SIGNED_URL_TTL"), 24*time.Hour),
		MaxFileSizeBytes: maxTimetable,
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
	v.SetDefault("DB_NAME", "crm_dashboard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_SESSION_REGISTRY", false)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "crm-dashboard-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_BASE_DIR", "./storage")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/storage")
	v.SetDefault("STORAGE_ATTACHMENTS_BUCKET", "report_attachments")
	v.SetDefault("STORAGE_TIMETABLES_BUCKET", "timetables")

	v.SetDefault("REPORTS_HISTORY_LIMIT", 200)
	v.SetDefault("REPORTS_MAX_ATTACHMENT_SIZE", 20*1024*1024)
	v.SetDefault("REPORTS_EXPORT_FORMAT", "xlsx")

	v.SetDefault("DASHBOARD_QUERY_CONCURRENCY", 4)
	v.SetDefault("DASHBOARD_ATTENDANCE_WINDOW", "720h")
	v.SetDefault("DASHBOARD_QUERY_TIMEOUT", "10s")

	v.SetDefault("TIMETABLES_SIGNED_URL_SECRET", "dev_timetables_secret")
	v.SetDefault("TIMETABLES_SIGNED_URL_TTL", "24h")
	v.SetDefault("TIMETABLES_MAX_FILE_SIZE", 10*1024*1024)
}

func isMissingFile(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such file")
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
