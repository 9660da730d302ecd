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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Legacy   LegacyStoreConfig
	Uploads  UploadsConfig
	Reports  ReportsConfig
	Extract  ExtractConfig
	Cache    CacheConfig
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

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig holds the content lifecycle knobs. Verify and reject
// thresholds are independent even though they default to the same value.
type EngineConfig struct {
	VerifyThreshold int
	RejectThreshold int
	KarmaReward     int
	VerifyXP        int
	SubmitXP        int
	LevelStep       int
	AdminID         string
	AdminBranch     string
}

// LegacyStoreConfig points at the pre-migration JSON snapshot mirror.
type LegacyStoreConfig struct {
	Enabled  bool
	Dir      string
	Filename string
}

// UploadsConfig controls attachment intake.
type UploadsConfig struct {
	StorageDir       string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// ReportsConfig configures asynchronous digest generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExtractConfig configures the external Gemini extraction service.
type ExtractConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// CacheConfig tunes read caching for leaderboard and directory queries.
type CacheConfig struct {
	Enabled        bool
	LeaderboardTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		VerifyThreshold: v.GetInt("ENGINE_VERIFY_THRESHOLD"),
		RejectThreshold: v.GetInt("ENGINE_REJECT_THRESHOLD"),
		KarmaReward:     v.GetInt("ENGINE_KARMA_REWARD"),
		VerifyXP:        v.GetInt("ENGINE_VERIFY_XP"),
		SubmitXP:        v.GetInt("ENGINE_SUBMIT_XP"),
		LevelStep:       v.GetInt("ENGINE_LEVEL_STEP"),
		AdminID:         v.GetString("ENGINE_ADMIN_ID"),
		AdminBranch:     v.GetString("ENGINE_ADMIN_BRANCH"),
	}

	cfg.Legacy = LegacyStoreConfig{
		Enabled:  v.GetBool("LEGACY_STORE_ENABLED"),
		Dir:      v.GetString("LEGACY_STORE_DIR"),
		Filename: v.GetString("LEGACY_STORE_FILENAME"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes: maxUploadSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	cfg.Extract = ExtractConfig{
		Enabled: v.GetBool("ENABLE_EXTRACTION"),
		BaseURL: v.GetString("EXTRACT_BASE_URL"),
		APIKey:  v.GetString("EXTRACT_API_KEY"),
		Model:   v.GetString("EXTRACT_MODEL"),
		Timeout: parseDuration(v.GetString("EXTRACT_TIMEOUT"), 30*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled:        v.GetBool("ENABLE_READ_CACHE"),
		LeaderboardTTL: parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "openverse")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_VERIFY_THRESHOLD", 5)
	v.SetDefault("ENGINE_REJECT_THRESHOLD", 5)
	v.SetDefault("ENGINE_KARMA_REWARD", 10)
	v.SetDefault("ENGINE_VERIFY_XP", 100)
	v.SetDefault("ENGINE_SUBMIT_XP", 20)
	v.SetDefault("ENGINE_LEVEL_STEP", 500)
	v.SetDefault("ENGINE_ADMIN_ID", "ADMIN")
	v.SetDefault("ENGINE_ADMIN_BRANCH", "Central Administration")

	v.SetDefault("LEGACY_STORE_ENABLED", true)
	v.SetDefault("LEGACY_STORE_DIR", "./data")
	v.SetDefault("LEGACY_STORE_FILENAME", "content_snapshot.json")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png")

	v.SetDefault("ENABLE_REPORTS", false)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_EXTRACTION", false)
	v.SetDefault("EXTRACT_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("EXTRACT_API_KEY", "")
	v.SetDefault("EXTRACT_MODEL", "gemini-2.0-flash")
	v.SetDefault("EXTRACT_TIMEOUT", "30s")

	v.SetDefault("ENABLE_READ_CACHE", false)
	v.SetDefault("LEADERBOARD_CACHE_TTL", "5m")
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
