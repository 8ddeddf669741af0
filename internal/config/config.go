package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	DBDSN string

	JWTSecret          string
	JWTExpirationHours int

	// Tongyi Wanxiang (DashScope) text-to-image API
	AIProvider       string
	DashScopeAPIKey  string
	DashScopeBaseURL string
	PollInterval     time.Duration
	PollMaxAttempts  int

	// recent-history cache backend: "memory" or "redis"
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UploadDir string
	OutputDir string

	// RetentionDays bounds how long chat history and generation records
	// are kept before the nightly cleanup prunes them.
	RetentionDays int
}

func Load() Config {
	// .env is optional; real environment variables win over file entries.
	_ = godotenv.Load()

	listen := os.Getenv("LISTEN_ADDR")
	if listen == "" {
		listen = ":8080"
	}

	// DSN demo：
	// root:pass@tcp(127.0.0.1:3306)/ai_picture_gen?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		host := envOr("MYSQL_HOST", "127.0.0.1")
		port := envOr("MYSQL_PORT", "3306")
		user := envOr("MYSQL_USER", "root")
		pass := os.Getenv("MYSQL_PASSWORD")
		name := envOr("MYSQL_DATABASE", "ai_picture_gen")
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			user, pass, host, port, name,
		)
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	expHours := 24
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expHours = n
		}
	}

	provider := os.Getenv("AI_PROVIDER")
	if provider == "" {
		provider = "tongyi"
	}

	baseURL := os.Getenv("DASHSCOPE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/api/v1"
	}

	pollInterval := 2 * time.Second
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pollInterval = time.Duration(n) * time.Second
		}
	}

	pollAttempts := 25
	if v := os.Getenv("POLL_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pollAttempts = n
		}
	}

	cacheBackend := os.Getenv("CACHE_BACKEND")
	if cacheBackend == "" {
		cacheBackend = "memory"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	retentionDays := 90
	if v := os.Getenv("RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retentionDays = n
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return Config{
		ListenAddr: listen,

		DBDSN: dsn,

		JWTSecret:          secret,
		JWTExpirationHours: expHours,

		AIProvider:       provider,
		DashScopeAPIKey:  os.Getenv("DASHSCOPE_API_KEY"),
		DashScopeBaseURL: baseURL,
		PollInterval:     pollInterval,
		PollMaxAttempts:  pollAttempts,

		CacheBackend:  cacheBackend,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		UploadDir: envOr("UPLOAD_FOLDER", "uploads"),
		OutputDir: envOr("OUTPUT_FOLDER", "outputs"),

		RetentionDays: retentionDays,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
