// Package config は環境変数（と任意の.env）からサーバー設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"linker/internal/platform/db"
	"linker/internal/platform/redis"
	"linker/internal/platform/storage"
)

// Config is the fully resolved server configuration.
type Config struct {
	HTTPAddr     string
	LogLevel     string
	CookieSecure bool
	CORSOrigins  []string

	DB            db.Config
	DBConnTimeout time.Duration
	RunMigrations bool

	Redis redis.Config

	JWTSecret          string
	SessionTTL         time.Duration
	MaxSessionsPerUser int
	BcryptCost         int

	Storage storage.Config

	ProfileCacheTTL time.Duration

	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("cookie_secure", true)
	v.SetDefault("cors_origins", "")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_conn_timeout", "60s")
	v.SetDefault("run_migrations", false)
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("max_sessions_per_user", 5)
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_bucket", "linker")
	v.SetDefault("s3_use_path_style", true)
	v.SetDefault("s3_timeout", "15s")
	v.SetDefault("s3_presign_ttl", "15m")
	v.SetDefault("profile_cache_ttl", "5m")
	v.SetDefault("auth_rate_limit", 20)
	v.SetDefault("auth_rate_window", "1m")
}

// Load reads configuration from the environment. Keys are the upper-case
// names (DB_HOST, S3_ENDPOINT, ...). A missing required value is an error.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.validate(true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase is Load for maintenance commands that only touch the
// database; JWT and object storage settings are not required.
func LoadDatabase() (*Config, error) {
	cfg := read()
	if err := cfg.validate(false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		HTTPAddr:     v.GetString("http_addr"),
		LogLevel:     v.GetString("log_level"),
		CookieSecure: v.GetBool("cookie_secure"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),

		DB: db.Config{
			User:         v.GetString("db_user"),
			Password:     v.GetString("db_password"),
			Name:         v.GetString("db_name"),
			Host:         v.GetString("db_host"),
			Port:         v.GetString("db_port"),
			SSLMode:      v.GetString("db_sslmode"),
			InstanceName: v.GetString("instance_connection_name"),
		},
		DBConnTimeout: v.GetDuration("db_conn_timeout"),
		RunMigrations: v.GetBool("run_migrations"),

		Redis: redis.Config{
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},

		JWTSecret:          v.GetString("jwt_secret"),
		SessionTTL:         v.GetDuration("session_ttl"),
		MaxSessionsPerUser: v.GetInt("max_sessions_per_user"),
		BcryptCost:         v.GetInt("bcrypt_cost"),

		Storage: storage.Config{
			Endpoint:     v.GetString("s3_endpoint"),
			Region:       v.GetString("s3_region"),
			AccessKey:    v.GetString("s3_access_key"),
			SecretKey:    v.GetString("s3_secret_key"),
			Bucket:       v.GetString("s3_bucket"),
			UsePathStyle: v.GetBool("s3_use_path_style"),
			Timeout:      v.GetDuration("s3_timeout"),
			PresignTTL:   v.GetDuration("s3_presign_ttl"),
		},

		ProfileCacheTTL: v.GetDuration("profile_cache_ttl"),

		AuthRateLimit:  v.GetInt("auth_rate_limit"),
		AuthRateWindow: v.GetDuration("auth_rate_window"),
	}
	return cfg
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c *Config) validate(server bool) error {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	require("DB_USER", c.DB.User)
	require("DB_PASSWORD", c.DB.Password)
	require("DB_NAME", c.DB.Name)
	if c.DB.InstanceName == "" {
		require("DB_HOST", c.DB.Host)
	}
	if server {
		require("JWT_SECRET", c.JWTSecret)
		require("S3_ENDPOINT", c.Storage.Endpoint)
		require("S3_ACCESS_KEY", c.Storage.AccessKey)
		require("S3_SECRET_KEY", c.Storage.SecretKey)
		require("S3_BUCKET", c.Storage.Bucket)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.MaxSessionsPerUser <= 0 {
		return errors.New("MAX_SESSIONS_PER_USER must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
