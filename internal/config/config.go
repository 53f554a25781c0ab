package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	TokenTTL               time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UnreadCacheTTL         time.Duration
	OutboxRetryInterval    time.Duration
	StreamKeepalive        time.Duration
	UploadMaxMB            int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FILEFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FileFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "fileflow/submissions")
	v.SetDefault("jwt.token_ttl", "24h")
	v.SetDefault("unread.cache_ttl", "5m")
	v.SetDefault("outbox.retry_interval", "30s")
	v.SetDefault("stream.keepalive", "15s")
	v.SetDefault("upload.max_mb", 25)

	tokenTTL, err := parseDuration(v, "jwt.token_ttl", "24h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt token ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v, "unread.cache_ttl", "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid unread cache ttl: %w", err)
	}

	retryInterval, err := parseDuration(v, "outbox.retry_interval", "30s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid outbox retry interval: %w", err)
	}

	keepalive, err := parseDuration(v, "stream.keepalive", "15s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid stream keepalive: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		TokenTTL:               tokenTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UnreadCacheTTL:         cacheTTL,
		OutboxRetryInterval:    retryInterval,
		StreamKeepalive:        keepalive,
		UploadMaxMB:            v.GetInt("upload.max_mb"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 25
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
