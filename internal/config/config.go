package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	S3       S3Config
	Cache    CacheConfig
	Parser   ParserConfig
	Geometry GeometryConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// S3Config holds settings for the processed-image object store. When Bucket is
// empty the pipeline sends images inline instead of by presigned URL.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// CacheConfig holds settings for the extraction result cache.
type CacheConfig struct {
	Provider string `mapstructure:"provider"` // "redis" or "noop"
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSecs  int    `mapstructure:"ttl_secs"`
}

// TTL returns the cache entry time-to-live.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// ParserProviderConfig holds settings for a single AI extraction provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds AI extraction settings with primary/secondary providers.
type ParserConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`

	// RetryMaxTokens is the enlarged completion budget used when the first
	// attempt comes back truncated or unparseable.
	RetryMaxTokens int `mapstructure:"retry_max_tokens"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// GeometryConfig holds settings for geometric normalization.
type GeometryConfig struct {
	// Disabled bypasses all geometry correction (in-process and microservice).
	Disabled bool `mapstructure:"disabled"`
	// ServiceURL points at the optional document-geometry microservice.
	// Empty means in-process only.
	ServiceURL  string `mapstructure:"service_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	// MaxDimension caps the longest side of the working image, aspect-preserving.
	MaxDimension int `mapstructure:"max_dimension"`
}

// PipelineConfig holds extraction pipeline settings.
type PipelineConfig struct {
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// Timeout returns the pipeline-wide deadline.
func (p *PipelineConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// Load reads configuration from environment variables with the KVITTO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KVITTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// S3 defaults (bucket empty = inline images)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 900)

	// Cache defaults
	v.SetDefault("cache.provider", "noop")
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl_secs", 86400)

	// Parser defaults
	v.SetDefault("parser.primary.provider", "claude")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.default_model", "claude-sonnet-4-20250514")
	v.SetDefault("parser.primary.max_tokens", 4096)
	v.SetDefault("parser.primary.timeout_secs", 120)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.api_key", "")
	v.SetDefault("parser.secondary.default_model", "")
	v.SetDefault("parser.secondary.max_tokens", 4096)
	v.SetDefault("parser.secondary.timeout_secs", 120)
	v.SetDefault("parser.retry_max_tokens", 8192)

	// Geometry defaults
	v.SetDefault("geometry.disabled", false)
	v.SetDefault("geometry.service_url", "")
	v.SetDefault("geometry.timeout_secs", 30)
	v.SetDefault("geometry.max_dimension", 2048)

	// Pipeline defaults
	v.SetDefault("pipeline.timeout_secs", 180)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "KVITTO_SERVER_PORT",
		"server.read_timeout":            "KVITTO_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "KVITTO_SERVER_WRITE_TIMEOUT",
		"server.environment":             "KVITTO_SERVER_ENVIRONMENT",
		"log.level":                      "KVITTO_LOG_LEVEL",
		"log.format":                     "KVITTO_LOG_FORMAT",
		"s3.region":                      "KVITTO_S3_REGION",
		"s3.bucket":                      "KVITTO_S3_BUCKET",
		"s3.endpoint":                    "KVITTO_S3_ENDPOINT",
		"s3.access_key":                  "KVITTO_S3_ACCESS_KEY",
		"s3.secret_key":                  "KVITTO_S3_SECRET_KEY",
		"s3.max_file_size_mb":            "KVITTO_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":              "KVITTO_S3_PRESIGN_EXPIRY",
		"cache.provider":                 "KVITTO_CACHE_PROVIDER",
		"cache.addr":                     "KVITTO_CACHE_ADDR",
		"cache.password":                 "KVITTO_CACHE_PASSWORD",
		"cache.db":                       "KVITTO_CACHE_DB",
		"cache.ttl_secs":                 "KVITTO_CACHE_TTL_SECS",
		"parser.primary.provider":        "KVITTO_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":         "KVITTO_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":   "KVITTO_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.max_tokens":      "KVITTO_PARSER_PRIMARY_MAX_TOKENS",
		"parser.primary.timeout_secs":    "KVITTO_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.secondary.provider":      "KVITTO_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":       "KVITTO_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model": "KVITTO_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.max_tokens":    "KVITTO_PARSER_SECONDARY_MAX_TOKENS",
		"parser.secondary.timeout_secs":  "KVITTO_PARSER_SECONDARY_TIMEOUT_SECS",
		"parser.retry_max_tokens":        "KVITTO_PARSER_RETRY_MAX_TOKENS",
		"geometry.disabled":              "KVITTO_GEOMETRY_DISABLED",
		"geometry.service_url":           "KVITTO_GEOMETRY_SERVICE_URL",
		"geometry.timeout_secs":          "KVITTO_GEOMETRY_TIMEOUT_SECS",
		"geometry.max_dimension":         "KVITTO_GEOMETRY_MAX_DIMENSION",
		"pipeline.timeout_secs":          "KVITTO_PIPELINE_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if KVITTO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("KVITTO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Cache = CacheConfig{
		Provider: v.GetString("cache.provider"),
		Addr:     v.GetString("cache.addr"),
		Password: v.GetString("cache.password"),
		DB:       v.GetInt("cache.db"),
		TTLSecs:  v.GetInt("cache.ttl_secs"),
	}
	cfg.Parser = ParserConfig{
		Primary: ParserProviderConfig{
			Provider:     v.GetString("parser.primary.provider"),
			APIKey:       v.GetString("parser.primary.api_key"),
			DefaultModel: v.GetString("parser.primary.default_model"),
			MaxTokens:    v.GetInt("parser.primary.max_tokens"),
			TimeoutSecs:  v.GetInt("parser.primary.timeout_secs"),
		},
		Secondary: ParserProviderConfig{
			Provider:     v.GetString("parser.secondary.provider"),
			APIKey:       v.GetString("parser.secondary.api_key"),
			DefaultModel: v.GetString("parser.secondary.default_model"),
			MaxTokens:    v.GetInt("parser.secondary.max_tokens"),
			TimeoutSecs:  v.GetInt("parser.secondary.timeout_secs"),
		},
		RetryMaxTokens: v.GetInt("parser.retry_max_tokens"),
	}
	cfg.Geometry = GeometryConfig{
		Disabled:     v.GetBool("geometry.disabled"),
		ServiceURL:   v.GetString("geometry.service_url"),
		TimeoutSecs:  v.GetInt("geometry.timeout_secs"),
		MaxDimension: v.GetInt("geometry.max_dimension"),
	}
	cfg.Pipeline = PipelineConfig{
		TimeoutSecs: v.GetInt("pipeline.timeout_secs"),
	}

	if cfg.Geometry.MaxDimension <= 0 {
		return nil, fmt.Errorf("geometry.max_dimension must be positive, got %d", cfg.Geometry.MaxDimension)
	}

	return cfg, nil
}
