// Package config loads and validates the configuration of a sync run. Values
// come from the process environment, optionally seeded from a .env file, and
// are loaded once per invocation then passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported object store backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Supported log output formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Environment keys. Aliases are resolved in the order they are listed in
// bindings below.
const (
	KeyAccessKey      = "ACCESS_KEY"
	KeySecretKey      = "SECRET_KEY"
	KeyRegion         = "REGION"
	KeyBucketName     = "BUCKET_NAME"
	KeyQAJSONFiles    = "QA_JSON_FILES"
	KeyStoreBackend   = "STORE_BACKEND"
	KeyS3Endpoint     = "S3_ENDPOINT"
	KeyS3UseSSL       = "S3_USE_SSL"
	KeyRedisAddrs     = "REDIS_ADDRS"
	KeyRedisPassword  = "REDIS_PASSWORD"
	KeyRedisCluster   = "REDIS_CLUSTER"
	KeyCacheKeyPrefix = "CACHE_KEY_PREFIX"
	KeyCacheTTL       = "CACHE_TTL"
	KeyCacheBatchSize = "CACHE_BATCH_SIZE"
	KeyReportKey      = "REPORT_KEY"
	KeyLogLevel       = "LOG_LEVEL"
	KeyLogFormat      = "LOG_FORMAT"
)

var bindings = map[string][]string{
	KeyAccessKey:  {KeyAccessKey, "AWS_ACCESS_KEY_ID"},
	KeySecretKey:  {KeySecretKey, "AWS_SECRET_ACCESS_KEY"},
	KeyRegion:     {KeyRegion, "AWS_REGION"},
	KeyBucketName: {KeyBucketName, "S3_BUCKET_NAME"},
}

var defaults = map[string]any{
	KeyStoreBackend:   BackendS3,
	KeyS3UseSSL:       true,
	KeyRedisCluster:   false,
	KeyCacheKeyPrefix: "files2cache",
	KeyCacheTTL:       "0s",
	KeyCacheBatchSize: 500,
	KeyLogLevel:       "info",
	KeyLogFormat:      LogFormatJSON,
}

// MissingConfigurationError reports a required configuration value that is
// absent or blank.
type MissingConfigurationError struct {
	Key string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration %s", e.Key)
}

// Config holds everything a sync run needs.
type Config struct {
	AccessKey  string // Static AWS access key
	SecretKey  string // Static AWS secret key
	Region     string // AWS region of the bucket
	BucketName string // Bucket holding the qa/, cw3/ and eq3/ folders

	QAJSONFiles string // Comma-separated file names under qa/

	StoreBackend string // "s3"|"minio"
	S3Endpoint   string // Custom endpoint, required for minio
	S3UseSSL     bool   // TLS towards a custom endpoint

	RedisAddrs     []string      // One address for a single node, several for a cluster
	RedisPassword  string        // Redis AUTH password
	RedisCluster   bool          // Force cluster mode for a single configuration endpoint
	CacheKeyPrefix string        // Prepended to every cache key
	CacheTTL       time.Duration // Zero disables expiry
	CacheBatchSize int           // Codes per RPUSH command

	ReportKey string // Object key for the JSON run report, empty disables upload

	LogLevel  string // zerolog level name
	LogFormat string // "json"|"console"
}

// Load reads configuration from the environment. Files passed in envFiles
// (".env" when none are given) are loaded first without overriding variables
// that are already set. Missing files are skipped; any other read or parse
// failure is returned.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		AccessKey:      strings.TrimSpace(v.GetString(KeyAccessKey)),
		SecretKey:      strings.TrimSpace(v.GetString(KeySecretKey)),
		Region:         strings.TrimSpace(v.GetString(KeyRegion)),
		BucketName:     strings.TrimSpace(v.GetString(KeyBucketName)),
		QAJSONFiles:    v.GetString(KeyQAJSONFiles),
		StoreBackend:   strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreBackend))),
		S3Endpoint:     strings.TrimSpace(v.GetString(KeyS3Endpoint)),
		S3UseSSL:       v.GetBool(KeyS3UseSSL),
		RedisAddrs:     splitList(v.GetString(KeyRedisAddrs)),
		RedisPassword:  v.GetString(KeyRedisPassword),
		RedisCluster:   v.GetBool(KeyRedisCluster),
		CacheKeyPrefix: v.GetString(KeyCacheKeyPrefix),
		CacheBatchSize: v.GetInt(KeyCacheBatchSize),
		ReportKey:      strings.TrimSpace(v.GetString(KeyReportKey)),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
	}

	ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyCacheTTL)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyCacheTTL, err)
	}
	cfg.CacheTTL = ttl

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// Validate checks the values required to reach the object store and the
// sanity of the optional settings. QA_JSON_FILES is not checked here; it is
// only required by QA extraction.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyAccessKey, c.AccessKey},
		{KeySecretKey, c.SecretKey},
		{KeyRegion, c.Region},
		{KeyBucketName, c.BucketName},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingConfigurationError{Key: r.key}
		}
	}

	switch c.StoreBackend {
	case BackendS3:
	case BackendMinio:
		if c.S3Endpoint == "" {
			return &MissingConfigurationError{Key: KeyS3Endpoint}
		}
	default:
		return fmt.Errorf("store backend must be %s or %s, got %q", BackendS3, BackendMinio, c.StoreBackend)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}

	if c.CacheBatchSize < 1 {
		return fmt.Errorf("cache batch size must be at least 1")
	}

	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		return fmt.Errorf("log format must be %s or %s", LogFormatJSON, LogFormatConsole)
	}

	return nil
}

// QAFiles returns the configured QA file names in order. Entries are trimmed
// and blank entries are dropped.
func (c *Config) QAFiles() []string {
	return splitList(c.QAJSONFiles)
}

// CacheEnabled reports whether a Redis endpoint is configured.
func (c *Config) CacheEnabled() bool {
	return len(c.RedisAddrs) > 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
