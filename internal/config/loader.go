package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "showcase.yaml"

// DefaultEnvFile is the dotenv file read before environment overrides apply.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both files are optional; missing files are not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < .env < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotEnv populates the process environment from a dotenv file.
// Variables already present in the environment are not overwritten.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SHOWCASE_PORT")
	setString(&cfg.Server.CORSOrigin, "SHOWCASE_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimit, "SHOWCASE_BODY_LIMIT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SHOWCASE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SHOWCASE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SHOWCASE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SHOWCASE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SHOWCASE_PG_HEALTH_CHECK")
	setDuration(&cfg.Postgres.ConnectTimeout, "SHOWCASE_PG_CONNECT_TIMEOUT")

	setString(&cfg.NATS.URL, "NATS_URL")
	setDuration(&cfg.NATS.ConnectTimeout, "SHOWCASE_NATS_CONNECT_TIMEOUT")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Redis.KeyPrefix, "SHOWCASE_REDIS_PREFIX")

	// Storage
	setString(&cfg.Storage.Driver, "SHOWCASE_STORAGE_DRIVER")
	setString(&cfg.Storage.Bucket, "SHOWCASE_STORAGE_BUCKET")
	setString(&cfg.Storage.Region, "SHOWCASE_STORAGE_REGION")
	setString(&cfg.Storage.Endpoint, "SHOWCASE_STORAGE_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "SHOWCASE_STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "SHOWCASE_STORAGE_SECRET_KEY")
	setString(&cfg.Storage.LocalDir, "SHOWCASE_STORAGE_LOCAL_DIR")
	setString(&cfg.Storage.PublicURL, "SHOWCASE_STORAGE_PUBLIC_URL")
	setString(&cfg.Storage.CredentialsFile, "SHOWCASE_STORAGE_CREDENTIALS_FILE")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "SHOWCASE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "SHOWCASE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "SHOWCASE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.TTL, "SHOWCASE_CACHE_TTL")

	// Preview
	setDuration(&cfg.Preview.FetchTimeout, "SHOWCASE_PREVIEW_FETCH_TIMEOUT")
	setInt64(&cfg.Preview.MaxFileBytes, "SHOWCASE_PREVIEW_MAX_FILE_BYTES")
	setInt(&cfg.Preview.MaxConcurrentLoads, "SHOWCASE_PREVIEW_MAX_CONCURRENT_LOADS")
	setInt(&cfg.Preview.MaxInFlightFetches, "SHOWCASE_PREVIEW_MAX_IN_FLIGHT_FETCHES")

	setInt(&cfg.Gallery.LatestLimit, "SHOWCASE_GALLERY_LATEST_LIMIT")

	setString(&cfg.Logging.Level, "SHOWCASE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SHOWCASE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SHOWCASE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "SHOWCASE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "SHOWCASE_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "SHOWCASE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SHOWCASE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "SHOWCASE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "SHOWCASE_RATE_MAX_IDLE_TIME")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "SHOWCASE_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRatio, "SHOWCASE_OTEL_SAMPLE_RATIO")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.BodyLimit < 1 {
		return errors.New("server.body_limit must be >= 1")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.NATS.URL != "" && cfg.NATS.ConnectTimeout <= 0 {
		return errors.New("nats.connect_timeout must be positive")
	}
	switch cfg.Storage.Driver {
	case "":
	case "s3":
		if cfg.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 driver")
		}
		if cfg.Storage.PublicURL == "" {
			return errors.New("storage.public_url is required for the s3 driver")
		}
	case "local":
		if cfg.Storage.LocalDir == "" {
			return errors.New("storage.local_dir is required for the local driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", cfg.Storage.Driver)
	}
	if cfg.Preview.FetchTimeout <= 0 {
		return errors.New("preview.fetch_timeout must be positive")
	}
	if cfg.Preview.MaxFileBytes < 1 {
		return errors.New("preview.max_file_bytes must be >= 1")
	}
	if cfg.Preview.MaxConcurrentLoads < 1 {
		return errors.New("preview.max_concurrent_loads must be >= 1")
	}
	if cfg.Preview.MaxInFlightFetches < 1 {
		return errors.New("preview.max_in_flight_fetches must be >= 1")
	}
	if cfg.Gallery.LatestLimit < 1 {
		return errors.New("gallery.latest_limit must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
