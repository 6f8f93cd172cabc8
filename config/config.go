package config

import (
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPPort    string `envconfig:"HTTP_PORT"    default:":8081"`
	GrpcPort    string `envconfig:"GRPC_PORT"    default:":50051"`
	LogLevel    string `envconfig:"LOG_LEVEL"    default:"info"`

	RedisURL    string        `envconfig:"REDIS_URL"` // empty disables the response cache
	CacheTTL    time.Duration `envconfig:"CACHE_TTL"    default:"5m"`
	SnapshotTTL time.Duration `envconfig:"SNAPSHOT_TTL" default:"30s"`

	TagRulesPath    string `envconfig:"TAG_RULES_PATH"`
	CollectionsPath string `envconfig:"COLLECTIONS_PATH"`
	AdminTokenHash  string `envconfig:"ADMIN_TOKEN_HASH"`
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

var (
	config Config
	once   sync.Once
)

// Load reads the configuration from the environment only.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Load()
		if err != nil {
			logger.Fatalf("Failed to process configuration from environment variables: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: HTTP Port=%s, GRPC Port=%s, LogLevel=%s", config.HTTPPort, config.GrpcPort, config.LogLevel)
		if config.RedisURL == "" {
			logger.Info("Configuration loaded: REDIS_URL not set, response cache disabled")
		}
		if config.AdminTokenHash == "" {
			logger.Warn("Configuration loaded: ADMIN_TOKEN_HASH not set, admin routes are closed")
		}
	})
	return &config
}
