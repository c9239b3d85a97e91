package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Log       LogConfig       `yaml:"log"`
	Jobs      JobsConfig      `yaml:"jobs"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns the listen address for the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the store. Driver is "postgres" or "memory".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// AuthConfig contains bearer token verification settings
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	JWKSURL        string `yaml:"jwks_url"`
	Issuer         string `yaml:"issuer"`
	TokenTTLMinute int    `yaml:"token_ttl_minutes"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig contains MinIO settings for request attachments
type StorageConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// JobsConfig drives the background scheduler
type JobsConfig struct {
	Enabled            bool          `yaml:"enabled"`
	ReminderInterval   time.Duration `yaml:"reminder_interval"`
	StalePendingAfter  time.Duration `yaml:"stale_pending_after"`
	ReminderBatchLimit int           `yaml:"reminder_batch_limit"`
}

type RateLimitConfig struct {
	CreatePerMinute int `yaml:"create_per_minute"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Host: "", Port: 8080},
		Database: DatabaseConfig{Driver: "postgres", MaxConns: 10},
		Auth:     AuthConfig{Issuer: "homelyquad", TokenTTLMinute: 60},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Storage: StorageConfig{
			Endpoint: "localhost:9000",
			Bucket:   "maintenance-attachments",
		},
		Kafka: KafkaConfig{Topic: "maintenance.events"},
		Log:   LogConfig{Level: "info", Format: "text"},
		Jobs: JobsConfig{
			Enabled:            true,
			ReminderInterval:   time.Hour,
			StalePendingAfter:  72 * time.Hour,
			ReminderBatchLimit: 200,
		},
		RateLimit: RateLimitConfig{CreatePerMinute: 10},
	}
}

// Load reads .env, then the optional YAML file at configPath, then environment overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Server.Port = port
		}
	}

	if val := os.Getenv("DATABASE_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}

	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}
	if val := os.Getenv("JWKS_URL"); val != "" {
		c.Auth.JWKSURL = val
	}

	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
		c.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			c.Redis.DB = db
		}
	}

	if val := os.Getenv("MINIO_ENDPOINT"); val != "" {
		c.Storage.Endpoint = val
		c.Storage.Enabled = true
	}
	if val := os.Getenv("MINIO_ACCESS_KEY"); val != "" {
		c.Storage.AccessKey = val
	}
	if val := os.Getenv("MINIO_SECRET_KEY"); val != "" {
		c.Storage.SecretKey = val
	}
	if val := os.Getenv("MINIO_USE_SSL"); val != "" {
		c.Storage.UseSSL = val == "true"
	}
	if val := os.Getenv("MINIO_BUCKET"); val != "" {
		c.Storage.Bucket = val
	}

	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
		c.Kafka.Enabled = true
	}
	if val := os.Getenv("KAFKA_TOPIC"); val != "" {
		c.Kafka.Topic = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database url is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return errors.New("either auth.jwt_secret or auth.jwks_url is required")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage bucket is required when storage is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka topic is required when kafka is enabled")
		}
	}

	if c.Jobs.Enabled && c.Jobs.ReminderInterval <= 0 {
		return errors.New("jobs.reminder_interval must be positive")
	}

	return nil
}
