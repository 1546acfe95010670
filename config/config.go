package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application-wide configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	IDGen    IDGenConfig    `mapstructure:"idgen"`
	Client   ClientConfig   `mapstructure:"client"`
	Log      LogConfig      `mapstructure:"log"`
	Feature  FeatureConfig  `mapstructure:"feature"`
}

// ServerConfig HTTP server
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	BodyLimit    int64         `mapstructure:"body_limit"` // bytes, whole request
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig relational datastore. Driver is one of mysql, postgres, sqlite.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	Path            string `mapstructure:"path"` // sqlite file, ":memory:" allowed
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the driver-specific connection string
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
		)
	case "sqlite":
		return c.Path
	default:
		// clientFoundRows makes RowsAffected count matched rows, so an update
		// that changes nothing is not mistaken for a missing row.
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
			c.User, c.Password, c.Host, c.Port, c.Name,
		)
	}
}

// RedisConfig token blacklist and rate limiting
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT and password hashing
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	RateLimit      int           `mapstructure:"rate_limit"`        // requests per window on /login and /signup
	RateWindow     time.Duration `mapstructure:"rate_limit_window"`
}

// StorageConfig uploaded shipment images
type StorageConfig struct {
	ImageDir      string `mapstructure:"image_dir"`
	MaxImageBytes int64  `mapstructure:"max_image_bytes"`
}

// KafkaConfig shipment lifecycle events. Empty Brokers disables publishing.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// IDGenConfig identifier allocation. MaxAttempts 0 means unbounded.
type IDGenConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

// ClientConfig endpoint resolution used by shiptrackctl probe
type ClientConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	HealthPath  string        `mapstructure:"health_path"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Backoff     bool          `mapstructure:"backoff"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LogConfig logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeatureConfig feature switches
type FeatureConfig struct {
	RequireDestination bool `mapstructure:"require_destination"`
}

// Load reads configuration.
// Precedence: environment > config file > defaults. A .env file, if present,
// is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 32<<20)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:8081"})

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.name", "shiptrack")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.path", "shiptrack.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "") // registered so the env override is picked up
	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.rate_limit", 20)
	v.SetDefault("auth.rate_limit_window", "1m")

	v.SetDefault("storage.image_dir", "./uploads")
	v.SetDefault("storage.max_image_bytes", 10<<20)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "shipment-events")

	v.SetDefault("idgen.max_attempts", 100)

	v.SetDefault("client.endpoints", []string{"http://localhost:8080"})
	v.SetDefault("client.health_path", "/health")
	v.SetDefault("client.max_attempts", 3)
	v.SetDefault("client.retry_delay", "2s")
	v.SetDefault("client.backoff", false)
	v.SetDefault("client.timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("feature.require_destination", false)

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("SHIPTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot run without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.BcryptCost < 12 {
		return fmt.Errorf("config: auth.bcrypt_cost must be at least 12")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.Database.Driver)
	}
	if c.IDGen.MaxAttempts < 0 {
		return fmt.Errorf("config: idgen.max_attempts must not be negative")
	}
	return nil
}
