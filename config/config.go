package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lopushok9/whatbird/core"
)

const (
	DriverMemory   = "memory"
	DriverBolt     = "bbolt"
	DriverPostgres = "postgres"

	EnvProduction = "production"
)

type Config struct {
	Server Server
	Auth   Auth
	JWT    JWT
	Store  Store
	Redis  Redis
	Events Events
	Log    Log
}

type Server struct {
	Addr         string
	Environment  string
	CookieDomain string `mapstructure:"cookie_domain"`
}

type Auth struct {
	AppName         string        `mapstructure:"app_name"`
	ChallengeWindow time.Duration `mapstructure:"challenge_window"`
	ClockSkew       time.Duration `mapstructure:"clock_skew"`
}

type JWT struct {
	Secret     string
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type Store struct {
	Driver        string
	Path          string
	DSN           string
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// Redis is optional. When URL is set, refresh records and events go through Redis.
type Redis struct {
	URL string
}

type Events struct {
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type Log struct {
	Level  string
	Format string
}

// Production reports whether the server runs in production
func (c *Config) Production() bool {
	return strings.EqualFold(c.Server.Environment, EnvProduction)
}

// LoadConfig reads the optional YAML file at path and layers the environment on top.
// Keys map to WHATBIRD_ variables, e.g. jwt.secret to WHATBIRD_JWT_SECRET.
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WHATBIRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("jwt.secret", "WHATBIRD_JWT_SECRET", "JWT_SECRET"); err != nil {
		return nil, err
	}

	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		slog.Error("Unable to unmarshal config", "err", err)
		return nil, err
	}
	return &c, nil
}

// Load reads, parses and validates the configuration
func Load(path string) (*Config, error) {
	v, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(v)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":9000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cookie_domain", "")

	v.SetDefault("auth.app_name", "What Bird")
	v.SetDefault("auth.challenge_window", 5*time.Minute)
	v.SetDefault("auth.clock_skew", 30*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", time.Hour)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.path", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.purge_interval", 10*time.Minute)

	v.SetDefault("redis.url", "")

	v.SetDefault("events.topic_prefix", "whatbird")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate reports the first setting the server cannot start with
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.Wrap(core.KindConfig, "Server configuration error", fmt.Errorf(format, args...))
	}

	if c.JWT.Secret == "" {
		return core.Wrap(core.KindConfig, "Server configuration error", errors.New("jwt.secret is not set"))
	}
	if c.JWT.AccessTTL <= 0 {
		return invalid("jwt.access_ttl must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return invalid("jwt.refresh_ttl must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Auth.ChallengeWindow <= 0 {
		return invalid("auth.challenge_window must be positive, got %s", c.Auth.ChallengeWindow)
	}
	if c.Auth.ClockSkew < 0 {
		return invalid("auth.clock_skew must not be negative, got %s", c.Auth.ClockSkew)
	}
	if c.Server.Addr == "" {
		return invalid("server.addr is not set")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Store.Path == "" {
			return invalid("store.path is required for the %s driver", DriverBolt)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return invalid("store.dsn is required for the %s driver", DriverPostgres)
		}
	default:
		return invalid("unknown store.driver %q", c.Store.Driver)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// NewLogger builds the process logger from the log settings
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
