package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Features FeaturesConfig `mapstructure:"features"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type LoggerConfig struct {
	Level            string         `mapstructure:"level"`
	Encoding         string         `mapstructure:"encoding"`
	OutputPaths      []string       `mapstructure:"output_paths"`
	ErrorOutputPaths []string       `mapstructure:"error_output_paths"`
	Rotation         RotationConfig `mapstructure:"rotation"`
}

// RotationConfig applies to file outputs only; stdout and stderr are never rotated.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// RealtimeConfig controls where task broadcasts are published.
// Mode "local" publishes on the hub embedded in this process, "remote" dials URL.
type RealtimeConfig struct {
	Mode         string        `mapstructure:"mode"`
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	Encoding     string        `mapstructure:"encoding"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
	AsyncNotify  bool          `mapstructure:"async_notify"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

type AuthConfig struct {
	AdminAPIKey    string   `mapstructure:"admin_api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "followup")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.error_output_paths", []string{"stderr"})
	v.SetDefault("logger.rotation.enable", false)
	v.SetDefault("logger.rotation.max_size_mb", 50)
	v.SetDefault("logger.rotation.max_backups", 3)
	v.SetDefault("logger.rotation.max_age_days", 28)
	v.SetDefault("logger.rotation.compress", true)

	v.SetDefault("realtime.mode", "local")
	v.SetDefault("realtime.url", "")
	v.SetDefault("realtime.async_notify", false)
	v.SetDefault("realtime.channel", "tasks")
	v.SetDefault("realtime.encoding", "json")
	v.SetDefault("realtime.ready_timeout", 5*time.Second)

	v.SetDefault("features.request_id_header", "X-Request-ID")
	v.SetDefault("features.enable_request_logging", true)

	v.SetDefault("auth.admin_api_key", "")
	v.SetDefault("auth.allowed_origins", []string{"*"})
	v.SetDefault("auth.allowed_headers", []string{"authorization", "x-client-info", "apikey", "content-type"})
}

// Load reads path when it is non-empty; environment variables prefixed with
// FOLLOWUP_ override file values either way.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FOLLOWUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.Realtime.Mode {
	case "local":
	case "remote":
		if cfg.Realtime.URL == "" {
			return nil, fmt.Errorf("realtime.url is required when realtime.mode is remote")
		}
	default:
		return nil, fmt.Errorf("unknown realtime.mode %q", cfg.Realtime.Mode)
	}
	if cfg.Realtime.ReadyTimeout <= 0 {
		return nil, fmt.Errorf("realtime.ready_timeout must be positive")
	}

	return &cfg, nil
}
