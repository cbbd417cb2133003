package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Editor   EditorConfig   `mapstructure:"editor"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig selects the persistence gateway.
// Driver is one of mongo, sqlite, postgres or memory; URI and Name apply to
// mongo, DSN to the SQL drivers.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	URI          string `mapstructure:"uri"`
	Name         string `mapstructure:"name"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// EditorConfig bounds the in-memory editing sessions.
type EditorConfig struct {
	SessionTTL  time.Duration `mapstructure:"session_ttl"` // idle time before a session is dropped
	MaxSessions int           `mapstructure:"max_sessions"`
}

type ExportConfig struct {
	Prefix    string        `mapstructure:"prefix"` // object key prefix for workbooks
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

var drivers = map[string]bool{"mongo": true, "sqlite": true, "postgres": true, "postgresql": true, "memory": true}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	var config Config
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars: database.driver -> DATABASE_DRIVER
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return config, fmt.Errorf("read config: %w", err)
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "coach_dashboard")
	v.SetDefault("database.dsn", "coach.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("editor.session_ttl", "30m")
	v.SetDefault("editor.max_sessions", 256)
	v.SetDefault("export.prefix", "exports")
	v.SetDefault("export.url_expiry", "15m")
	v.SetDefault("log.level", "info")

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"jwt.secret", "s3.endpoint", "s3.region", "s3.access_key_id",
		"s3.secret_access_key", "s3.bucket_name",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if !drivers[c.Database.Driver] {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}
	if c.Editor.SessionTTL <= 0 {
		return errors.New("editor.session_ttl must be positive")
	}
	return nil
}
