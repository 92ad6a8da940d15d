package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the service.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Media      MediaConfig
	Log        LogConfig
	Pagination PaginationConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr        string
	BaseURL     string
	CORSOrigins []string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	Driver          string // "sqlite" or "postgres"
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig controls token signing.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MediaConfig controls where uploaded images are stored and served from.
type MediaConfig struct {
	Root      string
	URLPrefix string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

// PaginationConfig controls list page sizes.
type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "foodgram.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("media.root", "./media")
	v.SetDefault("media.url_prefix", "/media")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pagination.default_limit", 6)
	v.SetDefault("pagination.max_limit", 100)
}

// Load reads an optional .env file, an optional config file named by
// FOODGRAM_CONFIG and FOODGRAM_* environment variables, in increasing order
// of precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FOODGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("FOODGRAM_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			BaseURL:     strings.TrimRight(v.GetString("server.base_url"), "/"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Media: MediaConfig{
			Root:      v.GetString("media.root"),
			URLPrefix: strings.TrimRight(v.GetString("media.url_prefix"), "/"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Pagination: PaginationConfig{
			DefaultLimit: v.GetInt("pagination.default_limit"),
			MaxLimit:     v.GetInt("pagination.max_limit"),
		},
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return Config{}, fmt.Errorf("database DSN must not be empty")
	}
	if cfg.Pagination.DefaultLimit <= 0 || cfg.Pagination.MaxLimit < cfg.Pagination.DefaultLimit {
		return Config{}, fmt.Errorf("invalid pagination limits: default %d, max %d",
			cfg.Pagination.DefaultLimit, cfg.Pagination.MaxLimit)
	}

	return cfg, nil
}
