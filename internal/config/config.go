// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the file can be overridden by the environment variable
// named in its env:"..." tag.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
//
// env-required:"true" means the app refuses to start if that value is
// missing.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	// UploadDir is where complaint attachments are written.
	UploadDir string `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`

	HTTPServer `yaml:"http_server"`
	Auth       Auth  `yaml:"auth"`
	Rooms      Rooms `yaml:"rooms"`
	Admin      Admin `yaml:"admin"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr        string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_SERVER_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	// MaxUploadBytes caps the size of a complaint attachment request.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"HTTP_SERVER_MAX_UPLOAD_BYTES" env-default:"5242880"`
}

// Auth configures session tokens.
type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h"`
	Issuer    string        `yaml:"issuer" env:"AUTH_ISSUER" env-default:"hostel-api"`
}

// Rooms describes the fixed room pool created on first start.
type Rooms struct {
	Count       int `yaml:"count" env:"ROOMS_COUNT" env-default:"50"`
	FirstNumber int `yaml:"first_number" env:"ROOMS_FIRST_NUMBER" env-default:"101"`
}

// Admin is the bootstrap administrator account.
type Admin struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME" env-default:"admin"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-required:"true"`
	FullName string `yaml:"full_name" env:"ADMIN_FULL_NAME" env-default:"System Administrator"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case "dev", "staging", "prod":
	default:
		return fmt.Errorf("invalid env %q: want dev, staging or prod", c.Env)
	}
	if c.Rooms.Count <= 0 {
		return fmt.Errorf("rooms.count must be positive, got %d", c.Rooms.Count)
	}
	if c.Rooms.FirstNumber <= 0 {
		return fmt.Errorf("rooms.first_number must be positive, got %d", c.Rooms.FirstNumber)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	return nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to exit on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
