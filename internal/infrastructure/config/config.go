package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
	Launcher  LauncherConfig
	Display   DisplayConfig
	Route     RouteConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// StoreConfig holds notification buffer configuration.
type StoreConfig struct {
	HostPackage  string        `envconfig:"HOST_PACKAGE" default:"com.arglass.notificationdisplay"`
	Capacity     int           `envconfig:"STORE_CAPACITY" default:"50"`
	Expiry       time.Duration `envconfig:"STORE_EXPIRY" default:"60s"`
	Recent       int           `envconfig:"STORE_RECENT" default:"10"`
	Sweep        time.Duration `envconfig:"STORE_SWEEP" default:"30s"`
	SkipPatterns []string      `envconfig:"STORE_SKIP_PATTERNS"`
}

// LauncherConfig holds app launcher configuration.
type LauncherConfig struct {
	CatalogDir string   `envconfig:"LAUNCHER_CATALOG" default:"./apps"`
	Favorites  []string `envconfig:"LAUNCHER_FAVORITES"`
	Window     int      `envconfig:"LAUNCHER_WINDOW" default:"5"`
	// ExecTemplate launches entries without their own command; "{package}"
	// is replaced with the entry's package.
	ExecTemplate []string `envconfig:"LAUNCHER_EXEC" default:"monkey,-p,{package},-c,android.intent.category.LAUNCHER,1"`
}

// DisplayConfig holds presenter configuration.
type DisplayConfig struct {
	Locale     string        `envconfig:"DISPLAY_LOCALE" default:"fr"`
	Tick       time.Duration `envconfig:"DISPLAY_TICK" default:"1s"`
	NavTimeout time.Duration `envconfig:"NAV_TIMEOUT" default:"2m"`
}

// RouteConfig holds the optional routing service configuration.
// An empty APIBase disables lookups; the synthetic route is used instead.
type RouteConfig struct {
	APIBase string        `envconfig:"ROUTE_API_BASE" default:"https://api.openrouteservice.org"`
	APIKey  string        `envconfig:"ROUTE_API_KEY"`
	Timeout time.Duration `envconfig:"ROUTE_TIMEOUT" default:"5s"`
}

// Load loads configuration from environment variables, after merging an
// optional .env file in the working directory.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile merges the given dotenv file (if it exists) into the process
// environment without overriding variables already set, then processes
// the environment.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Store: StoreConfig{
			HostPackage: "com.arglass.notificationdisplay",
			Capacity:    50,
			Expiry:      60 * time.Second,
			Recent:      10,
			Sweep:       30 * time.Second,
		},
		Launcher: LauncherConfig{
			CatalogDir:   "./apps",
			Window:       5,
			ExecTemplate: []string{"monkey", "-p", "{package}", "-c", "android.intent.category.LAUNCHER", "1"},
		},
		Display: DisplayConfig{
			Locale:     "fr",
			Tick:       time.Second,
			NavTimeout: 2 * time.Minute,
		},
		Route: RouteConfig{
			APIBase: "https://api.openrouteservice.org",
			Timeout: 5 * time.Second,
		},
	}
}
