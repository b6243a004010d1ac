// Package config loads yatube's runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. The merged result is validated before use.
package config

import (
	"time"

	"yatube/app/logging"
	"yatube/app/services"
)

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Media    MediaConfig    `koanf:"media"`
	Session  SessionConfig  `koanf:"session"`
	Auth     AuthConfig     `koanf:"auth"`
	Cache    CacheConfig    `koanf:"cache"`
	Feed     FeedConfig     `koanf:"feed"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// Metrics exposes /metrics when true.
	Metrics bool `koanf:"metrics"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	// Driver is "badger" (embedded) or "mysql".
	Driver     string `koanf:"driver" validate:"oneof=badger mysql"`
	Path       string `koanf:"path" validate:"required_if=Driver badger InMemory false"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
	DSN        string `koanf:"dsn" validate:"required_if=Driver mysql"`
	// GCInterval is how often the badger value log is compacted. Zero disables it.
	GCInterval time.Duration `koanf:"gc_interval" validate:"gte=0"`
}

// MediaConfig locates uploaded images and static assets.
type MediaConfig struct {
	Dir        string `koanf:"dir" validate:"required"`
	StaticDir  string `koanf:"static_dir"`
	MaxUpload  int64  `koanf:"max_upload" validate:"gt=0"`
	URLPrefix  string `koanf:"url_prefix" validate:"startswith=/,endswith=/"`
	StaticPath string `koanf:"static_path" validate:"startswith=/,endswith=/"`
}

// SessionConfig configures the login cookie.
type SessionConfig struct {
	CookieName string        `koanf:"cookie_name" validate:"required"`
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
	// HashKey signs the cookie. A random key is generated when empty.
	HashKey string `koanf:"hash_key" validate:"omitempty,min=32"`
	// BlockKey encrypts the cookie when set.
	BlockKey string `koanf:"block_key" validate:"omitempty,len=16|len=24|len=32"`
	Secure   bool   `koanf:"secure"`
	// CSRFKey authenticates CSRF tokens. A random key is generated when empty.
	CSRFKey string `koanf:"csrf_key" validate:"omitempty,len=32"`
	// SweepInterval is how often expired sessions are purged. Zero disables it.
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`
}

// AuthConfig configures password hashing and login throttling.
type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost" validate:"gte=4,lte=31"`
	// LoginRate is the number of login attempts allowed per second per client.
	LoginRate  float64 `koanf:"login_rate" validate:"gte=0"`
	LoginBurst int     `koanf:"login_burst" validate:"gte=1"`
}

// CacheConfig configures the rendered page cache.
type CacheConfig struct {
	Enabled   bool          `koanf:"enabled"`
	TTL       time.Duration `koanf:"ttl" validate:"gt=0"`
	MaxCost   int64         `koanf:"max_cost" validate:"gt=0"`
	KeyPrefix string        `koanf:"key_prefix"`
}

// FeedConfig sets how many posts each listing shows per page.
type FeedConfig struct {
	IndexPageSize   int `koanf:"index_page_size" validate:"gte=1"`
	GroupPageSize   int `koanf:"group_page_size" validate:"gte=1"`
	ProfilePageSize int `koanf:"profile_page_size" validate:"gte=1"`
	FollowPageSize  int `koanf:"follow_page_size" validate:"gte=1"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// PageSizes converts the feed section for the post service.
func (f FeedConfig) PageSizes() services.PageSizes {
	return services.PageSizes{
		Index:   f.IndexPageSize,
		Group:   f.GroupPageSize,
		Profile: f.ProfilePageSize,
		Follow:  f.FollowPageSize,
	}
}

// LoggerConfig converts the logging section for logging.Init.
func (l LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format, Caller: l.Caller}
}

func defaultConfig() *Config {
	sizes := services.DefaultPageSizes()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Database: DatabaseConfig{
			Driver:     "badger",
			Path:       "data/yatube",
			GCInterval: 10 * time.Minute,
		},
		Media: MediaConfig{
			Dir:        "media",
			StaticDir:  "static",
			MaxUpload:  5 << 20,
			URLPrefix:  "/media/",
			StaticPath: "/static/",
		},
		Session: SessionConfig{
			CookieName:    "sessionid",
			TTL:           14 * 24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Auth: AuthConfig{
			BcryptCost: 10,
			LoginRate:  1,
			LoginBurst: 5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			TTL:       20 * time.Second,
			MaxCost:   32 << 20,
			KeyPrefix: "index_page",
		},
		Feed: FeedConfig{
			IndexPageSize:   sizes.Index,
			GroupPageSize:   sizes.Group,
			ProfilePageSize: sizes.Profile,
			FollowPageSize:  sizes.Follow,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	return defaultConfig()
}
