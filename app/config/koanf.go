package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/yatube/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load merges defaults, the config file and the environment, then validates.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"http_addr":             "server.addr",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"enable_metrics":        "server.metrics",

	"db_driver":       "database.driver",
	"badger_path":     "database.path",
	"badger_inmemory": "database.in_memory",
	"badger_sync":     "database.sync_writes",
	"badger_gc":       "database.gc_interval",
	"mysql_dsn":       "database.dsn",

	"media_root":       "media.dir",
	"static_root":      "media.static_dir",
	"max_upload_bytes": "media.max_upload",

	"session_cookie_name":    "session.cookie_name",
	"session_ttl":            "session.ttl",
	"session_hash_key":       "session.hash_key",
	"session_block_key":      "session.block_key",
	"session_cookie_secure":  "session.secure",
	"csrf_key":               "session.csrf_key",
	"session_sweep_interval": "session.sweep_interval",

	"bcrypt_cost": "auth.bcrypt_cost",
	"login_rate":  "auth.login_rate",
	"login_burst": "auth.login_burst",

	"cache_enabled":  "cache.enabled",
	"cache_ttl":      "cache.ttl",
	"cache_max_cost": "cache.max_cost",

	"index_page_size":   "feed.index_page_size",
	"group_page_size":   "feed.group_page_size",
	"profile_page_size": "feed.profile_page_size",
	"follow_page_size":  "feed.follow_page_size",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps HTTP_ADDR style names to config paths. Unknown
// variables map to "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
