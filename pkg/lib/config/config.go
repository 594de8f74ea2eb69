// Package config loads forge configuration from defaults, an optional
// forge.yaml, FORGE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "FORGE"
	ConfigName = "forge"
)

// Config holds the forge configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig describes the bundled database server
type ServerConfig struct {
	Binary        string        `mapstructure:"binary"`
	Path          string        `mapstructure:"path"`
	DataDir       string        `mapstructure:"data_dir"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
	HTTP          string        `mapstructure:"http"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"binary":         "server.binary",
	"path":           "server.path",
	"data-dir":       "server.data_dir",
	"migrations-dir": "server.migrations_dir",
	"http":           "server.http",
	"launch-timeout": "server.launch_timeout",
	"log-level":      "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.binary", "pocketbase")
	v.SetDefault("server.path", "pocketbase")
	v.SetDefault("server.data_dir", "pb_data")
	v.SetDefault("server.migrations_dir", "pb_migrations")
	v.SetDefault("server.http", "")
	v.SetDefault("server.launch_timeout", "30s")
	v.SetDefault("log.level", "info")
}

// Load reads configuration. configFile may be empty to search the default
// locations; a missing default file is not an error. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".forge"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values forge cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Binary) == "" {
		errs = append(errs, errors.New("server.binary must not be empty"))
	}
	if strings.TrimSpace(c.Server.Path) == "" {
		errs = append(errs, errors.New("server.path must not be empty"))
	}
	if c.Server.LaunchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.launch_timeout must be positive, got %s", c.Server.LaunchTimeout))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("binary", "pocketbase", "server binary name used to find running instances")
	fs.String("path", "pocketbase", "path to the server executable")
	fs.String("data-dir", "pb_data", "server data directory")
	fs.String("migrations-dir", "pb_migrations", "server migrations directory")
	fs.String("http", "", "server listen address (host:port)")
	fs.Duration("launch-timeout", 30*time.Second, "how long to wait for the server to become ready")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}
