package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DatabaseConfig selects the SQL driver and data source.
type DatabaseConfig struct {
	// Driver is "sqlite" or "pgx".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is a file path for sqlite or a connection URL for pgx.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// FilesConfig holds attachment storage settings.
type FilesConfig struct {
	// Dir is the root directory for task attachments.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// CompressionLevel is the zstd encoder level (1 fastest .. 4 best).
	CompressionLevel int `mapstructure:"compression_level" yaml:"compression_level"`
}

// AdminConfig names the bootstrap administrator. An empty password is
// looked up in the system keyring.
type AdminConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Files    FilesConfig    `mapstructure:"files" yaml:"files"`
	Admin    AdminConfig    `mapstructure:"admin" yaml:"admin"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskapp/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(dataHome(), ".config", "taskapp", "config.yaml")
}

func dataHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home := dataHome()
	return &AppConfig{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(home, ".local", "share", "taskapp", "taskapp.db"),
		},
		Server: ServerConfig{Addr: ":8080"},
		Files: FilesConfig{
			Dir:              filepath.Join(home, ".local", "share", "taskapp", "files"),
			CompressionLevel: 2,
		},
		Admin: AdminConfig{Username: "admin"},
		Log:   LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	def := defaultAppConfig()
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("files.dir", def.Files.Dir)
	v.SetDefault("files.compression_level", def.Files.CompressionLevel)
	v.SetDefault("admin.username", def.Admin.Username)
	v.SetDefault("admin.password", "")
	v.SetDefault("log.level", def.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden by TASKAPP_* environment variables and, when
// flags is non-nil, by any flag the user set explicitly. A missing file
// yields the defaults.
func LoadConfig(path string, flags *pflag.FlagSet) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskapp")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Database.Driver {
	case "sqlite", "pgx":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return cfg, nil
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"db-driver": "database.driver",
	"db":        "database.dsn",
	"addr":      "server.addr",
	"files-dir": "files.dir",
	"log-level": "log.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("server", cfg.Server)
	v.Set("files", cfg.Files)
	v.Set("admin", AdminConfig{Username: cfg.Admin.Username})
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
