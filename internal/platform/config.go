package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/memento/pkg/export"
)

// ConfigFileName is looked up in the working directory and the project root.
const ConfigFileName = "memento.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MEMENTO_"

// Config is the file and environment configuration of the CLI.
// Precedence: flags > environment > memento.yaml > defaults.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Adapter  string         `yaml:"adapter"`
	LogLevel string         `yaml:"log_level"`
	Export   ExportConfig   `yaml:"export"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Server   ServerConfig   `yaml:"server"`
}

// ExportConfig configures exports.
type ExportConfig struct {
	Dir     string `yaml:"dir"`
	Format  string `yaml:"format"`
	Share   string `yaml:"share"` // clipboard, command or none
	Command string `yaml:"command"`
}

// DispatchConfig configures the reminder dispatcher.
type DispatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// ServerConfig configures `memento serve`.
type ServerConfig struct {
	Addr             string   `yaml:"addr"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	Secret           string   `yaml:"secret"` // enables bearer-token auth when set
	MCP              bool     `yaml:"mcp"`    // mount the MCP endpoint at /mcp
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Adapter:  "fs",
		LogLevel: "info",
		Export: ExportConfig{
			Format: string(export.FormatText),
			Share:  "none",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7521",
			MCP:  true,
		},
	}
}

// LoadConfig reads path (a missing file is fine), then loads .env files
// (default ".env") into the environment and applies MEMENTO_* overrides.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing .env files are expected; existing variables are never overwritten.
		_ = godotenv.Load(f)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getenv("DATA_DIR", c.DataDir)
	c.Adapter = getenv("ADAPTER", c.Adapter)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.Export.Dir = getenv("EXPORT_DIR", c.Export.Dir)
	c.Export.Format = getenv("EXPORT_FORMAT", c.Export.Format)
	c.Export.Share = getenv("SHARE", c.Export.Share)
	c.Export.Command = getenv("SHARE_COMMAND", c.Export.Command)

	c.Server.Addr = getenv("SERVER_ADDR", c.Server.Addr)
	c.Server.Secret = getenv("API_SECRET", c.Server.Secret)
	if v := getenv("CORS_ORIGINS", ""); v != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}

	if v := getenv("DISPATCH_INTERVAL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sDISPATCH_INTERVAL: %w", EnvPrefix, err)
		}
		c.Dispatch.Interval = d
	}
	return nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if v == "" {
		return def
	}
	return v
}

// Sharer builds the share action named by the export configuration.
func (c Config) Sharer() (export.Sharer, error) {
	switch strings.ToLower(c.Export.Share) {
	case "", "none":
		return export.NopSharer{}, nil
	case "clipboard":
		return export.ClipboardSharer{}, nil
	case "command":
		fields := strings.Fields(c.Export.Command)
		if len(fields) == 0 {
			return export.CommandSharer{}, nil
		}
		return export.CommandSharer{Command: fields[0], Args: fields[1:]}, nil
	default:
		return nil, fmt.Errorf("unknown share action %q", c.Export.Share)
	}
}

// Options translates the configuration into App options.
func (c Config) Options() ([]Option, error) {
	format, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return nil, err
	}
	sharer, err := c.Sharer()
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithExportFormat(format),
		WithSharer(sharer),
	}
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.Export.Dir != "" {
		opts = append(opts, WithExportDir(c.Export.Dir))
	}
	if c.Dispatch.Interval > 0 {
		opts = append(opts, WithDispatchInterval(c.Dispatch.Interval))
	}
	return opts, nil
}
