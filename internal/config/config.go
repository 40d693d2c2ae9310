// Package config manages YAML-based configuration and CLI flags for the server.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the server
type Config struct {
	// Root is the directory tree to index
	Root string `yaml:"root" validate:"required"`

	// GitRef, when set, indexes the tree of this ref in the repository at Root
	// instead of the working directory
	GitRef string `yaml:"git_ref,omitempty"`

	// Extension is the recognized file suffix, including the dot
	Extension string `yaml:"extension" validate:"required,startswith=.,excludes=/"`

	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Internal: path of the config file that was loaded, if any
	configPath string
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// MaxInflight bounds concurrently running calls per RPC connection
	MaxInflight int `yaml:"max_inflight" validate:"min=1"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
	// Output is stdout, stderr, or a file path
	Output string `yaml:"output" validate:"required"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Root:      "./test_storage",
		Extension: ".md",
		Server: ServerConfig{
			Host:         "localhost",
			Port:         50051,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxInflight:  16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/oxygen"
	}
	return filepath.Join(home, ".config", "oxygen")
}

// GetConfigPath returns the full path to the default config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load builds the configuration from defaults, a config file, and then the
// command line arguments (without the program name), in increasing priority.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("oxygen", flag.ContinueOnError)
	root := fs.String("root", "", "Root directory to index")
	fs.StringVar(root, "r", "", "Root directory to index (shorthand)")
	ext := fs.String("ext", "", "Recognized file extension")
	gitRef := fs.String("git-ref", "", "Index the tree of this git ref instead of the working directory")
	host := fs.String("host", "", "Listen host")
	port := fs.Int("port", 0, "Listen port")
	logLevel := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	configFile := fs.String("config", "", "Configuration file path")
	metrics := fs.Bool("metrics", true, "Expose Prometheus metrics at /metrics")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Determine config file path
	cfgPath := *configFile
	if cfgPath == "" {
		if _, err := os.Stat(GetConfigPath()); err == nil {
			cfgPath = GetConfigPath()
		} else if _, err := os.Stat("oxygen.yaml"); err == nil {
			cfgPath = "oxygen.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only fail if the user explicitly named the file
			return nil, err
		}
		cfg.configPath = cfgPath
	}

	// Command line flags override the config file (only if explicitly set)
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *root != "" {
		cfg.Root = *root
	}
	if *ext != "" {
		cfg.Extension = *ext
	}
	if *gitRef != "" {
		cfg.GitRef = *gitRef
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if set["metrics"] {
		cfg.Metrics.Enabled = *metrics
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// normalize resolves the root to an absolute path and fixes up spelling
// variations of the extension and log level
func (c *Config) normalize() {
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		c.Extension = "." + c.Extension
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	if c.Root == "" {
		return
	}
	if abs, err := filepath.Abs(c.Root); err == nil {
		c.Root = abs
	}
	// A symlinked root is served as the directory it points to; symlinks
	// below the root are never followed.
	if c.GitRef == "" {
		if resolved, err := filepath.EvalSymlinks(c.Root); err == nil {
			c.Root = resolved
		}
	}
}

var validate = validator.New()

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: %s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// GetConfigFilePath returns the path to the config file that was loaded
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}
