// Package config loads and watches the application configuration.
// Configuration comes from a YAML file, with SIOSTAM_* environment
// variables taking precedence over file values.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and environment are read
const (
	DefaultSuffix    = "sub-system.yaml"
	DefaultWorkdir   = "data"
	DefaultAddress   = "127.0.0.1"
	DefaultPort      = 4300
	DefaultStaticDir = "static"
	DefaultInterval  = Duration(60 * time.Second)
	DefaultTick      = Duration(time.Second)
)

var validate = validator.New()

// Config is the full application configuration
type Config struct {
	// Suffix selects descriptor files: every file whose name ends in
	// it, in any synchronized target, feeds the graph.
	Suffix string `yaml:"suffix" validate:"required"`

	// Workdir is where git targets are cloned and one-shot output is
	// written.
	Workdir string `yaml:"workdir" validate:"required"`

	Server  ServerConfig   `yaml:"server"`
	Updater UpdaterConfig  `yaml:"updater"`
	Targets []TargetConfig `yaml:"targets" validate:"dive"`
}

// ServerConfig holds the HTTP listener settings. These apply at
// startup only; changing them requires a restart.
type ServerConfig struct {
	Address            string   `yaml:"address" validate:"required"`
	Port               int      `yaml:"port" validate:"gte=1,lte=65535"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// StaticDir is served at the site root, with index.html as the
	// fallback for paths that match no file.
	StaticDir string `yaml:"static_dir" validate:"required"`
}

// UpdaterConfig controls the refresh schedule: Tick is how often the
// scheduler wakes up, Interval how long a snapshot stays fresh.
type UpdaterConfig struct {
	Interval Duration `yaml:"interval" validate:"gt=0"`
	Tick     Duration `yaml:"tick" validate:"gt=0"`
}

// TargetConfig describes one place descriptor files live. A folder
// target points at a local directory; a git target carries a URL and
// optionally a branch. When both are set the folder wins.
type TargetConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
	Folder string `yaml:"folder"`
}

// TargetKind classifies how a target is synchronized
type TargetKind int

const (
	TargetInvalid TargetKind = iota
	TargetFolder
	TargetGit
)

// Kind reports how the target is synchronized. Targets with neither a
// folder nor a URL are invalid and get skipped with a log line, never
// a hard failure.
func (t TargetConfig) Kind() TargetKind {
	switch {
	case t.Folder != "":
		return TargetFolder
	case t.URL != "":
		return TargetGit
	default:
		return TargetInvalid
	}
}

// DisplayName is the label used in logs and clone directory names
func (t TargetConfig) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Folder != "" {
		return t.Folder
	}
	return t.URL
}

// Duration accepts Go duration strings like "60s" in YAML
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads the configuration file, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// ListenAddress joins the server address and port for net listeners
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

func defaultConfig() *Config {
	return &Config{
		Suffix:  DefaultSuffix,
		Workdir: DefaultWorkdir,
		Server: ServerConfig{
			Address:   DefaultAddress,
			Port:      DefaultPort,
			StaticDir: DefaultStaticDir,
		},
		Updater: UpdaterConfig{
			Interval: DefaultInterval,
			Tick:     DefaultTick,
		},
	}
}

// applyEnvironment overlays SIOSTAM_* variables onto the loaded file.
// A variable that is set but unparseable is an error, not a silent
// fallback.
func applyEnvironment(cfg *Config) error {
	if v := os.Getenv("SIOSTAM_SUFFIX"); v != "" {
		cfg.Suffix = v
	}
	if v := os.Getenv("SIOSTAM_WORKDIR"); v != "" {
		cfg.Workdir = v
	}
	if v := os.Getenv("SIOSTAM_SERVER_SOCKET_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SIOSTAM_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SIOSTAM_SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("SIOSTAM_SERVER_CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("SIOSTAM_UPDATER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SIOSTAM_UPDATER_INTERVAL %q: %w", v, err)
		}
		cfg.Updater.Interval = Duration(d)
	}
	if v := os.Getenv("SIOSTAM_UPDATER_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SIOSTAM_UPDATER_TICK %q: %w", v, err)
		}
		cfg.Updater.Tick = Duration(d)
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
