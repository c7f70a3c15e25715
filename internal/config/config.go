// Package config handles reading and writing the TOML configuration that
// drives a backup run.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for a plugbackup run.
type Config struct {
	LogDir string `toml:"log_dir"`
	Jobs   []Job  `toml:"jobs"`
}

// Job describes one source/destination backup pairing and its policy.
type Job struct {
	Name              string   `toml:"name"`
	Source            string   `toml:"source"`
	Destination       string   `toml:"destination"`
	NamespaceOverride string   `toml:"namespace,omitempty"`
	VerifyAfterWrite  bool     `toml:"verify_after_write"`
	MaxRetries        int      `toml:"max_retries"`
	SpeedLimitBps     int64    `toml:"speed_limit_bps,omitempty"` // 0 = unlimited
	IgnoreGlobs       []string `toml:"ignore,omitempty"`
	IgnoreFile        string   `toml:"ignore_file,omitempty"`
	FileWhitelist     []string `toml:"whitelist,omitempty"`
	KeepVersions      bool     `toml:"keep_versions"`
	KeepDeleted       bool     `toml:"keep_deleted"`
	RetentionDays     int      `toml:"retention_days,omitempty"` // 0 = keep forever
}

// NewConfig creates a Config with a single job and sensible defaults.
func NewConfig(name, source, destination string) *Config {
	return &Config{
		LogDir: filepath.Join(filepath.Dir(destination), "plugbackup-logs"),
		Jobs: []Job{
			{
				Name:             name,
				Source:           source,
				Destination:      destination,
				VerifyAfterWrite: true,
				MaxRetries:       3,
				KeepVersions:     true,
				KeepDeleted:      true,
			},
		},
	}
}

// Manager handles reading and writing configuration documents.
type Manager struct{}

// Read decodes a Config from r.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes cfg to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the file at path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. It refuses to overwrite an
// existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// JobByName returns the job with the given name, or an error if none match.
func (c *Config) JobByName(name string) (*Job, error) {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i], nil
		}
	}
	return nil, fmt.Errorf("no job named %q in config", name)
}
