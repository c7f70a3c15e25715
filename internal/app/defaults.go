package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PLUGBACKUP_CONFIG_PATH: config file location (default: ~/.config/plugbackup.toml)
//   - PLUGBACKUP_HOME: base directory for plugbackup's own data (default: ~/.local/share/plugbackup)
//
// log_dir is a run-level log directory under base_dir, and jobs_log_dir is
// the per-job directory one level under it, matching the layout newLogger and
// newJobLogger create. The CLI does not read either entry: logs go to the
// loaded config's log_dir (config.Config.LogDir), which `config init` sets
// beside the destination (see config.NewConfig).
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	logDir := filepath.Join(baseDir, "log")

	return map[string]string{
		"config_path":  configPath,
		"base_dir":     baseDir,
		"log_dir":      logDir,
		"jobs_log_dir": filepath.Join(logDir, "jobs"),
	}, nil
}

// getConfigPath returns the config file path, checking PLUGBACKUP_CONFIG_PATH
// env var first, then falling back to ~/.config/plugbackup.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PLUGBACKUP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "plugbackup.toml"), nil
}

// getBaseDir returns plugbackup's own base directory (logs, not vault data),
// checking PLUGBACKUP_HOME env var first, then falling back to the XDG
// default ~/.local/share/plugbackup.
func getBaseDir() (string, error) {
	if path := os.Getenv("PLUGBACKUP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "plugbackup"), nil
}
