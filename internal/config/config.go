package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ToolConfig is the full gpuprepctl configuration file.
type ToolConfig struct {
	Port             int          `toml:"port"`
	SessionName      string       `toml:"session_name"`
	NotebookDir      string       `toml:"notebook_dir"`
	ServerConfigPath string       `toml:"server_config_path"`
	StatusAddr       string       `toml:"status_addr"`
	BuildRoot        string       `toml:"build_root"`
	Runner           RunnerConfig `toml:"runner"`
	Steps            []StepConfig `toml:"steps"`
}

// RunnerConfig selects where provisioning commands execute.
type RunnerConfig struct {
	Mode            string `toml:"mode"` // local | ssh
	Host            string `toml:"host"`
	Port            string `toml:"port"`
	User            string `toml:"user"`
	KeyPath         string `toml:"key_path"`
	KnownHostsPath  string `toml:"known_hosts_path"`
	InsecureHostKey bool   `toml:"insecure_host_key"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// StepConfig is one provisioning step as written in the config file.
type StepConfig struct {
	Name          string   `toml:"name"`
	Kind          string   `toml:"kind"`
	Packages      []string `toml:"packages"`
	Repo          string   `toml:"repo"`
	Ref           string   `toml:"ref"`
	BuildCommands []string `toml:"build_commands"`
}

// LoadToolConfig decodes a config file over the defaults: keys present in the
// file win, everything else keeps its default.
func LoadToolConfig(path string) (ToolConfig, error) {
	cfg := DefaultToolConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return ToolConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := ValidateToolConfig(cfg); err != nil {
		return ToolConfig{}, err
	}
	return cfg, nil
}

// DefaultToolConfig is what runs when no config file is given.
func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		Port:        5000,
		SessionName: "jupyter",
		Runner:      RunnerConfig{Mode: "local"},
	}
}

func ValidateToolConfig(cfg ToolConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if strings.TrimSpace(cfg.SessionName) == "" {
		return fmt.Errorf("session_name is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Runner.Mode)) {
	case "local":
	case "ssh":
		if strings.TrimSpace(cfg.Runner.Host) == "" {
			return fmt.Errorf("runner.host is required for ssh mode")
		}
		if strings.TrimSpace(cfg.Runner.User) == "" {
			return fmt.Errorf("runner.user is required for ssh mode")
		}
		if strings.TrimSpace(cfg.Runner.KeyPath) == "" {
			return fmt.Errorf("runner.key_path is required for ssh mode")
		}
	default:
		return fmt.Errorf("runner.mode must be local or ssh, got %q", cfg.Runner.Mode)
	}
	return nil
}
