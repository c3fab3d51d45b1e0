package main

import (
	"os"
	"strings"

	"github.com/mlrig/gpuprep/internal/config"
)

// resolveConfig layers flag overrides on top of the config file (or the
// defaults when no file is given). Flags win over the file; the file wins
// over defaults.
func resolveConfig(path string, port int, sessionName, statusAddr string) (config.ToolConfig, error) {
	cfg := config.DefaultToolConfig()
	if strings.TrimSpace(path) != "" {
		loaded, err := config.LoadToolConfig(path)
		if err != nil {
			return config.ToolConfig{}, err
		}
		cfg = loaded
	}

	if port != 0 {
		cfg.Port = port
	}
	if strings.TrimSpace(sessionName) != "" {
		cfg.SessionName = sessionName
	}
	if strings.TrimSpace(statusAddr) != "" {
		cfg.StatusAddr = statusAddr
	}

	if err := config.ValidateToolConfig(cfg); err != nil {
		return config.ToolConfig{}, err
	}
	return cfg, nil
}

func okMark() string {
	if noColor() {
		return "[+]"
	}
	return "\033[32m[+]\033[0m"
}

func failMark() string {
	if noColor() {
		return "[!]"
	}
	return "\033[31m[!]\033[0m"
}

func noColor() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("GPUPREP_LOG_NOCOLOR"))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
