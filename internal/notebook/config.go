package notebook

import (
	"fmt"
	"strings"
)

const (
	DefaultPort        = 5000
	DefaultSessionName = "jupyter"
	DefaultConfigPath  = "~/.jupyter/jupyter_notebook_config.py"
)

// Config describes the notebook server to bring up.
type Config struct {
	Port        int
	SessionName string
	NotebookDir string
	ConfigPath  string
}

func (c Config) withDefaults() Config {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if strings.TrimSpace(c.SessionName) == "" {
		c.SessionName = DefaultSessionName
	}
	if strings.TrimSpace(c.ConfigPath) == "" {
		c.ConfigPath = DefaultConfigPath
	}
	return c
}

// ServerConfig renders the Jupyter configuration file. Token auth stays
// enabled; the server generates the token and the readiness poller scrapes it
// from the listing output.
func ServerConfig(port int) string {
	return fmt.Sprintf(`# Generated by gpuprepctl. Edits are overwritten on the next run.
c.NotebookApp.ip = '0.0.0.0'
c.NotebookApp.port = %d
c.NotebookApp.open_browser = False
c.NotebookApp.allow_root = True
c.NotebookApp.allow_remote_access = True
`, port)
}
