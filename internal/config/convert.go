package config

import (
	"strings"
	"time"

	"github.com/mlrig/gpuprep/internal/notebook"
	"github.com/mlrig/gpuprep/internal/provision"
	"github.com/mlrig/gpuprep/internal/tools"
)

// Plan converts the configured steps to a provisioning plan. No configured
// steps means the stock GPU bring-up plan.
func (c ToolConfig) Plan() provision.Plan {
	if len(c.Steps) == 0 {
		return provision.DefaultPlan()
	}
	steps := make([]provision.Step, 0, len(c.Steps))
	for _, s := range c.Steps {
		steps = append(steps, provision.Step{
			Name:          s.Name,
			Kind:          provision.StepKind(s.Kind),
			Packages:      s.Packages,
			RepoURL:       s.Repo,
			Ref:           s.Ref,
			BuildCommands: s.BuildCommands,
		})
	}
	return provision.Plan{Steps: steps}
}

// CommandRunner builds the runner the whole run executes through.
func (c ToolConfig) CommandRunner() tools.CommandRunner {
	if strings.ToLower(strings.TrimSpace(c.Runner.Mode)) != "ssh" {
		return tools.ExecRunner{}
	}
	return tools.SSHRunner{
		Host:                        c.Runner.Host,
		Port:                        c.Runner.Port,
		User:                        c.Runner.User,
		KeyPath:                     c.Runner.KeyPath,
		KnownHostsPath:              c.Runner.KnownHostsPath,
		InsecureSkipHostKeyChecking: c.Runner.InsecureHostKey,
		Timeout:                     time.Duration(c.Runner.TimeoutSeconds) * time.Second,
	}
}

// NotebookConfig maps the file settings onto the launcher's config.
func (c ToolConfig) NotebookConfig() notebook.Config {
	return notebook.Config{
		Port:        c.Port,
		SessionName: c.SessionName,
		NotebookDir: c.NotebookDir,
		ConfigPath:  c.ServerConfigPath,
	}
}
