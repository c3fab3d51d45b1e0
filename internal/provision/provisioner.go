package provision

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mlrig/gpuprep/internal/observability"
	"github.com/mlrig/gpuprep/internal/tools"
)

const defaultBuildRoot = "/usr/local/src/gpuprep"

// Config selects the runner the steps execute through and where source builds
// are checked out on the target host.
type Config struct {
	Runner    tools.CommandRunner
	BuildRoot string
}

// Provisioner applies a plan step by step. It never touches the local
// filesystem directly; with an SSH runner the build root lives on the remote
// host.
type Provisioner struct {
	runner     tools.CommandRunner
	buildRoot  string
	aptUpdated bool
}

func NewProvisioner(cfg Config) *Provisioner {
	runner := cfg.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	buildRoot := strings.TrimSpace(cfg.BuildRoot)
	if buildRoot == "" {
		buildRoot = defaultBuildRoot
	}
	return &Provisioner{runner: runner, buildRoot: buildRoot}
}

// Apply runs every step in order. The first failure aborts the remaining
// steps; there is no rollback, so the caller must treat an error as a
// partially provisioned host.
func (p *Provisioner) Apply(plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	for _, step := range plan.Steps {
		start := time.Now()
		err := p.apply(step)
		observability.RecordProvisionStep(step.Name, string(step.Kind), time.Since(start), err == nil)
		if err != nil {
			log.Error().
				Str("step", step.Name).
				Str("kind", string(step.Kind)).
				Dur("duration", time.Since(start)).
				Err(err).
				Msg("provisioning step failed")
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
		log.Info().
			Str("step", step.Name).
			Str("kind", string(step.Kind)).
			Dur("duration", time.Since(start)).
			Msg("provisioning step complete")
	}
	return nil
}

func (p *Provisioner) apply(step Step) error {
	switch StepKind(strings.ToLower(strings.TrimSpace(string(step.Kind)))) {
	case StepAptInstall:
		return p.aptInstall(step)
	case StepPipUpgrade:
		return p.pipUpgrade(step)
	case StepSourceBuild:
		return p.sourceBuild(step)
	case StepAptUpgrade:
		return p.aptUpgrade()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, step.Kind)
	}
}

func (p *Provisioner) aptInstall(step Step) error {
	if err := p.ensureAptIndex(); err != nil {
		return err
	}
	args := append([]string{"DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y"}, step.Packages...)
	return p.run("env", args...)
}

func (p *Provisioner) pipUpgrade(step Step) error {
	args := append([]string{"-m", "pip", "install", "--upgrade"}, step.Packages...)
	return p.run("python3", args...)
}

func (p *Provisioner) aptUpgrade() error {
	if err := p.ensureAptIndex(); err != nil {
		return err
	}
	return p.run("env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "full-upgrade", "-y")
}

// ensureAptIndex refreshes the package index once per run; repeated apt steps
// reuse the first refresh.
func (p *Provisioner) ensureAptIndex() error {
	if p.aptUpdated {
		return nil
	}
	if err := p.run("apt-get", "update"); err != nil {
		return err
	}
	p.aptUpdated = true
	return nil
}

func (p *Provisioner) sourceBuild(step Step) error {
	dest := path.Join(p.buildRoot, cloneDirName(step.RepoURL))

	// Always build from a clean checkout; a half-built tree from an aborted
	// earlier run would poison incremental builds.
	if err := p.run("rm", "-rf", dest); err != nil {
		return err
	}
	if err := p.run("mkdir", "-p", p.buildRoot); err != nil {
		return err
	}
	if err := p.run("git", "clone", step.RepoURL, dest); err != nil {
		return err
	}
	if ref := strings.TrimSpace(step.Ref); ref != "" {
		if err := p.run("git", "-C", dest, "fetch", "origin", ref); err != nil {
			return err
		}
		if err := p.run("git", "-C", dest, "checkout", "FETCH_HEAD"); err != nil {
			return err
		}
	}

	for _, line := range step.BuildCommands {
		script := "cd " + tools.ShellEscape(dest) + " && " + line
		if err := p.run("sh", "-c", script); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) run(name string, args ...string) error {
	log.Info().Str("cmd", name).Str("args", strings.Join(args, " ")).Msg("provision exec")
	stdout, stderr, exitCode, err := p.runner.Run(name, args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"%w: cmd=%s args=%q exit=%d stdout=%q stderr=%q: %v",
		ErrStepFailed,
		name,
		strings.Join(args, " "),
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}
