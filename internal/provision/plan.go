package provision

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrPlanInvalid     = errors.New("provision: invalid plan")
	ErrUnsupportedKind = errors.New("provision: unsupported step kind")
	ErrUnsupportedRepo = errors.New("provision: unsupported repository")
	ErrStepFailed      = errors.New("provision: step failed")
)

type StepKind string

const (
	StepAptInstall  StepKind = "apt_install"
	StepPipUpgrade  StepKind = "pip_upgrade"
	StepSourceBuild StepKind = "source_build"
	StepAptUpgrade  StepKind = "apt_upgrade"
)

// Step is one provisioning action. Which fields apply depends on Kind.
type Step struct {
	Name          string
	Kind          StepKind
	Packages      []string // apt_install, pip_upgrade
	RepoURL       string   // source_build
	Ref           string   // source_build, optional
	BuildCommands []string // source_build, shell lines run in the clone dir
}

// Plan is the ordered list of steps applied to the target host.
type Plan struct {
	Steps []Step
}

// DefaultPlan mirrors the stock GPU node bring-up: CUDA toolkit and driver,
// numerical Python stack, two source builds, then a full OS upgrade.
func DefaultPlan() Plan {
	return Plan{Steps: []Step{
		{
			Name:     "cuda-stack",
			Kind:     StepAptInstall,
			Packages: []string{"cuda-toolkit-12-4", "nvidia-driver-550", "nvidia-cuda-toolkit-gcc"},
		},
		{
			Name:     "python-numerics",
			Kind:     StepPipUpgrade,
			Packages: []string{"numpy", "scipy", "pandas", "numba"},
		},
		{
			Name:    "openblas",
			Kind:    StepSourceBuild,
			RepoURL: "https://github.com/OpenMathLib/OpenBLAS",
			BuildCommands: []string{
				"make -j$(nproc)",
				"make install PREFIX=/usr/local",
			},
		},
		{
			Name:    "fftw",
			Kind:    StepSourceBuild,
			RepoURL: "https://github.com/FFTW/fftw3",
			BuildCommands: []string{
				"cmake -S . -B build -DENABLE_OPENMP=ON",
				"cmake --build build -j$(nproc)",
				"cmake --install build",
			},
		},
		{
			Name: "os-upgrade",
			Kind: StepAptUpgrade,
		},
	}}
}

// Validate rejects a plan before any step has touched the host. A plan that
// fails halfway leaves the machine partially provisioned, so everything
// checkable up front is checked up front.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrPlanInvalid)
	}
	for i, step := range p.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step[%d]: %w", i, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrPlanInvalid)
	}

	switch StepKind(strings.ToLower(strings.TrimSpace(string(s.Kind)))) {
	case StepAptInstall, StepPipUpgrade:
		if len(s.Packages) == 0 {
			return fmt.Errorf("%w: step %q needs packages", ErrPlanInvalid, s.Name)
		}
	case StepSourceBuild:
		if err := validateGitHubRepo(s.RepoURL); err != nil {
			return err
		}
		if len(s.BuildCommands) == 0 {
			return fmt.Errorf("%w: step %q needs build_commands", ErrPlanInvalid, s.Name)
		}
	case StepAptUpgrade:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, s.Kind)
	}
	return nil
}

func validateGitHubRepo(repo string) error {
	u, err := url.Parse(strings.TrimSpace(repo))
	if err != nil {
		return fmt.Errorf("%w: repo=%q parse error: %v", ErrUnsupportedRepo, repo, err)
	}
	if u.Scheme != "https" || !strings.EqualFold(u.Host, "github.com") {
		return fmt.Errorf("%w: repo=%q must be https://github.com/*", ErrUnsupportedRepo, repo)
	}
	if strings.TrimSpace(u.Path) == "" || u.Path == "/" {
		return fmt.Errorf("%w: repo=%q missing repository path", ErrUnsupportedRepo, repo)
	}
	return nil
}

// cloneDirName maps a repo URL to its checkout directory under the build root.
func cloneDirName(repo string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(repo), "/"), ".git")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}
