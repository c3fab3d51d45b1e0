package notebook

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mlrig/gpuprep/internal/readiness"
	"github.com/mlrig/gpuprep/internal/session"
	"github.com/mlrig/gpuprep/internal/tools"
)

const diagnosticLines = 50

var ErrConfigWriteFailed = errors.New("notebook: server config write failed")

// Launcher brings the notebook server up and reports how to reach it.
type Launcher struct {
	cfg      Config
	runner   tools.CommandRunner
	sessions *session.Manager
	policy   readiness.Policy
	out      io.Writer
}

// Result is the outcome of a launch. Found=false means the server never
// showed up in the listing before the poll bound; the launch itself still
// succeeded and diagnostics were printed.
type Result struct {
	Endpoint readiness.Endpoint
	Found    bool
}

func NewLauncher(cfg Config, runner tools.CommandRunner) *Launcher {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Launcher{
		cfg:      cfg.withDefaults(),
		runner:   runner,
		sessions: session.NewManager(runner),
		policy:   readiness.DefaultPolicy(),
		out:      os.Stdout,
	}
}

// WithPolicy overrides the readiness retry schedule. Tests use it to avoid
// the 90x1s default.
func (l *Launcher) WithPolicy(policy readiness.Policy) *Launcher {
	l.policy = policy
	return l
}

// WithOutput redirects human-readable diagnostics.
func (l *Launcher) WithOutput(out io.Writer) *Launcher {
	l.out = out
	return l
}

// Up writes the server config, starts the server in a persistent session, and
// polls for readiness. Configuration or session failures are returned as
// errors; a server that never appears in the listing is reported through
// Result.Found, not as an error.
func (l *Launcher) Up() (Result, error) {
	if err := l.writeServerConfig(); err != nil {
		return Result{}, err
	}

	launchCmd := fmt.Sprintf("jupyter notebook --config=%s", l.cfg.ConfigPath)
	sess, err := l.sessions.AcquireOrRecreate(l.cfg.SessionName, l.cfg.NotebookDir, launchCmd)
	if err != nil {
		return Result{}, err
	}

	poller := readiness.Poller{
		Port:        l.cfg.Port,
		SessionName: sess.Name(),
		Policy:      l.policy,
	}
	endpoint, found := poller.Wait(l.listServers)
	if !found {
		log.Warn().
			Int("port", l.cfg.Port).
			Int("max_attempts", l.policy.MaxAttempts).
			Msg("server never appeared in listing")
		l.printDiagnostics(sess)
		return Result{Endpoint: endpoint, Found: false}, nil
	}

	log.Info().
		Int("port", endpoint.Port).
		Str("status_line", endpoint.StatusLine).
		Bool("token_present", endpoint.Token != "").
		Msg("server is up")
	return Result{Endpoint: endpoint, Found: true}, nil
}

// writeServerConfig materializes the config on the target host through the
// runner, so remote provisioning writes remotely.
func (l *Launcher) writeServerConfig() error {
	content := ServerConfig(l.cfg.Port)
	dir := path.Dir(l.cfg.ConfigPath)
	script := fmt.Sprintf("mkdir -p %s && cat > %s <<'GPUPREP_EOF'\n%sGPUPREP_EOF",
		dir, l.cfg.ConfigPath, content)

	stdout, stderr, exit, err := l.runner.Run("sh", "-c", script)
	if err != nil {
		return fmt.Errorf(
			"%w: path=%s exit=%d stdout=%q stderr=%q: %v",
			ErrConfigWriteFailed,
			l.cfg.ConfigPath,
			exit,
			strings.TrimSpace(string(stdout)),
			strings.TrimSpace(string(stderr)),
			err,
		)
	}
	log.Info().Str("path", l.cfg.ConfigPath).Int("port", l.cfg.Port).Msg("server config written")
	return nil
}

func (l *Launcher) listServers() (string, error) {
	stdout, stderr, _, err := l.runner.Run("jupyter", "notebook", "list")
	if err != nil {
		return "", fmt.Errorf("notebook list: %s: %w", strings.TrimSpace(string(stderr)), err)
	}
	return string(stdout), nil
}

// printDiagnostics gives the operator enough to debug a server that did not
// come up: what sessions exist, what the server printed, and the commands to
// poke at it by hand.
func (l *Launcher) printDiagnostics(sess *session.Session) {
	fmt.Fprintf(l.out, "[!] server did not become ready on port %d\n", l.cfg.Port)

	listing, err := l.sessions.List()
	if err == nil && strings.TrimSpace(listing) != "" {
		fmt.Fprintf(l.out, "[!] active sessions:\n%s", listing)
	} else {
		fmt.Fprintf(l.out, "[!] no active sessions\n")
	}

	recent, err := sess.Capture(diagnosticLines)
	if err != nil {
		log.Warn().Err(err).Msg("pane capture failed")
	} else if strings.TrimSpace(recent) != "" {
		fmt.Fprintf(l.out, "[!] recent server output:\n%s", recent)
	}

	fmt.Fprintf(l.out, "[!] inspect manually:\n")
	fmt.Fprintf(l.out, "    tmux attach -t %s\n", sess.Name())
	fmt.Fprintf(l.out, "    jupyter notebook list\n")
}
