package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mlrig/gpuprep/internal/tools"
)

var (
	ErrNameRequired    = errors.New("session: name is required")
	ErrCommandRequired = errors.New("session: command is required")
)

// Manager drives a tmux server through the command runner. Sessions it creates
// are detached and outlive the calling process.
type Manager struct {
	runner tools.CommandRunner
}

func NewManager(runner tools.CommandRunner) *Manager {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Manager{runner: runner}
}

// Session is a handle to one named tmux session. Callers hold the handle
// instead of re-deriving the name, which keeps the owner of a session explicit.
type Session struct {
	name    string
	manager *Manager
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) Capture(lines int) (string, error) {
	return s.manager.Capture(s.name, lines)
}

// AcquireOrRecreate returns a fresh session running command. A session already
// holding the name is killed first; tmux session names are a single global
// namespace per server, so a collision means a stale instance from an earlier
// run. The replacement is destructive and logged.
func (m *Manager) AcquireOrRecreate(name, dir, command string) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(command) == "" {
		return nil, ErrCommandRequired
	}

	if m.Exists(name) {
		log.Warn().Str("session", name).Msg("replacing existing session")
		if err := m.Kill(name); err != nil {
			return nil, err
		}
	}

	args := []string{"new-session", "-d", "-s", name}
	if strings.TrimSpace(dir) != "" {
		args = append(args, "-c", dir)
	}
	args = append(args, command)
	if err := m.run(args...); err != nil {
		return nil, err
	}

	log.Info().Str("session", name).Str("command", command).Msg("session started")
	return &Session{name: name, manager: m}, nil
}

// Exists reports whether a session with the name is currently registered.
func (m *Manager) Exists(name string) bool {
	_, _, exit, err := m.runner.Run("tmux", "has-session", "-t", name)
	return err == nil && exit == 0
}

// Kill tears down the named session and whatever runs inside it.
func (m *Manager) Kill(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	return m.run("kill-session", "-t", name)
}

// List returns the raw session listing, one session per line.
func (m *Manager) List() (string, error) {
	stdout, _, _, err := m.runner.Run("tmux", "ls")
	if err != nil {
		// tmux ls exits nonzero when no server is running; that is an
		// empty listing, not a failure.
		return "", nil
	}
	return string(stdout), nil
}

// Capture returns the last lines of the session's active pane.
func (m *Manager) Capture(name string, lines int) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrNameRequired
	}
	if lines <= 0 {
		lines = 50
	}
	stdout, stderr, exit, err := m.runner.Run(
		"tmux", "capture-pane", "-p", "-t", name, "-S", "-"+strconv.Itoa(lines),
	)
	if err != nil {
		return "", fmt.Errorf(
			"session capture failed session=%s exit=%d stderr=%q: %w",
			name, exit, strings.TrimSpace(string(stderr)), err,
		)
	}
	return string(stdout), nil
}

func (m *Manager) run(args ...string) error {
	stdout, stderr, exit, err := m.runner.Run("tmux", args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"session command failed args=%q exit=%d stdout=%q stderr=%q: %w",
		strings.Join(args, " "),
		exit,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}
