package notebook

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mlrig/gpuprep/internal/readiness"
	"github.com/mlrig/gpuprep/internal/testutil/fakerunner"
)

func fastPolicy(maxAttempts int) readiness.Policy {
	return readiness.Policy{MaxAttempts: maxAttempts, Interval: time.Second, Sleep: func(time.Duration) {}}
}

func isJupyterList(name string, args []string) bool {
	return name == "jupyter" && len(args) == 2 && args[0] == "notebook" && args[1] == "list"
}

func TestUpFindsTokenAndBuildsURL(t *testing.T) {
	runner := &fakerunner.Runner{
		Stub: func(name string, args []string) (fakerunner.Result, bool) {
			if name == "tmux" && args[0] == "has-session" {
				return fakerunner.Result{Exit: 1, Err: errors.New("exit status 1")}, true
			}
			if isJupyterList(name, args) {
				return fakerunner.Result{
					Stdout: []byte("http://localhost:5000/?token=abc123 :: /srv/notebooks\n"),
				}, true
			}
			return fakerunner.Result{}, false
		},
	}

	l := NewLauncher(Config{Port: 5000, SessionName: "jupyter"}, runner).
		WithPolicy(fastPolicy(5)).
		WithOutput(&bytes.Buffer{})

	res, err := l.Up()
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if !res.Found {
		t.Fatalf("expected server found")
	}
	if res.Endpoint.Token != "abc123" {
		t.Fatalf("token = %q", res.Endpoint.Token)
	}
	url, ok := res.Endpoint.BrowserURL()
	if !ok || url != "http://localhost:5000/?token=abc123" {
		t.Fatalf("url = %q ok=%v", url, ok)
	}

	launched := false
	for _, cmd := range runner.Commands {
		if cmd[0] == "tmux" && cmd[1] == "new-session" {
			launched = true
			if got := cmd[len(cmd)-1]; !strings.Contains(got, "jupyter notebook --config=") {
				t.Fatalf("launch command = %q", got)
			}
		}
	}
	if !launched {
		t.Fatalf("session was never created: %v", runner.Lines())
	}
}

func TestUpTimeoutPrintsDiagnostics(t *testing.T) {
	runner := &fakerunner.Runner{
		Stub: func(name string, args []string) (fakerunner.Result, bool) {
			if name == "tmux" && args[0] == "has-session" {
				return fakerunner.Result{Exit: 1, Err: errors.New("exit status 1")}, true
			}
			if isJupyterList(name, args) {
				return fakerunner.Result{}, true
			}
			if name == "tmux" && args[0] == "ls" {
				return fakerunner.Result{Stdout: []byte("jupyter: 1 windows\n")}, true
			}
			if name == "tmux" && args[0] == "capture-pane" {
				return fakerunner.Result{Stdout: []byte("Traceback (most recent call last)\n")}, true
			}
			return fakerunner.Result{}, false
		},
	}

	var out bytes.Buffer
	l := NewLauncher(Config{Port: 5000, SessionName: "jupyter"}, runner).
		WithPolicy(fastPolicy(3)).
		WithOutput(&out)

	res, err := l.Up()
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if res.Found {
		t.Fatalf("expected not found")
	}
	if res.Endpoint.Token != "" || res.Endpoint.StatusLine != "" {
		t.Fatalf("exhausted endpoint must be empty, got %+v", res.Endpoint)
	}

	text := out.String()
	for _, want := range []string{
		"did not become ready on port 5000",
		"jupyter: 1 windows",
		"Traceback",
		"tmux attach -t jupyter",
		"jupyter notebook list",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("diagnostics missing %q in:\n%s", want, text)
		}
	}
	if !runner.Ran("tmux", "ls") || !runner.Ran("tmux", "capture-pane") {
		t.Fatalf("diagnostics must query sessions and capture output: %v", runner.Lines())
	}
}

func TestUpMatchWithoutTokenOmitsURL(t *testing.T) {
	runner := &fakerunner.Runner{
		Stub: func(name string, args []string) (fakerunner.Result, bool) {
			if name == "tmux" && args[0] == "has-session" {
				return fakerunner.Result{Exit: 1, Err: errors.New("exit status 1")}, true
			}
			if isJupyterList(name, args) {
				return fakerunner.Result{Stdout: []byte("http://localhost:5000/ :: /srv\n")}, true
			}
			return fakerunner.Result{}, false
		},
	}

	l := NewLauncher(Config{Port: 5000}, runner).
		WithPolicy(fastPolicy(5)).
		WithOutput(&bytes.Buffer{})

	res, err := l.Up()
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if !res.Found || res.Endpoint.Token != "" {
		t.Fatalf("expected tokenless match, got %+v", res)
	}
	if _, ok := res.Endpoint.BrowserURL(); ok {
		t.Fatalf("url must be omitted without a token")
	}
}

func TestUpConfigWriteFailureIsFatal(t *testing.T) {
	runner := &fakerunner.Runner{
		Stub: func(name string, args []string) (fakerunner.Result, bool) {
			if name == "sh" {
				return fakerunner.Result{
					Stderr: []byte("read-only file system"),
					Exit:   1,
					Err:    fmt.Errorf("exit status 1"),
				}, true
			}
			return fakerunner.Result{}, false
		},
	}

	l := NewLauncher(Config{}, runner).WithOutput(&bytes.Buffer{})
	if _, err := l.Up(); !errors.Is(err, ErrConfigWriteFailed) {
		t.Fatalf("expected ErrConfigWriteFailed, got %v", err)
	}
	if runner.Ran("tmux", "new-session") {
		t.Fatalf("server must not launch after config write failure")
	}
}

func TestServerConfigCarriesPort(t *testing.T) {
	cfg := ServerConfig(8888)
	if !strings.Contains(cfg, "c.NotebookApp.port = 8888") {
		t.Fatalf("config missing port:\n%s", cfg)
	}
	if !strings.Contains(cfg, "open_browser = False") {
		t.Fatalf("config must disable the browser:\n%s", cfg)
	}
}
