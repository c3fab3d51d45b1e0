package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mlrig/gpuprep/internal/config"
	"github.com/mlrig/gpuprep/internal/notebook"
	"github.com/mlrig/gpuprep/internal/observability"
	"github.com/mlrig/gpuprep/internal/provision"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gpuprepctl", flag.ExitOnError)
	configPath := fs.String("config", "", "path to gpuprep.toml (defaults apply when omitted)")
	initConfig := fs.Bool("init-config", false, "write a starter config to the -config path and exit")
	port := fs.Int("port", 0, "override the notebook port")
	sessionName := fs.String("session", "", "override the tmux session name")
	statusAddr := fs.String("status-addr", "", "serve /health and /metrics on this address during the run")
	skipProvision := fs.Bool("skip-provision", false, "skip package installs and go straight to the notebook launch")
	fs.Parse(args)

	if *initConfig {
		path := *configPath
		if path == "" {
			path = "gpuprep.toml"
		}
		if err := config.WriteTemplate(path, false); err != nil {
			fmt.Fprintf(os.Stderr, "gpuprepctl: %v\n", err)
			return 1
		}
		fmt.Printf("%s wrote %s\n", okMark(), path)
		return 0
	}

	runID := uuid.NewString()
	logger := observability.InitLogger("gpuprepctl", runID)

	cfg, err := resolveConfig(*configPath, *port, *sessionName, *statusAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpuprepctl: %v\n", err)
		return 1
	}

	if cfg.StatusAddr != "" {
		serveStatusAPI(cfg.StatusAddr, logger, runID)
	}

	runner := cfg.CommandRunner()

	if !*skipProvision {
		provisioner := provision.NewProvisioner(provision.Config{
			Runner:    runner,
			BuildRoot: cfg.BuildRoot,
		})
		if err := provisioner.Apply(cfg.Plan()); err != nil {
			logger.Error().Err(err).Msg("provisioning aborted")
			fmt.Printf("%s provisioning failed: %v\n", failMark(), err)
			return 1
		}
		fmt.Printf("%s provisioning complete\n", okMark())
	}

	launcher := notebook.NewLauncher(cfg.NotebookConfig(), runner)
	result, err := launcher.Up()
	if err != nil {
		logger.Error().Err(err).Msg("notebook launch failed")
		fmt.Printf("%s notebook launch failed: %v\n", failMark(), err)
		return 1
	}

	printSummary(cfg, result)
	// A server that never reported ready is a diagnostics case, not a failed
	// run; everything before the poll succeeded.
	return 0
}

func printSummary(cfg config.ToolConfig, result notebook.Result) {
	fmt.Printf("%s session %q is running detached; it survives this process\n", okMark(), cfg.SessionName)
	if !result.Found {
		fmt.Printf("%s server not confirmed ready on port %d; see diagnostics above\n", failMark(), cfg.Port)
		return
	}

	fmt.Printf("%s server status: %s\n", okMark(), result.Endpoint.StatusLine)
	if url, ok := result.Endpoint.BrowserURL(); ok {
		fmt.Printf("%s open in browser: %s\n", okMark(), url)
	} else {
		fmt.Printf("%s server reported no token; connect to http://localhost:%d/ directly\n", okMark(), cfg.Port)
	}
}
