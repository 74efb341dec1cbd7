package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/voxflow/internal/config"
)

// version is set by goreleaser at build time.
var version = "dev"

// errSilent makes the process exit non-zero after a command already
// reported the failure itself.
var errSilent = errors.New("silent failure")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type rootFlags struct {
	ConfigPath  string
	SettingsDir string
	LogLevel    string
	LogFormat   string
}

// app carries the state shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags    rootFlags
	settings *config.Settings
	logger   *zap.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "voxflow",
		Short: "Post-process dictated text through configurable pipelines",
		Long: `voxflow routes dictated text to a mode by voice prefix and frontmost
application, then runs the mode's pipeline of local text operations and
LLM steps (Claude Code or Ollama).`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.logger.Sync() },
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.ConfigPath, "config", "", "path to the pipeline configuration file")
	pf.StringVar(&a.flags.SettingsDir, "settings-dir", ".", "directory containing voxflow.yml")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.LogFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		a.transformCmd(),
		a.batchCmd(),
		a.statusCmd(),
		a.initCmd(),
		a.schemaCmd(),
		a.toolsCmd(),
	)
	return root
}

// setup loads .env, settings and the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	settings, err := config.LoadSettings(a.flags.SettingsDir)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if a.flags.ConfigPath != "" {
		settings.ConfigPath = a.flags.ConfigPath
	}
	if a.flags.LogLevel != "" {
		settings.LogLevel = a.flags.LogLevel
	}
	if a.flags.LogFormat != "" {
		settings.LogFormat = a.flags.LogFormat
	}
	a.settings = settings

	logger, err := buildLogger(settings.LogLevel, settings.LogFormat, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}
