// Package cmd implements the azwebapps Cobra command tree.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/azwebapps/azwebapps/internal/azcli"
	"github.com/azwebapps/azwebapps/internal/config"
	"github.com/azwebapps/azwebapps/internal/executor"
	"github.com/azwebapps/azwebapps/internal/logging"
	"github.com/azwebapps/azwebapps/internal/process"
	"github.com/azwebapps/azwebapps/internal/recorder"
	"github.com/azwebapps/azwebapps/internal/runner"
)

// Version, Commit, and Date are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// App carries the state shared by one execution of the command tree.
type App struct {
	Stdout  io.Writer
	Stderr  io.Writer // diagnostic stream
	Starter process.Starter

	// CommandLine is stored as cmdLine when recording.
	CommandLine []string

	// Cursor, when set, forces replay from it and overrides --record and
	// --replay. Used by session replay.
	Cursor *runner.Cursor

	cfg    *config.Config
	log    *logrus.Logger
	exec   *executor.Executor
	client *azcli.Client
}

// NewApp returns an App wired to the process streams.
func NewApp() *App {
	return &App{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Starter:     process.OSStarter{},
		CommandLine: os.Args,
	}
}

// Executor returns the executor created for the running command.
func (a *App) Executor() *executor.Executor { return a.exec }

// NewRootCmd builds a fresh command tree bound to app.
func NewRootCmd(app *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "azwebapps",
		Short: "Manage Azure web apps through the az CLI with record and replay",
		Long: `azwebapps - Azure web app orchestration over the az CLI

Every az invocation can be recorded to a session log and replayed later
without touching Azure. Replay requires the exact same sequence of commands.

Examples:
  # List web apps in a resource group
  azwebapps -g my-rg webapp list

  # Record the az calls of a run
  azwebapps -g my-rg --record session.json webapp list

  # Replay them offline
  azwebapps -g my-rg --replay session.json webapp list

  # Re-run a recorded session and check it replays cleanly
  azwebapps session replay session.json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			app.cfg = cfg
			app.log = logging.New(logging.WithOutput(app.Stderr), logging.WithLevel(logging.ParseLevel(cfg.LogLevel)))
			return app.openExecutor()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if app.exec == nil {
				return nil
			}
			return app.exec.Finish()
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("azwebapps version {{.Version}} (commit: %s, built: %s)\n", Commit, Date))
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	flags := root.PersistentFlags()
	flags.StringP(config.KeyGroup, "g", "", "Azure resource group")
	flags.String(config.KeyRecord, "", "record every az invocation to this session file")
	flags.String(config.KeyReplay, "", "replay az invocations from this session file")
	flags.String(config.KeyLogLevel, "info", "diagnostic log level (debug, info, warn, error)")
	flags.StringVar(&configFile, "config", "", "config file (default ./azwebapps.yaml)")

	root.AddCommand(
		newLocationsCmd(app),
		newACRCmd(app),
		newPlanCmd(app),
		newStorageCmd(app),
		newWebappCmd(app),
		newSessionCmd(app),
	)
	return root
}

// openExecutor creates the executor selected by the configuration.
func (a *App) openExecutor() error {
	opts := []executor.Option{
		executor.WithDiagnostics(a.Stderr),
		executor.WithLogger(a.log),
		executor.WithStarter(a.Starter),
	}

	switch {
	case a.Cursor != nil:
		a.exec = executor.NewReplay(a.Cursor, opts...)
	case a.cfg.Replay != "":
		cursor, err := runner.Load(a.cfg.Replay)
		if err != nil {
			return err
		}
		a.exec = executor.NewReplay(cursor, opts...)
	case a.cfg.Record != "":
		log, err := recorder.Create(a.cfg.Record, a.CommandLine)
		if err != nil {
			return err
		}
		a.exec = executor.NewLive(log, opts...)
	default:
		a.exec = executor.NewLive(nil, opts...)
	}

	a.client = azcli.New(a.exec, a.cfg.Group)
	return nil
}

var errNoGroup = errors.New("resource group is required: pass --group or set AZWEBAPPS_GROUP")

// grouped returns the client, failing when no resource group is configured.
func (a *App) grouped() (*azcli.Client, error) {
	if a.cfg.Group == "" {
		return nil, errNoGroup
	}
	return a.client, nil
}

// Run executes the command tree for args (without the program name).
func Run(app *App, args []string) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	return root.Execute()
}

// Execute runs the command tree for the current process.
func Execute() error {
	return Run(NewApp(), os.Args[1:])
}
