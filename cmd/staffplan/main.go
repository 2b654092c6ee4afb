/*
main.go - Application entry point

PURPOSE:
  The staffplan CLI. Runs the HTTP service and offers the same operations
  from the shell: importing a staff-plan export, seeding the grade table and
  searching positions.

COMMANDS:
  serve          Start the HTTP API
  import         Replace an org unit's positions with a CSV/XLSX export
  grades seed    Apply a YAML grade table (embedded default if no file)
  grades list    Print the grade table
  find           Rank positions for an employee profile

CONFIGURATION:
  Settings come from STAFFPLAN_* environment variables and .env files (see
  config/config.go). Global flags override them:
    --db          SQLite database path (":memory:" for a throwaway store)
    --log-level   Log level
    --log-format  text|json

SIGNALS:
  SIGINT/SIGTERM cancel the command context. serve shuts down gracefully
  within STAFFPLAN_SHUTDOWN_TIMEOUT.

SEE ALSO:
  - serve.go, import.go, grades.go, find.go: Subcommands
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/staffplan/config"
	"github.com/warp/staffplan/store/sqlite"
)

// app carries what PersistentPreRunE builds for the subcommands.
type app struct {
	cfg *config.Config
	log *logrus.Logger

	envFiles  []string
	dbPath    string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "staffplan",
		Short: "Staff-plan position finder",
		Long: `staffplan matches employees to budgeted positions.

It ranks positions by budget efficiency, the number of people already on
the position and time overlap, and suggests splits across several positions
when no single one has enough free capacity.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	flags := root.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env, .env.local)")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database path (overrides STAFFPLAN_DB_PATH)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (overrides STAFFPLAN_LOG_LEVEL)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format text|json (overrides STAFFPLAN_LOG_FORMAT)")

	root.AddCommand(
		a.serveCmd(),
		a.importCmd(),
		a.gradesCmd(),
		a.findCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("db") {
		cfg.DBPath = a.dbPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.cfg.DBPath, err)
	}
	return store, nil
}
