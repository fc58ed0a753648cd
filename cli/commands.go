// Package cli implements the pointable command line tool: installing the
// pointer abstraction into a database, tearing it down, and inspecting its
// state.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pointable/pointable/logging"
	"github.com/pointable/pointable/migrate"
	"github.com/pointable/pointable/pointers"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitConfig  = 2
)

// CLI holds the command-line interface state.
type CLI struct {
	args    []string
	version string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// NewCLI creates a new CLI instance.
func NewCLI(args []string, version string) *CLI {
	return &CLI{
		args:    args,
		version: version,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logging.Default,
	}
}

// WithOutput sets custom output writers (useful for testing).
func (c *CLI) WithOutput(stdout, stderr io.Writer) *CLI {
	c.stdout = stdout
	c.stderr = stderr
	return c
}

// WithLogger sets a custom logger.
func (c *CLI) WithLogger(logger *slog.Logger) *CLI {
	c.logger = logger
	return c
}

// Run is the main entry point for the CLI.
func Run(args []string, version string) int {
	cli := NewCLI(args, version)
	return cli.Execute()
}

// Execute parses arguments and runs the appropriate command.
func (c *CLI) Execute() int {
	args := c.args
	if len(args) > 0 && (args[0] == "-v" || args[0] == "--verbose") {
		c.logger = logging.New(c.stderr, true)
		args = args[1:]
	}

	if len(args) == 0 {
		c.printHelp()
		return ExitSuccess
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "help", "--help", "-h":
		c.printHelp()
		return ExitSuccess

	case "version", "--version":
		fmt.Fprintf(c.stdout, "pointable %s\n", c.version)
		return ExitSuccess

	case "init":
		return c.runInit(cmdArgs)

	case "deinit":
		return c.runDeinit(cmdArgs)

	case "status":
		return c.runStatus(cmdArgs)

	default:
		fmt.Fprintf(c.stderr, "Error: unknown command %q\n\n", cmd)
		c.printHelp()
		return ExitError
	}
}

// runInit installs the pointer abstraction: the registry and pointer
// tables, the trigger machinery, and the registry's own registration.
func (c *CLI) runInit(args []string) int {
	config, err := LoadConfig("")
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: failed to load config: %v\n", err)
		return ExitConfig
	}

	db, dialect, err := OpenDatabase(config.Database.URL)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}
	defer db.Close()

	ctx := context.Background()
	plan := migrate.NewPlan(config.Pointers)
	if _, err := plan.InitPointers(migrate.Up); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}

	c.logger.Debug("applying plan", "dialect", dialect, "migrations", len(plan.Migrations))
	if err := migrate.Run(ctx, db, plan, dialect); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}

	conf := plan.Config()
	fmt.Fprintf(c.stdout, "Installed pointer abstraction (%s, %s)\n",
		conf.PointerTable, conf.RegistryTable)
	return ExitSuccess
}

// runDeinit removes the pointer abstraction and everything it tracked.
func (c *CLI) runDeinit(args []string) int {
	config, err := LoadConfig("")
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: failed to load config: %v\n", err)
		return ExitConfig
	}

	db, dialect, err := OpenDatabase(config.Database.URL)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}
	defer db.Close()

	ctx := context.Background()
	plan := migrate.NewPlan(config.Pointers)
	if _, err := plan.InitPointers(migrate.Down); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}

	if err := migrate.Run(ctx, db, plan, dialect); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}

	fmt.Fprintln(c.stdout, "Removed pointer abstraction")
	return ExitSuccess
}

// runStatus prints applied migrations and registered tables.
func (c *CLI) runStatus(args []string) int {
	config, err := LoadConfig("")
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: failed to load config: %v\n", err)
		return ExitConfig
	}

	db, dialect, err := OpenDatabase(config.Database.URL)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrate.EnsureTrackingTable(ctx, db, dialect); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}
	applied, err := migrate.GetAppliedMigrations(ctx, db)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}

	if len(applied) == 0 {
		fmt.Fprintln(c.stdout, "No migrations applied")
	} else {
		fmt.Fprintf(c.stdout, "Applied migrations (%d):\n", len(applied))
		for _, name := range applied {
			fmt.Fprintf(c.stdout, "  %s\n", name)
		}
	}

	registry := pointers.NewRegistry(db, dialect, config.Pointers)
	installed, err := registry.Installed(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}
	if !installed {
		fmt.Fprintln(c.stdout, "Pointer abstraction not installed")
		return ExitSuccess
	}
	records, err := registry.Tables(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return ExitError
	}
	fmt.Fprintf(c.stdout, "Registered tables (%d):\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(c.stdout, "  %s  %s\n", rec.ID, rec.Table)
	}
	return ExitSuccess
}

func (c *CLI) printHelp() {
	fmt.Fprint(c.stdout, `pointable - global pointer abstraction for relational databases

Usage:
  pointable [-v] <command>

Commands:
  init      Install the pointer and registry tables and their triggers
  deinit    Remove the pointer abstraction from the database
  status    Show applied migrations and registered tables
  version   Show the version
  help      Show this help message

Configuration is read from pointable.ini in the working directory; the
database URL falls back to the DATABASE_URL environment variable.
`)
}
