// Package cli is the projectdesk admin command line: a terminal front end
// for the dashboard sync loop.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/vedran77/projectdesk/internal/logging"
	"go.uber.org/zap"
)

const defaultAPI = "http://localhost:3000"

// Command is one CLI verb with its own flag set.
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// App carries the global options shared by every command.
type App struct {
	out         io.Writer
	in          io.Reader
	apiURL      string
	sessionPath string
	verbose     bool
}

func NewRootCommand(in io.Reader, out io.Writer) (*Command, *App) {
	app := &App{in: in, out: out}

	root := &Command{
		Name:        "projectdesk-admin",
		Description: "projectdesk admin dashboard",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("projectdesk-admin", flag.ContinueOnError),
	}
	root.Flags.SetOutput(out)
	root.Flags.StringVar(&app.apiURL, "api", envOr("PROJECTDESK_API", defaultAPI), "API base URL")
	root.Flags.StringVar(&app.sessionPath, "session", envOr("PROJECTDESK_SESSION", defaultSessionPath()), "session file")
	root.Flags.BoolVar(&app.verbose, "v", false, "log diagnostics to stderr")

	for _, cmd := range []*Command{
		app.registerCommand(),
		app.useTokenCommand(),
		app.sectionCommand("overview", "show totals"),
		app.sectionCommand("users", "list users"),
		app.sectionCommand("projects", "list projects with assignees"),
		app.sectionCommand("settings", "show the admin profile"),
		app.userProjectsCommand(),
		app.assignCommand(),
		app.unassignCommand(),
		app.deleteCommand(),
		app.updateProfileCommand(),
		app.uploadImageCommand(),
		app.watchCommand(),
		app.logoutCommand(),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root, app
}

// Execute parses global flags and runs the named subcommand.
func (c *Command) Execute(ctx context.Context, args []string) error {
	if err := c.Flags.Parse(args); err != nil {
		return err
	}
	rest := c.Flags.Args()
	if len(rest) == 0 || rest[0] == "help" {
		return c.usage()
	}

	sub, ok := c.Subcommands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", rest[0])
	}
	return sub.Run(ctx, rest[1:])
}

func (c *Command) usage() error {
	out := c.Flags.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\nCommands:\n", c.Name)

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	fmt.Fprintln(out, "\nFlags:")
	c.Flags.PrintDefaults()
	return nil
}

func (a *App) logger() *zap.Logger {
	if !a.verbose {
		return zap.NewNop()
	}
	log, err := logging.New(false)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".projectdesk-session.json"
	}
	return filepath.Join(dir, "projectdesk", "session.json")
}
