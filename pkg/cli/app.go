package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"fuel-client/pkg/apiclient"
	"fuel-client/pkg/config"
	"fuel-client/pkg/serializer"
	"fuel-client/pkg/table"
)

const (
	formatTable = "table"
)

// App is the fuel command line client.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  *os.File

	// global flags
	envFile string
	debug   bool
	format  string
	server  string

	ctx      context.Context
	commands []*Command
}

// New builds the client writing to the given streams.
func New(stdout, stderr io.Writer) *App {
	a := &App{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	a.commands = []*Command{
		a.envCommand(),
		a.tasksCommand(),
		a.graphCommand(),
		a.nodeCommand(),
		a.historyCommand(),
		a.tokenCommand(),
		a.versionCommand(),
	}
	return a
}

// Run dispatches args (without the program name) to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	a.ctx = ctx
	if len(args) == 0 {
		printCommands(a.Stderr, a.commands)
		return usagef("command required")
	}
	if isHelpFlag(args[0]) {
		printCommands(a.Stdout, a.commands)
		return nil
	}
	for _, c := range a.commands {
		if c.Name != args[0] {
			continue
		}
		fs := a.flagSet(c)
		if err := fs.Parse(args[1:]); err != nil {
			if err == pflag.ErrHelp {
				printCommandHelp(a.Stdout, c, fs)
				return nil
			}
			return usagef("%s: %v", c.Name, err)
		}
		if err := a.validateGlobals(); err != nil {
			return err
		}
		return c.Run(fs.Args())
	}
	if s := suggest(args[0], a.commands); s != "" {
		return usagef("unknown command %q (did you mean %q?)", args[0], s)
	}
	return usagef("unknown command %q", args[0])
}

func (a *App) flagSet(c *Command) *pflag.FlagSet {
	fs := pflag.NewFlagSet("fuel "+c.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.envFile, "env-file", ".env", "dotenv file with client settings")
	fs.BoolVar(&a.debug, "debug", false, "log HTTP requests to stderr")
	fs.StringVarP(&a.format, "format", "f", formatTable, "output format: table, yaml or json")
	fs.StringVar(&a.server, "server", "", "control plane address (host:port or URL), overrides SERVER_ADDRESS/SERVER_PORT")
	if c.Flags != nil {
		c.Flags(fs)
	}
	return fs
}

func (a *App) validateGlobals() error {
	switch a.format {
	case formatTable, serializer.FormatYAML, serializer.FormatJSON:
		return nil
	}
	return usagef("unsupported format %q (expected table, yaml or json)", a.format)
}

// client builds the API client from settings and the global flags.
func (a *App) client() (*apiclient.Client, error) {
	settings, err := config.Load(a.envFile)
	if err != nil {
		return nil, err
	}
	if err := settings.SetServer(a.server); err != nil {
		return nil, usagef("--server: %v", err)
	}
	var logger *log.Logger
	if a.debug {
		logger = log.New(a.Stderr, "DEBUG ", log.LstdFlags)
	}
	return apiclient.New(apiclient.Options{
		ServerURL: settings.ServerURL(),
		Username:  settings.Username,
		Password:  settings.Password,
		Tenant:    settings.Tenant,
		Token:     settings.Token,
		CAFile:    settings.CAFile,
		Insecure:  settings.Insecure,
		Timeout:   settings.Timeout,
		Logger:    logger,
	})
}

// render writes records as a table restricted to columns, or serializes data
// in the requested format.
func (a *App) render(records []map[string]any, columns []string, data any) error {
	if a.format == formatTable {
		_, err := io.WriteString(a.Stdout, table.Render(records, columns))
		return err
	}
	out, err := serializer.New(a.format).Serialize(data)
	if err != nil {
		return err
	}
	_, err = a.Stdout.Write(out)
	return err
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Stdout, format, args...)
}

func requireEnv(id int) error {
	if id <= 0 {
		return usagef("--env is required")
	}
	return nil
}
