package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/objhost-go/internal/cli/config"
	"github.com/yndnr/objhost-go/internal/cli/connection"
	"github.com/yndnr/objhost-go/internal/cli/output"
	"github.com/yndnr/objhost-go/internal/infra/buildinfo"
	"github.com/yndnr/objhost-go/internal/infra/tlsroots"
)

const (
	// DefaultServer is the default HTTP API address.
	DefaultServer = "127.0.0.1:5180"

	metaConnMgr = "connMgr"
	metaFlags   = "flags"

	requestTimeout = 30 * time.Second
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "objhost-cli",
		Usage:   "objhost command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SystemCommand(),
			ObjectCommand(),
			ClassCommand(),
			ProfileCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			flags, err := resolveFlags(c)
			if err != nil {
				return err
			}
			if _, err := output.ParseFormat(flags.Output); err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			opts := connection.Options{
				Server: flags.Server,
				Socket: flags.Socket,
				Token:  flags.Token,
			}
			if flags.CAFile != "" {
				if opts.TLS, err = tlsroots.ClientConfig(flags.CAFile); err != nil {
					return err
				}
			}
			c.App.Metadata[metaFlags] = flags
			c.App.Metadata[metaConnMgr] = connection.NewManager(opts)
			return nil
		},
		After: func(c *cli.Context) error {
			if mgr := GetConnectionManager(c); mgr != nil {
				return mgr.Close()
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "objhost server address (e.g., 127.0.0.1:5180)",
			EnvVars: []string{"OBJHOST_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "socket",
			Usage:   "Local management socket; system commands use it instead of the admin API",
			EnvVars: []string{"OBJHOST_SOCKET"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Admin bearer token",
			EnvVars: []string{"OBJHOST_ADMIN_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM file with CAs to trust for HTTPS (implies https)",
			EnvVars: []string{"OBJHOST_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Connection profile from the CLI config file",
			EnvVars: []string{"OBJHOST_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"OBJHOST_CLI_CONFIG"},
			Value:   cliconfig.DefaultConfigPath(),
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Socket  string
	Token   string
	CAFile  string
	Output  string
	Profile string
	Config  string
}

// ParseGlobalFlags returns the effective global flags: those resolved by
// App's Before hook, or the raw flag values when it did not run.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	if flags, ok := c.App.Metadata[metaFlags].(*GlobalFlags); ok {
		return flags
	}
	return &GlobalFlags{
		Server:  c.String("server"),
		Socket:  c.String("socket"),
		Token:   c.String("token"),
		CAFile:  c.String("ca-file"),
		Output:  c.String("output"),
		Profile: c.String("profile"),
		Config:  c.String("config"),
	}
}

// resolveFlags fills flags that were not set explicitly from the
// selected profile of the CLI config file.
func resolveFlags(c *cli.Context) (*GlobalFlags, error) {
	flags := &GlobalFlags{
		Server:  c.String("server"),
		Socket:  c.String("socket"),
		Token:   c.String("token"),
		CAFile:  c.String("ca-file"),
		Output:  c.String("output"),
		Profile: c.String("profile"),
		Config:  c.String("config"),
	}

	cfg, err := cliconfig.Load(flags.Config)
	if err != nil {
		return nil, err
	}
	profile, err := cfg.Resolve(flags.Profile)
	if err != nil {
		return nil, err
	}

	fill := func(name string, dst *string, val string) {
		if !c.IsSet(name) && val != "" {
			*dst = val
		}
	}
	fill("server", &flags.Server, profile.Server)
	fill("socket", &flags.Socket, profile.Socket)
	fill("token", &flags.Token, profile.Token)
	fill("ca-file", &flags.CAFile, profile.CAFile)
	fill("output", &flags.Output, profile.Output)
	return flags, nil
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata[metaConnMgr].(*connection.Manager); ok {
		return mgr
	}
	return nil
}

// EnsureConnected returns the connection manager or an error when the app
// was not initialized through App.
func EnsureConnected(c *cli.Context) (*connection.Manager, error) {
	mgr := GetConnectionManager(c)
	if mgr == nil {
		return nil, fmt.Errorf("not connected")
	}
	return mgr, nil
}

// requestContext bounds one CLI request.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, requestTimeout)
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// isTable reports whether the table format is selected.
func isTable(c *cli.Context) bool {
	format, _ := output.ParseFormat(ParseGlobalFlags(c).Output)
	return format == output.FormatTable
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "error: "+format+"\n", args...)
}
