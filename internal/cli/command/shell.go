package command

import (
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/objhost-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty disables history)",
				Value: repl.DefaultHistoryPath(),
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	// Each line runs a fresh App with the session's resolved flags.
	base := []string{c.App.Name, "--config", flags.Config, "--server", flags.Server, "--output", flags.Output}
	if flags.Socket != "" {
		base = append(base, "--socket", flags.Socket)
	}
	if flags.Token != "" {
		base = append(base, "--token", flags.Token)
	}
	if flags.CAFile != "" {
		base = append(base, "--ca-file", flags.CAFile)
	}

	r := repl.New(repl.Config{
		In:          c.App.Reader,
		Out:         c.App.Writer,
		Commands:    commandPaths(c.App.Commands, ""),
		HistoryFile: c.String("history"),
		Exec: func(args []string) error {
			if len(args) > 0 && args[0] == "shell" {
				return errors.New("already in an interactive session")
			}
			app := App()
			app.Writer = c.App.Writer
			app.ErrWriter = c.App.ErrWriter
			app.ExitErrHandler = func(*cli.Context, error) {}
			return app.RunContext(c.Context, append(append([]string(nil), base...), args...))
		},
	})
	return r.Run()
}

// commandPaths lists every command and subcommand as a space-joined path.
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "help" {
			continue
		}
		path := strings.TrimSpace(prefix + " " + cmd.Name)
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path)...)
	}
	return paths
}
