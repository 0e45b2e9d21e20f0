// Package command provides CLI command definitions for objhost-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, connection setup
//   - system.go: System subcommand group (status, health, stop, reclaim, loglevel, reload)
//   - object.go: Object subcommand group
//   - class.go: Class subcommand group
//   - profile.go: Saved connection profiles (internal/cli/config)
//   - shell.go: Interactive mode (internal/cli/repl)
//
// Commands follow a consistent pattern of parsing flags,
// calling the server through connection.Manager, and formatting output.
package command
