// Package repl provides interactive mode for objhost-cli.
//
// This package implements the Read-Eval-Print Loop for interactive sessions:
//
//   - repl.go: Main REPL loop, argument splitting and command dispatch
//   - completer.go: Command completion ("obj?" lists matching commands)
//   - history.go: Command history persistence
package repl
