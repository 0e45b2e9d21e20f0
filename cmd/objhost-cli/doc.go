// Package main provides the entry point for objhost-cli.
//
// objhost-cli is the command-line management tool for an objhost server.
// It talks to the HTTP API and, for local administration, to the
// management Unix socket.
//
// Usage:
//
//	objhost-cli [--server ADDR] [--socket PATH] [-o table|json|yaml] COMMAND
package main
