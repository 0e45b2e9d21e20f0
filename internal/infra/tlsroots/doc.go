// Package tlsroots provides TLS configuration for the HTTP API.
//
//   - roots.go: trust pools and client/server tls.Config construction
//   - reloader.go: serving key pair with hot reload via fsnotify
package tlsroots
