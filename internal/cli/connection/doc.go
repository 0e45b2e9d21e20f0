// Package connection provides the transports used by objhost-cli.
//
//   - http.go: HTTP client for the JSON API, unwraps the response envelope
//   - socket.go: line-protocol client for the local management socket
//   - manager.go: picks the transport for management commands
package connection
