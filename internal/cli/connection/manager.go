package connection

import (
	"context"
	"crypto/tls"
	"errors"
)

// ErrSocketRequired is returned by commands only served on the local socket.
var ErrSocketRequired = errors.New("this command requires --socket")

// Options configures a Manager.
type Options struct {
	// Server is the HTTP API address.
	Server string
	// Socket is the local management socket path. When set, management
	// commands use it instead of the HTTP admin API.
	Socket string
	// Token is the admin bearer token for the HTTP admin API.
	Token string
	// TLS, when set, is used for HTTPS connections.
	TLS *tls.Config
}

// Manager owns the CLI's connections to one objhost server.
type Manager struct {
	http   *HTTPClient
	socket *SocketClient
}

// NewManager creates a new connection manager.
func NewManager(opts Options) *Manager {
	var httpOpts []HTTPOption
	if opts.TLS != nil {
		httpOpts = append(httpOpts, WithTLSConfig(opts.TLS))
	}
	m := &Manager{http: NewHTTPClient(opts.Server, opts.Token, httpOpts...)}
	if opts.Socket != "" {
		m.socket = NewSocketClient(opts.Socket)
	}
	return m
}

// HTTP returns the HTTP API client.
func (m *Manager) HTTP() *HTTPClient {
	return m.http
}

// UsesSocket reports whether management commands go over the local socket.
func (m *Manager) UsesSocket() bool {
	return m.socket != nil
}

// Target describes where management commands are sent.
func (m *Manager) Target() string {
	if m.socket != nil {
		return "unix://" + m.socket.Path()
	}
	return m.http.BaseURL()
}

// Close releases any open connection.
func (m *Manager) Close() error {
	if m.socket != nil {
		return m.socket.Close()
	}
	return nil
}

// Status fetches the server status into out.
func (m *Manager) Status(ctx context.Context, out any) error {
	if m.socket != nil {
		return m.socket.Execute(out, "status")
	}
	return m.http.Get(ctx, "/status", out)
}

// Shutdown posts a forced stop.
func (m *Manager) Shutdown(ctx context.Context, out any) error {
	if m.socket != nil {
		return m.socket.Execute(out, "shutdown")
	}
	return m.http.Post(ctx, "/admin/shutdown", nil, out)
}

// Reclaim runs one reclaim pass on the server.
func (m *Manager) Reclaim(ctx context.Context, out any) error {
	if m.socket != nil {
		return m.socket.Execute(out, "reclaim")
	}
	return m.http.Post(ctx, "/admin/reclaim", nil, out)
}

// LogLevel reports the log level, or changes it when level is set.
func (m *Manager) LogLevel(ctx context.Context, level string, out any) error {
	if m.socket != nil {
		if level == "" {
			return m.socket.Execute(out, "loglevel")
		}
		return m.socket.Execute(out, "loglevel", level)
	}
	if level == "" {
		return m.http.Get(ctx, "/admin/loglevel", out)
	}
	return m.http.Put(ctx, "/admin/loglevel", map[string]string{"level": level}, out)
}

// Reload asks the server to re-read its configuration file. It is only
// available over the local socket.
func (m *Manager) Reload(_ context.Context, out any) error {
	if m.socket == nil {
		return ErrSocketRequired
	}
	return m.socket.Execute(out, "reload")
}
