package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// mockServer is a test HTTP server that answers with response envelopes.
type mockServer struct {
	*httptest.Server
	mux *http.ServeMux
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{mux: http.NewServeMux()}
	m.Server = httptest.NewServer(m.mux)
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mux.HandleFunc(pattern, handler)
}

// jsonResponse writes a success envelope around data.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    "OK",
		"message": "Success",
		"data":    data,
	})
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"details": details,
	})
}

// runCLI runs the app against server with args and returns its stdout.
// Each call gets an empty CLI config file.
func runCLI(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	return runCLIWith(t, filepath.Join(t.TempDir(), "cli.yaml"), nil,
		append([]string{"--server", server}, args...)...)
}

// runCLIWith runs the app with the given CLI config file and stdin.
func runCLIWith(t *testing.T, cfgPath string, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	if stdin != nil {
		app.Reader = stdin
	}

	full := append([]string{"objhost-cli", "--config", cfgPath}, args...)
	err := app.Run(full)
	return stdout.String(), err
}

var sampleObject = map[string]any{
	"id":           "ohob-01kct9ns8he7a9m022x0tgbhds",
	"class_id":     "objhost.Store",
	"owner":        "alice",
	"created_at":   "2026-01-02T03:04:05Z",
	"last_renewed": "2026-01-02T03:04:05Z",
	"expires_at":   "2026-01-02T03:04:35Z",
}
