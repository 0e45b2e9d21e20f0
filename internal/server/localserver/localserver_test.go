package localserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/objhost-go/internal/core/lifecycle"
)

type fakeLifecycle struct {
	mu      sync.Mutex
	state   lifecycle.State
	stopped int
}

func (f *fakeLifecycle) Status() lifecycle.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lifecycle.Status{State: f.state}
}

func (f *fakeLifecycle) RequestForcedStop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != lifecycle.StateRunning {
		return false
	}
	f.stopped++
	f.state = lifecycle.StateStopping
	return true
}

type fakeObjects struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeObjects) Reclaim(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count = 0
	return f.err
}

func (f *fakeObjects) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type env struct {
	h       *Handler
	life    *fakeLifecycle
	objects *fakeObjects
	level   string
	reloads int
}

func newEnv() *env {
	e := &env{
		life:    &fakeLifecycle{state: lifecycle.StateRunning},
		objects: &fakeObjects{count: 3},
		level:   "info",
	}
	e.h = NewHandler(HandlerConfig{
		Lifecycle: e.life,
		Objects:   e.objects,
		Reload: func() error {
			e.reloads++
			return nil
		},
		SetLogLevel: func(l string) error {
			if l != "debug" && l != "info" {
				return errors.New("unknown level")
			}
			e.level = l
			return nil
		},
		GetLogLevel: func() string { return e.level },
	})
	return e
}

func run(t *testing.T, h *Handler, cmd string, args ...string) (Reply, error) {
	t.Helper()
	var buf bytes.Buffer
	err := h.Execute(&buf, cmd, args)

	var reply Reply
	require.NoError(t, json.Unmarshal(buf.Bytes(), &reply), "reply %q", buf.String())
	return reply, err
}

func TestHandler_Status(t *testing.T) {
	e := newEnv()

	reply, err := run(t, e.h, "status")
	require.NoError(t, err)
	assert.True(t, reply.OK)

	data := reply.Data.(map[string]any)
	assert.Equal(t, "running", data["lifecycle"].(map[string]any)["state"])
	assert.EqualValues(t, 3, data["objects"])
}

func TestHandler_Shutdown(t *testing.T) {
	e := newEnv()

	reply, err := run(t, e.h, "shutdown")
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, 1, e.life.stopped)

	reply, err = run(t, e.h, "shutdown")
	assert.Error(t, err)
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "stopping")
}

func TestHandler_Reclaim(t *testing.T) {
	e := newEnv()
	e.objects.err = errors.New("close failed")

	reply, err := run(t, e.h, "reclaim")
	assert.Error(t, err)
	assert.False(t, reply.OK)
	assert.Equal(t, map[string]any{"before": 3.0, "after": 0.0}, reply.Data)
}

func TestHandler_LogLevel(t *testing.T) {
	e := newEnv()

	reply, err := run(t, e.h, "loglevel")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"level": "info"}, reply.Data)

	_, err = run(t, e.h, "loglevel", "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", e.level)

	reply, err = run(t, e.h, "loglevel", "chatty")
	assert.Error(t, err)
	assert.False(t, reply.OK)

	_, err = run(t, e.h, "loglevel", "debug", "extra")
	assert.Error(t, err)
}

func TestHandler_Reload(t *testing.T) {
	e := newEnv()

	_, err := run(t, e.h, "reload")
	require.NoError(t, err)
	assert.Equal(t, 1, e.reloads)

	bare := NewHandler(HandlerConfig{Lifecycle: e.life, Objects: e.objects})
	reply, err := run(t, bare, "reload")
	assert.Error(t, err)
	assert.Contains(t, reply.Error, "not configured")
}

func TestHandler_UnknownCommand(t *testing.T) {
	reply, err := run(t, newEnv().h, "drain")
	assert.Error(t, err)
	assert.Equal(t, "unknown command: drain", reply.Error)
}

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are limited to ~104 bytes; t.TempDir can exceed that.
	dir, err := os.MkdirTemp("", "ohls")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "objhost.sock")
}

func startServer(t *testing.T, h Executor) *Server {
	t.Helper()
	s := New(socketPath(t), h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, s.Listen())

	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		<-errc
	})
	return s
}

func TestServer_RoundTrip(t *testing.T) {
	e := newEnv()
	s := startServer(t, e.h)

	conn, err := net.Dial("unix", s.Path())
	require.NoError(t, err)
	defer conn.Close()

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	r := bufio.NewReader(conn)
	for _, line := range []string{"STATUS\n", "\n", "loglevel debug\n"} {
		_, err = conn.Write([]byte(line))
		require.NoError(t, err)
	}

	var first, second Reply
	raw, err := r.ReadBytes('\n')
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &first))
	raw, err = r.ReadBytes('\n')
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &second))

	assert.True(t, first.OK)
	assert.Equal(t, map[string]any{"level": "debug"}, second.Data)
}

func TestServer_RemovesStaleSocket(t *testing.T) {
	path := socketPath(t)

	// Leave a socket file behind without a listener.
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()
	_, err = os.Stat(path)
	require.NoError(t, err)

	s := New(path, newEnv().h, nil)
	require.NoError(t, s.Listen())
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_SocketInUse(t *testing.T) {
	s := startServer(t, newEnv().h)

	other := New(s.Path(), newEnv().h, nil)
	assert.ErrorIs(t, other.Listen(), ErrSocketInUse)
}

func TestServer_RefusesNonSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	s := New(path, newEnv().h, nil)
	assert.Error(t, s.Listen())
}

func TestServer_ShutdownInterruptsIdleConnections(t *testing.T) {
	s := New(socketPath(t), newEnv().h, nil)
	require.NoError(t, s.Listen())
	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe() }()

	conn, err := net.Dial("unix", s.Path())
	require.NoError(t, err)
	defer conn.Close()
	// Make sure the connection was accepted before shutting down.
	_, err = conn.Write([]byte("status\n"))
	require.NoError(t, err)
	_, err = bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-errc)

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "socket file should be removed")
}
