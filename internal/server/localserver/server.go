package localserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// maxLineLength bounds a single command line.
const maxLineLength = 4096

// idleTimeout closes connections that send nothing for this long.
const idleTimeout = 2 * time.Minute

// ErrSocketInUse is returned when another process serves the socket path.
var ErrSocketInUse = errors.New("localserver: socket already in use")

// Executor runs one command and writes its reply to w.
type Executor interface {
	Execute(w io.Writer, cmd string, args []string) error
}

// Server represents the local management server.
type Server struct {
	path    string
	handler Executor
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a new local server.
func New(socketPath string, handler Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		path:    socketPath,
		handler: handler,
		logger:  logger.With("component", "localserver"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Listen creates the socket. A stale socket file left by a dead process
// is removed first; a live one yields ErrSocketInUse.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("localserver: create socket dir: %w", err)
	}
	if err := removeStale(s.path); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("localserver: listen: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("localserver: chmod socket: %w", err)
	}
	s.listener = ln
	s.running.Store(true)
	return nil
}

func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat socket: %w", err)
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}

	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return ErrSocketInUse
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localserver: remove stale socket: %w", err)
	}
	return nil
}

// ListenAndServe starts the local server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("local management socket listening", "path", s.path)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Shutdown gracefully shuts down the server.
//
// It closes the listener, interrupts idle connections, waits for
// in-flight commands (respecting ctx) and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running.Store(false)
	var closeErr error
	if s.listener != nil {
		closeErr = s.listener.Close()
		if errors.Is(closeErr, net.ErrClosed) {
			closeErr = nil
		}
	}
	for conn := range s.conns {
		// Unblocks the scanner; a command in progress still completes its reply.
		_ = conn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), maxLineLength)
	w := bufio.NewWriter(conn)

	for {
		if !s.running.Load() {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !isTimeout(err) {
				s.logger.Debug("connection read failed", "error", err)
			}
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		if err := s.handler.Execute(w, cmd, args); err != nil {
			s.logger.Warn("command failed", "command", cmd, "error", err)
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
