package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a certificate rotation
// produces.
const DefaultDebounce = 500 * time.Millisecond

// Reloader serves a key pair and reloads it when either file changes.
// A failed reload keeps the previous pair.
type Reloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time
	reloads  int

	timerMu sync.Mutex
	timer   *time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Reloader.
type Option func(*Reloader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reloader) {
		r.logger = logger
	}
}

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(r *Reloader) {
		r.debounce = d
	}
}

// NewReloader loads the key pair. It fails if the pair cannot be loaded.
func NewReloader(certFile, keyFile string, opts ...Option) (*Reloader, error) {
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "tls")

	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return r, nil
}

// Reload reads the key pair from disk now.
func (r *Reloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	var notAfter time.Time
	if len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			cert.Leaf = leaf
			notAfter = leaf.NotAfter
		}
	}

	r.mu.Lock()
	r.cert = &cert
	r.notAfter = notAfter
	r.reloads++
	r.mu.Unlock()

	r.logger.Info("certificate loaded", "cert_file", r.certFile, "not_after", notAfter)
	if !notAfter.IsZero() && time.Until(notAfter) < 7*24*time.Hour {
		r.logger.Warn("certificate expires soon", "cert_file", r.certFile, "not_after", notAfter)
	}
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// NotAfter returns the expiry of the current certificate.
func (r *Reloader) NotAfter() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.notAfter
}

// Reloads returns how many times a pair was loaded successfully.
func (r *Reloader) Reloads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reloads
}

// Start watches the certificate and key directories until Stop.
func (r *Reloader) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fw.Close()

	// Directories are watched so rename-based rotation is seen.
	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	watched := map[string]struct{}{
		filepath.Clean(r.certFile): {},
		filepath.Clean(r.keyFile):  {},
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if _, ok := watched[filepath.Clean(event.Name)]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.logger.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())
			r.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("certificate watcher error", "error", err)
		case <-r.done:
			return nil
		}
	}
}

// StartAsync runs Start in a goroutine.
func (r *Reloader) StartAsync() {
	go func() {
		if err := r.Start(); err != nil {
			r.logger.Error("certificate watcher stopped", "error", err)
		}
	}()
}

// Stop stops watching. It is safe to call more than once.
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.timerMu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.timerMu.Unlock()
	})
}

// schedule reloads once the debounce window passes without new events.
func (r *Reloader) schedule() {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		select {
		case <-r.done:
			return
		default:
		}
		if err := r.Reload(); err != nil {
			r.logger.Error("certificate reload failed", "cert_file", r.certFile, "error", err)
		}
	})
}
