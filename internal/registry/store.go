package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Common errors.
var (
	ErrClosed            = errors.New("registry: closed")
	ErrUnknownToken      = errors.New("registry: unknown registration token")
	ErrAlreadyRegistered = errors.New("registry: class already registered by this process")
	ErrNotReady          = errors.New("registry: host has not announced readiness")
)

// DefaultGCInterval is the value log GC interval for on-disk stores.
const DefaultGCInterval = 10 * time.Minute

// Config configures the Badger store.
type Config struct {
	// DataDir is the Badger directory. Required unless InMemory is set.
	DataDir string

	// InMemory keeps everything in memory.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// GCInterval is the value log GC interval. Zero uses DefaultGCInterval.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64
}

// Badger is a class registry backed by Badger v3.
type Badger struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger
	pid    int

	closed   atomic.Bool
	closeMu  sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	gcRuns   atomic.Int64
	lastGCAt atomic.Int64 // Unix milliseconds
}

// Open opens (or creates) a registry store.
func Open(cfg Config, logger *slog.Logger) (*Badger, error) {
	if !cfg.InMemory && cfg.DataDir == "" {
		return nil, fmt.Errorf("registry: data dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultGCInterval
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = 0.5
	}
	logger = logger.With("component", "registry")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.DataDir)
	}
	opts = opts.
		WithLogger(&badgerLogger{logger: logger}).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}

	b := &Badger{
		db:     db,
		cfg:    cfg,
		logger: logger,
		pid:    currentPID(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.InMemory {
		close(b.doneCh)
	} else {
		go b.gcLoop()
	}

	logger.Info("registry opened",
		"dir", cfg.DataDir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return b, nil
}

// Close stops the GC loop and closes the database.
func (b *Badger) Close() error {
	var err error
	b.closeMu.Do(func() {
		b.closed.Store(true)
		close(b.stopCh)
		<-b.doneCh
		if cerr := b.db.Close(); cerr != nil {
			err = fmt.Errorf("registry: close db: %w", cerr)
			return
		}
		b.logger.Info("registry closed")
	})
	return err
}

// Size returns the LSM and value log sizes in bytes.
func (b *Badger) Size() (lsm, vlog int64) {
	if b.closed.Load() {
		return 0, 0
	}
	return b.db.Size()
}

// GC runs value log garbage collection until nothing more can be rewritten.
// It returns the number of rewrite cycles.
func (b *Badger) GC() (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	if b.cfg.InMemory {
		return 0, nil
	}

	cycles := 0
	for {
		err := b.db.RunValueLogGC(b.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return cycles, fmt.Errorf("registry: gc: %w", err)
		}
		cycles++
	}

	b.gcRuns.Add(1)
	b.lastGCAt.Store(time.Now().UnixMilli())
	return cycles, nil
}

func (b *Badger) gcLoop() {
	defer close(b.doneCh)

	ticker := time.NewTicker(b.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cycles, err := b.GC(); err != nil {
				b.logger.Error("registry gc failed", "error", err)
			} else if cycles > 0 {
				b.logger.Debug("registry gc completed", "cycles", cycles)
			}
		case <-b.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
