package confloader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "OBJHOST_"

// envNestSep separates nesting levels in environment variable names.
const envNestSep = "__"

// Loader loads configuration from multiple sources.
type Loader struct {
	envPrefix string
	filePath  string
	defaults  map[string]any
	overrides map[string]any

	mu     sync.RWMutex
	k      *koanf.Koanf
	loaded bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithDefaults sets the lowest-priority values.
func WithDefaults(m map[string]any) Option {
	return func(l *Loader) {
		l.defaults = m
	}
}

// WithOverrides sets the highest-priority values.
func WithOverrides(m map[string]any) Option {
	return func(l *Loader) {
		l.overrides = m
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every source in priority order and unmarshals into target.
// Calling Load again re-reads all sources from scratch.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")

	if len(l.defaults) > 0 {
		if err := k.Load(mapProvider(l.defaults), nil); err != nil {
			return fmt.Errorf("load defaults: %w", err)
		}
	}
	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}
	if err := k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if len(l.overrides) > 0 {
		if err := k.Load(mapProvider(l.overrides), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.mu.Lock()
	l.k = k
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// envKey maps OBJHOST_SERVER__HTTP__RATE_LIMIT to server.http.rate_limit.
func (l *Loader) envKey(s string) string {
	s = strings.TrimPrefix(s, l.envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, envNestSep, ".")
}

// FilePath returns the configuration file path, if any.
func (l *Loader) FilePath() string {
	return l.filePath
}

// String returns a string value from the last Load.
func (l *Loader) String(key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.k.String(key)
}

// All returns the merged configuration of the last Load as a flat map.
func (l *Loader) All() map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.k.All()
}

// IsLoaded reports whether Load has succeeded at least once.
func (l *Loader) IsLoaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}
