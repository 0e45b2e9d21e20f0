package config

import "time"

// ServerConfig is the root configuration for objhost-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Lifecycle LifecycleSection `koanf:"lifecycle"`
	Objects   ObjectsSection   `koanf:"objects"`
	Registry  RegistrySection  `koanf:"registry"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Local LocalConfig `koanf:"local"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// RateLimit is the per-client request rate in requests per second.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the per-client burst. Defaults to RateLimit.
	RateBurst int `koanf:"rate_burst"`

	// AdminAllow lists CIDRs allowed to call /admin endpoints.
	AdminAllow []string `koanf:"admin_allow"`

	// AdminToken, when set, is required as a bearer token on /admin endpoints.
	AdminToken string `koanf:"admin_token"`

	// TLS serves HTTPS when a certificate is configured.
	TLS TLSConfig `koanf:"tls"`
}

// TLSConfig configures HTTPS. The key pair is reloaded when the files
// change.
type TLSConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`

	// ClientCAFile, when set, requires clients to present a certificate
	// signed by one of its CAs.
	ClientCAFile string `koanf:"client_ca_file"`
}

// Enabled reports whether HTTPS is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != ""
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LifecycleSection configures the server lifecycle.
type LifecycleSection struct {
	ReclaimInterval time.Duration `koanf:"reclaim_interval"`
	GracePeriod     time.Duration `koanf:"grace_period"`

	// ShutdownTimeout bounds the post-run shutdown hooks.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ObjectsSection configures the object table.
type ObjectsSection struct {
	// LeaseTTL is how long an object lives without renewal. Zero disables leases.
	LeaseTTL time.Duration `koanf:"lease_ttl"`
}

// RegistrySection configures the class registry store.
type RegistrySection struct {
	DataDir    string        `koanf:"data_dir"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
