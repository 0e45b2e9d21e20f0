package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr    = "127.0.0.1:5180"
	DefaultRateLimit   = 200
	DefaultLocalSocket = "/var/run/objhost/objhost.sock"

	DefaultReclaimInterval = 5 * time.Second
	DefaultGracePeriod     = time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLeaseTTL = 30 * time.Second

	DefaultRegistryDir        = "/var/lib/objhost/registry"
	DefaultRegistryGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultAdminAllow allows loopback callers only.
var DefaultAdminAllow = []string{"127.0.0.1/32", "::1/128"}

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:       DefaultHTTPAddr,
				RateLimit:  DefaultRateLimit,
				AdminAllow: append([]string(nil), DefaultAdminAllow...),
			},
			Local: LocalConfig{
				Enabled: true,
				Path:    DefaultLocalSocket,
			},
		},
		Lifecycle: LifecycleSection{
			ReclaimInterval: DefaultReclaimInterval,
			GracePeriod:     DefaultGracePeriod,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Objects: ObjectsSection{
			LeaseTTL: DefaultLeaseTTL,
		},
		Registry: RegistrySection{
			DataDir:    DefaultRegistryDir,
			GCInterval: DefaultRegistryGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
