package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/objhost-go/internal/telemetry/logger"
)

// Verify validates the configuration. It creates the registry directory
// when it does not exist.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLifecycle(&cfg.Lifecycle); err != nil {
		return err
	}
	if cfg.Objects.LeaseTTL < 0 {
		return errors.New("objects.lease_ttl must not be negative")
	}
	if err := verifyRegistry(&cfg.Registry); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.HTTP.RateBurst < 0 {
		return errors.New("server.http.rate_burst must not be negative")
	}
	for _, cidr := range cfg.HTTP.AdminAllow {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("server.http.admin_allow: %w", err)
		}
	}
	if err := verifyTLS(&cfg.HTTP.TLS); err != nil {
		return err
	}
	if cfg.Local.Enabled && cfg.Local.Path == "" {
		return errors.New("server.local.path is required when the local socket is enabled")
	}
	return nil
}

func verifyTLS(cfg *TLSConfig) error {
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return errors.New("server.http.tls.cert_file and key_file must be set together")
	}
	if cfg.ClientCAFile != "" && cfg.CertFile == "" {
		return errors.New("server.http.tls.client_ca_file requires cert_file")
	}
	for _, f := range []string{cfg.CertFile, cfg.KeyFile, cfg.ClientCAFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http.tls: %w", err)
		}
	}
	return nil
}

func verifyLifecycle(cfg *LifecycleSection) error {
	if cfg.ReclaimInterval <= 0 {
		return errors.New("lifecycle.reclaim_interval must be positive")
	}
	if cfg.GracePeriod <= 0 {
		return errors.New("lifecycle.grace_period must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("lifecycle.shutdown_timeout must be positive")
	}
	return nil
}

func verifyRegistry(cfg *RegistrySection) error {
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("registry.data_dir is required unless registry.in_memory is set")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create registry directory: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
