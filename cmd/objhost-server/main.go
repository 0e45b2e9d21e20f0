package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/objhost-go/internal/core/catalog"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/core/service"
	"github.com/yndnr/objhost-go/internal/infra/buildinfo"
	"github.com/yndnr/objhost-go/internal/infra/confloader"
	"github.com/yndnr/objhost-go/internal/infra/shutdown"
	"github.com/yndnr/objhost-go/internal/infra/tlsroots"
	"github.com/yndnr/objhost-go/internal/registry"
	"github.com/yndnr/objhost-go/internal/server/config"
	"github.com/yndnr/objhost-go/internal/server/httpserver"
	"github.com/yndnr/objhost-go/internal/server/localserver"
	"github.com/yndnr/objhost-go/internal/telemetry/logger"
	"github.com/yndnr/objhost-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("objhost-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting objhost-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	reg, err := registry.Open(registry.Config{
		DataDir:    cfg.Registry.DataDir,
		InMemory:   cfg.Registry.InMemory,
		SyncWrites: cfg.Registry.SyncWrites,
		GCInterval: cfg.Registry.GCInterval,
	}, slogLogger)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	metrics.Registerer().MustRegister(reg.Collectors()...)

	classes := catalog.Builtin()

	// svc is assigned below; the reclaim hook only runs once Run has started.
	var svc *service.ObjectService
	srv, err := lifecycle.New(lifecycle.Config{
		Gateway:         reg,
		Classes:         classes,
		Reclaim:         func(ctx context.Context) error { return svc.Reclaim(ctx) },
		ReclaimInterval: cfg.Lifecycle.ReclaimInterval,
		GracePeriod:     cfg.Lifecycle.GracePeriod,
		Logger:          slogLogger,
		Metrics:         metrics.Lifecycle,
	})
	if err != nil {
		_ = reg.Close()
		return fmt.Errorf("init lifecycle: %w", err)
	}
	metrics.Registerer().MustRegister(metric.NewCollector(srv))

	svc = service.NewObjectService(service.ObjectServiceConfig{
		Host:     srv,
		Classes:  classes,
		LeaseTTL: cfg.Objects.LeaseTTL,
		Logger:   slogLogger,
		Metrics:  metrics.Objects,
	})

	shutdownHandler := shutdown.NewHandler(cfg.Lifecycle.ShutdownTimeout)
	shutdownHandler.SetLogger(slogLogger)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing class registry")
		return reg.Close()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("releasing remaining objects")
		return svc.Close(ctx)
	})

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
		Objects:        svc,
		Lifecycle:      srv,
		Registry:       reg,
		Metrics:        metrics,
		Logger:         slogLogger,
		RateLimit:      cfg.Server.HTTP.RateLimit,
		RateBurst:      cfg.Server.HTTP.RateBurst,
		AdminAllowList: cfg.Server.HTTP.AdminAllow,
		AdminToken:     cfg.Server.HTTP.AdminToken,
	}))
	if tlsCfg := cfg.Server.HTTP.TLS; tlsCfg.Enabled() {
		if err := enableTLS(httpServer, tlsCfg, shutdownHandler, slogLogger); err != nil {
			_ = shutdownHandler.Run()
			return fmt.Errorf("http tls: %w", err)
		}
	}
	if err := httpServer.Listen(); err != nil {
		_ = shutdownHandler.Run()
		return fmt.Errorf("http listen: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	reload := func() error { return reloadConfig(*configFile, log) }

	var localServer *localserver.Server
	if cfg.Server.Local.Enabled {
		localServer = localserver.New(cfg.Server.Local.Path, localserver.NewHandler(localserver.HandlerConfig{
			Lifecycle: srv,
			Objects:   svc,
			Reload:    reload,
		}), slogLogger)
		if err := localServer.Listen(); err != nil {
			_ = shutdownHandler.Run()
			return fmt.Errorf("local socket: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down local socket")
			return localServer.Shutdown(ctx)
		})
	}

	if *configFile != "" {
		if err := watchConfig(*configFile, reload, shutdownHandler, slogLogger); err != nil {
			log.Warn("configuration watcher disabled", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A stop before Run reaches Running cancels the context instead.
	forceStop := func() {
		if !srv.RequestForcedStop() {
			cancel()
		}
	}
	shutdownHandler.Notify(ctx, forceStop)

	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr(), "tls", cfg.Server.HTTP.TLS.Enabled())
		if err := httpServer.ListenAndServe(); err != nil {
			log.Error("HTTP server error", "error", err)
			forceStop()
		}
	}()
	if localServer != nil {
		go func() {
			if err := localServer.ListenAndServe(); err != nil {
				log.Error("local socket error", "error", err)
			}
		}()
	}

	runErr := srv.Run(ctx)
	cancel()

	status := srv.Status()
	if runErr != nil {
		log.Error("server failed to start", "error", runErr)
	} else {
		log.Info("server stopped", "reason", status.LastStopReason.String(), "run_id", status.RunID)
	}

	hookErr := shutdownHandler.Run()
	if hookErr != nil {
		log.Error("shutdown error", "error", hookErr)
	}
	return errors.Join(runErr, hookErr)
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// reloadConfig re-reads the configuration and applies the settings that
// can change at runtime. Everything else needs a restart.
func reloadConfig(configFile string, log logger.Logger) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	prev := logger.GetLevel()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	log.Info("configuration reloaded", "log_level", logger.GetLevel(), "previous_level", prev)
	return nil
}

// watchConfig reloads the configuration whenever the file changes.
func watchConfig(path string, reload func() error, h *shutdown.Handler, log *slog.Logger) error {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return err
	}
	watcher.OnChange(func(string) {
		if err := reload(); err != nil {
			log.Warn("configuration reload failed", "error", err)
		}
	})
	watcher.StartAsync()
	h.OnShutdown(func(context.Context) error { return watcher.Stop() })
	return nil
}

// enableTLS serves HTTPS from the configured key pair and reloads it when
// the files are replaced on disk.
func enableTLS(s *httpserver.Server, cfg config.TLSConfig, h *shutdown.Handler, log *slog.Logger) error {
	reloader, err := tlsroots.NewReloader(cfg.CertFile, cfg.KeyFile, tlsroots.WithLogger(log))
	if err != nil {
		return err
	}
	tlsConfig, err := tlsroots.ServerConfig(reloader, cfg.ClientCAFile)
	if err != nil {
		return err
	}
	s.EnableTLS(tlsConfig)
	reloader.StartAsync()
	h.OnShutdown(func(context.Context) error {
		reloader.Stop()
		return nil
	})
	log.Info("TLS enabled",
		"cert", cfg.CertFile,
		"not_after", reloader.NotAfter(),
		"client_auth", cfg.ClientCAFile != "")
	return nil
}
