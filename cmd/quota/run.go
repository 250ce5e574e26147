package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"postplanner-hq/quota/pkg/cli"
	"postplanner-hq/quota/pkg/config"
	tlssrv "postplanner-hq/quota/pkg/security/tls"
	"postplanner-hq/quota/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	noWatch       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the quota server",
	Long: `Start the quota server with the specified configuration.

The server answers rate limit, usage and feature checks over HTTP. Rate
policies and API keys are reloaded when the configuration file changes;
other settings need a restart.

Examples:
  # Start with default config
  quota run

  # Start with custom config
  quota run --config /etc/quota/config.yaml

  # Override listen address
  quota run --listen 0.0.0.0:8080

  # Validate config without starting server
  quota run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	applyOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.SetConfig(cfg)

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	fmt.Fprintf(out, "Quota v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("failed to close usage store", "error", err)
		}
	}()
	slog.SetDefault(a.logger)

	fmt.Fprintf(out, "✓ Usage store ready (%s, %s period)\n", cfg.Usage.Backend, a.tracker.Period())
	fmt.Fprintf(out, "✓ Rate limiters ready (%d categories)\n", len(a.registry.Categories()))

	opts := []server.Option{server.WithLogger(a.logger)}
	if cfg.Server.TLS.Enabled {
		reloader := tlssrv.NewCertificateReloader(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile, cfg.Server.TLS.ReloadInterval, a.logger)
		if err := reloader.Start(ctx); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to load TLS certificate: %w", err))
		}
		tlsConfig, err := tlssrv.ServerConfig(reloader, cfg.Server.TLS.MinVersion)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		opts = append(opts, server.WithTLS(tlsConfig))
	}
	srv := server.New(cfg.Server, a.handler, opts...)

	if err := a.janitor.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	if !runFlags.noWatch {
		watcher, err := config.NewFileWatcher(cfgFile, 0, a.logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()

		g.Go(func() error {
			return watcher.Watch(gctx, func() error {
				return reloadConfig(a, cfgFile)
			})
		})
	}

	g.Go(func() error {
		select {
		case <-srv.Ready():
			printListening(out, cfg, srv.Addr().String())
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// loadConfig loads path with environment overrides. Validation failures are
// returned as is so the caller can list them per field.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		if cli.ConfigErrors(err) != nil {
			return nil, err
		}
		return nil, cli.NewConfigError(path, err.Error())
	}
	return cfg, nil
}

// applyOverrides applies the run flags on top of cfg.
func applyOverrides(cfg *config.Config) {
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
}

// reloadConfig re-reads path and applies what can change at runtime. The
// running configuration is replaced only when the app accepts the new one.
func reloadConfig(a *app, path string) error {
	previous := config.GetConfig()

	_, err := config.ReloadConfig(path, func(cfg *config.Config) error {
		applyOverrides(cfg)
		if err := a.applyConfig(cfg); err != nil {
			return err
		}
		for _, setting := range restartOnlyChanges(previous, cfg) {
			a.logger.Warn("setting changed, restart to apply", "setting", setting)
		}
		return nil
	})
	return err
}

// restartOnlyChanges names the settings that differ between prev and next
// but are only read at startup.
func restartOnlyChanges(prev, next *config.Config) []string {
	if prev == nil || next == nil {
		return nil
	}

	var changed []string
	check := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	check("server.listen_address", prev.Server.ListenAddress != next.Server.ListenAddress)
	check("server.tls", prev.Server.TLS != next.Server.TLS)
	check("server.throttle", prev.Server.Throttle != next.Server.Throttle)
	check("usage.backend", prev.Usage.Backend != next.Usage.Backend)
	check("usage.period", prev.Usage.Period != next.Usage.Period)
	check("limiter.shards", prev.Limiter.Shards != next.Limiter.Shards)
	check("limiter.max_buckets", prev.Limiter.MaxBuckets != next.Limiter.MaxBuckets)
	check("limiter.sweep_schedule", prev.Limiter.SweepSchedule != next.Limiter.SweepSchedule)
	check("usage.cleanup_schedule", prev.Usage.CleanupSchedule != next.Usage.CleanupSchedule)
	check("telemetry.logging.level", prev.Telemetry.Logging.Level != next.Telemetry.Logging.Level)
	check("auth.jwt", prev.Auth.JWT != next.Auth.JWT)
	return changed
}

func printListening(w io.Writer, cfg *config.Config, addr string) {
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "✓ Server listening on %s\n", addr)
	fmt.Fprintf(w, "✓ Health endpoint: %s://%s%s\n", scheme, addr, cfg.Telemetry.Health.LivenessPath)
	if cfg.Telemetry.Metrics.IsEnabled() {
		fmt.Fprintf(w, "✓ Metrics endpoint: %s://%s%s\n", scheme, addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
