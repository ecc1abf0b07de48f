package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/config"
	"assetwatch/internal/feed"
	"assetwatch/internal/httpapi"
	"assetwatch/internal/tracker"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(opts *Options) *cobra.Command {
	var cfgPath, corsCSV string
	var cfg config.Config
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tracker with its HTTP automation API",
		Example: "  assetwatch serve --addr :8080 --track\n" +
			"  assetwatch serve --config assetwatch.yaml --feed ws://127.0.0.1:45643/events",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				fileCfg, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				cfg = mergeFlags(cmd, fileCfg, cfg)
			}
			if cmd.Flags().Changed("cors-origins") {
				cfg.CORSOrigins = splitCSV(corsCSV)
			}
			if cfg.Addr == "" {
				cfg.Addr = defaultAddr
			}
			level, format := opts.LogLevel, opts.LogFormat
			if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
				level = cfg.LogLevel
			}
			if !cmd.Flags().Changed("log-format") && cfg.LogFormat != "" {
				format = cfg.LogFormat
			}
			log, err := newLogger(level, format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg, log)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", "", "Config file (.yaml|.yml|.json|.toml)")
	f.StringVar(&cfg.Addr, "addr", envStr("ASSETWATCH_ADDR", ""), "HTTP listen address, e.g. :8080")
	f.StringVar(&cfg.FeedURL, "feed", "", "Upstream asset processor event stream (ws:// URL) to follow")
	f.BoolVar(&cfg.TrackOnStart, "track", false, "Start tracking immediately")
	f.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", 0, "Maximum JSON request body size (0=1MiB)")
	f.StringVar(&cfg.HTTPLogLevel, "http-log", "", "Per-request log level: off|error|info|debug")
	f.StringVar(&corsCSV, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	return cmd
}

// mergeFlags overlays explicitly set flags onto the file configuration.
func mergeFlags(cmd *cobra.Command, file, flags config.Config) config.Config {
	f := cmd.Flags()
	if f.Changed("addr") || file.Addr == "" {
		file.Addr = flags.Addr
	}
	if f.Changed("feed") {
		file.FeedURL = flags.FeedURL
	}
	if f.Changed("track") {
		file.TrackOnStart = flags.TrackOnStart
	}
	if f.Changed("max-body-bytes") {
		file.MaxBodyBytes = flags.MaxBodyBytes
	}
	if f.Changed("http-log") {
		file.HTTPLogLevel = flags.HTTPLogLevel
	}
	return file
}

// Serve runs the tracker, its HTTP API and the optional upstream feed until
// ctx is done, then shuts the server down gracefully.
func Serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := assetbus.NewBus()
	tr := tracker.NewWithConfig(tracker.Config{Source: bus, Logger: &log})
	defer tr.Close()
	if cfg.TrackOnStart {
		tr.StartTracking()
	}

	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(cfg.HTTPLogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Content-Type", "X-Log-Level"})
	}
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(tr, bus), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Bool("tracking", cfg.TrackOnStart).Msg("assetwatch listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.FeedURL != "" {
		fl := log.With().Str("component", "feed").Logger()
		go func() {
			_ = feed.Follow(ctx, cfg.FeedURL, bus, httpapi.IngestHooks("feed", &fl), cfg.FeedRetry.Std())
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	// Stop WebSocket streams and the feed before draining HTTP.
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("assetwatch stopped")
	return runErr
}
