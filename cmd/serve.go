package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/auth"
	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/service"
	"github.com/calbridge/calbridge/internal/tools/calendar_tools"
)

// Supported transport types.
const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

type serveOptions struct {
	transport      string
	httpAddr       string
	baseURL        string
	timeZone       string
	debug          bool
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the calendar integration server",
		Long: `Start the calendar integration server.

Supports two transport types:
  - stdio: MCP server on standard input/output (default)
  - http:  REST and tool-calling API on the configured address

The HTTP transport also serves the OAuth callback, so --base-url (or
CALBRIDGE_BASE_URL) must point at the publicly reachable address of this
server for deployed instances. For the stdio transport, complete the OAuth
flow by opening the URL from get_auth_url and running the HTTP transport,
or by using a redirect URI from the client secrets file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP server address (for http transport). Can also use CALBRIDGE_ADDR env var. Default: :8080")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL for the OAuth callback (http transport). Can also use CALBRIDGE_BASE_URL env var. Example: https://calbridge.example.com")
	cmd.Flags().StringVar(&opts.timeZone, "timezone", "", "Default time zone for event times. Can also use CALBRIDGE_TIMEZONE env var. Default: America/Sao_Paulo")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the Prometheus metrics server on a dedicated port (http transport only)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, http)", opts.transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.NewLogger(opts.debug)

	settings := config.LoadSettings()
	if opts.httpAddr != "" {
		settings.Addr = opts.httpAddr
	}
	if opts.baseURL != "" {
		settings.BaseURL = opts.baseURL
	}
	if opts.timeZone != "" {
		settings.TimeZone = opts.timeZone
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		// The signal context is already canceled by the time this runs.
		flushCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Missing or malformed client secrets are a startup failure, not
	// something to discover on the first tool call.
	conf, err := config.LoadClientSecrets()
	if err != nil {
		return err
	}
	if settings.BaseURL != "" {
		conf.RedirectURL = callbackURL(settings.BaseURL)
	}

	mgr := auth.NewManager(conf, logger)
	mgr.SetMetrics(provider.Metrics())

	client, err := calendar.NewClient(shutdownCtx, calendar.Options{
		TokenSource: mgr.TokenSource(shutdownCtx),
		TimeZone:    settings.TimeZone,
	})
	if err != nil {
		return fmt.Errorf("failed to create calendar client: %w", err)
	}
	client.SetMetrics(provider.Metrics())

	dispatcher := service.NewDispatcher(mgr, client, logger)
	dispatcher.SetMetrics(provider.Metrics())

	sc := server.NewServerContext(shutdownCtx, mgr, dispatcher, settings, logger)
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	logger.Info("starting calbridge",
		slog.String("version", version),
		slog.String("transport", opts.transport),
		slog.String("timezone", settings.TimeZone),
	)

	switch opts.transport {
	case transportStdio:
		return runStdioServer(dispatcher)
	default:
		return runHTTPServer(shutdownCtx, sc, provider, opts, logger)
	}
}

// callbackURL derives the OAuth redirect URI from the public base URL.
func callbackURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/callback"
}

func runStdioServer(dispatcher *service.Dispatcher) error {
	mcpSrv := mcpserver.NewMCPServer("calbridge", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := calendar_tools.RegisterCalendarTools(mcpSrv, dispatcher); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, sc *server.ServerContext, provider *instrumentation.Provider, opts serveOptions, logger *slog.Logger) error {
	// Start metrics server first so a port conflict fails the whole startup
	var metricsServer *server.MetricsServer
	if opts.metricsEnabled && provider.Enabled() && provider.PrometheusHandler() != nil {
		var err error
		metricsServer, err = server.NewMetricsServer(opts.metricsAddr, provider)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	health := server.NewHealthChecker(sc)
	httpSrv := server.NewHTTPServer(sc, health, provider.Metrics())

	serverErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	// Drain in-flight requests before exiting
	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
