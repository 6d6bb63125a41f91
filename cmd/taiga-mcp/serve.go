package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talhaorak/taiga-mcp/internal/logging"
	httpadapter "github.com/talhaorak/taiga-mcp/pkg/adapters/http"
	mcpadapter "github.com/talhaorak/taiga-mcp/pkg/adapters/mcp"
	redisadapter "github.com/talhaorak/taiga-mcp/pkg/adapters/redis"
	"github.com/talhaorak/taiga-mcp/pkg/config"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/observability"
	"github.com/talhaorak/taiga-mcp/pkg/persistence/middleware"
	"github.com/talhaorak/taiga-mcp/pkg/session"
	"github.com/talhaorak/taiga-mcp/pkg/taiga"
)

// serveCmd runs the bridge itself.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Starts the Taiga bridge as an MCP server.

Supported transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.

With TAIGA_USERNAME and TAIGA_PASSWORD set, a default session is opened at
startup so tool calls work without an explicit login.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		opsAddr, _ := cmd.Flags().GetString("ops-addr")

		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}

		logger := logging.New(logging.ParseLevel(settings.LogLevel))
		slog.SetDefault(logger)

		metrics := observability.NewMetrics()

		transportCfg := taiga.TransportConfig{
			RequestTimeout:     settings.RequestTimeout,
			MaxConnections:     settings.MaxConnections,
			MaxIdleConnections: settings.MaxIdleConnections,
			RateLimitPerMinute: settings.RateLimitPerMinute,
		}

		storeOpts := []session.Option{
			session.WithLogger(logger),
			session.WithMetrics(metrics),
		}
		var records *redisadapter.Store
		if settings.RedisAddr != "" {
			records = redisadapter.New(settings.RedisAddr, settings.RedisPassword, settings.RedisDB,
				redisadapter.WithTTL(settings.SessionExpiry))
			var recordStore session.RecordStore = records
			if active, fallbacks, err := settings.EncryptionKeys(); err != nil {
				log.Fatalf("Error decoding encryption keys: %v", err)
			} else if active != nil {
				recordStore = middleware.Chain(recordStore, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
					ActiveKey:    active,
					FallbackKeys: fallbacks,
				}))
			}
			storeOpts = append(storeOpts, session.WithRecordStore(recordStore))
		}
		store := session.NewStore(settings.SessionExpiry, storeOpts...)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if records != nil {
			restored, err := store.Restore(ctx, func(rec domain.SessionRecord) *taiga.Client {
				return taiga.Resume(rec.Host, rec.Token, transportCfg,
					taiga.WithLogger(logger), taiga.WithMetrics(metrics))
			})
			if err != nil {
				logger.Warn("Session restore failed", "error", err)
			} else if restored > 0 {
				logger.Info("Sessions restored from redis", "count", restored)
			}
		}

		srv := mcpadapter.NewServer(store, settings,
			mcpadapter.WithLogger(logger), mcpadapter.WithMetrics(metrics))

		if settings.HasCredentials() {
			if err := srv.AutoAuthenticate(ctx); err != nil {
				logger.Warn("Auto-authentication failed", "error", err)
			}
		}

		sweeper := session.NewSweeper(store, settings.SweepInterval, settings.SweepFailureInterval, logger)
		go sweeper.Run(ctx)

		var ops *httpadapter.Server
		if opsAddr != "" {
			ops = httpadapter.NewServer(opsAddr, store, metrics, logger)
			go func() {
				if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Ops server failed", "error", err)
				}
			}()
		}

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Taiga MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting Taiga MCP server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				// Ignore server closed error if it was caused by context cancellation
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "error", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ops != nil {
			if err := ops.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Ops server shutdown incomplete", "error", err)
			}
		}
		store.CloseAll(shutdownCtx)
		if records != nil {
			if err := records.Close(); err != nil {
				logger.Warn("Redis close failed", "error", err)
			}
		}
	},
}

// loadSettings merges the environment with the optional --config overlay and
// validates the result.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.FromEnv()
	if err != nil {
		return settings, err
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := settings.Load(path); err != nil {
			return settings, err
		}
	}
	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (only for SSE)")
	serveCmd.Flags().String("ops-addr", "", "Address for the health/metrics server (disabled when empty)")
}
