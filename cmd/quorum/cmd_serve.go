package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modelmux/quorum/internal/config"
	"github.com/modelmux/quorum/internal/history"
	"github.com/modelmux/quorum/internal/limiter"
	"github.com/modelmux/quorum/internal/orchestration"
	"github.com/modelmux/quorum/internal/provider"
	"github.com/modelmux/quorum/internal/provider/static"
	"github.com/modelmux/quorum/internal/webserver"
)

var (
	servePort      int
	serveHistory   string
	serveNoBrowser bool
	serveOffline   bool
	serveOrigins   []string
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the orchestration HTTP API",
		Long: `Start the orchestration HTTP API on 127.0.0.1.

Endpoints:
  POST   /api/orchestrate   run one round
  GET    /api/history       recorded rounds, newest first (?limit=)
  GET    /api/history/{id}  one round
  DELETE /api/history       clear the store
  GET    /api/stats         per-provider aggregates
  GET    /api/health        liveness probe

Every provider with usable credentials is registered; requests pick their
providers per round. The server drains in-flight requests for up to five
seconds on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: serveCommandE,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, fmt.Sprintf("Port to listen on (default: %d)", webserver.DefaultPort))
	cmd.Flags().StringVar(&serveHistory, "history", "", "History file path (default: history.path from config)")
	cmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "Do not open the browser")
	cmd.Flags().BoolVar(&serveOffline, "offline", false, "Serve canned offline adapters instead of live providers")
	cmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "CORS allowed origins (can be repeated)")

	return cmd
}

func serveCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if serveHistory != "" {
		cfg.History.Path = serveHistory
	}

	registry, err := buildServerRegistry(cfg, serveOffline)
	if err != nil {
		return err
	}

	orch := orchestration.New(registry,
		orchestration.WithTimeout(cfg.Timeout()),
		orchestration.WithLimiter(limiter.New(cfg.Orchestrator.MaxConcurrent)),
	)
	svc := orchestration.NewService(orch, history.NewStore(cfg.History.Path))

	server, err := webserver.New(webserver.Config{
		Port:           cfg.Server.Port,
		NoBrowser:      serveNoBrowser,
		AllowedOrigins: serveOrigins,
	}, svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx)
}

// buildServerRegistry registers every known provider. Unlike a run, where a
// missing API key should fail loudly, the server skips providers it cannot
// build so one configured key is enough to start serving.
func buildServerRegistry(cfg *config.Config, offline bool) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	for _, id := range knownProviders {
		var adapter provider.Adapter
		if offline {
			adapter = static.New(id, static.WithModel(id+"-offline"))
		} else {
			var err error
			adapter, err = buildAdapter(cfg, id)
			if err != nil {
				slog.Warn("skipping provider", "provider", id, "reason", err.Error())
				continue
			}
		}
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
