package main

import (
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spboyer/modelrank/internal/projectconfig"
	"github.com/spboyer/modelrank/internal/recommend"
	"github.com/spboyer/modelrank/internal/taskprofile"
	"github.com/spboyer/modelrank/internal/warehouse"
	"github.com/spboyer/modelrank/internal/webapi"
	"github.com/spboyer/modelrank/internal/webserver"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr        string
	allowRemote bool
	corsOrigins []string
	noRefresh   bool
	open        bool
}

func newServeCommand(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Long: `Start an HTTP server with a recommendation form at / and a JSON API.

Endpoints:
  GET  /api/health     Liveness and version
  POST /api/recommend  Rank models; the body carries task_text and optional
                       topk, max_price_per_1m, min_context,
                       provider_allowlist, missing_policy, refresh and
                       max_age_hours

The server binds to loopback by default. Use --allow-remote to bind to all
interfaces. Stale data is refreshed on demand; concurrent requests share a
single refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wh, err := openWarehouse(ctx, cfg)
			if err != nil {
				return err
			}
			defer wh.Close() //nolint:errcheck

			srv, err := newServer(cmd, cfg, wh, opts)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "Address to listen on (default: server.addr)")
	cmd.Flags().BoolVar(&opts.allowRemote, "allow-remote", false,
		"Allow binding to non-loopback addresses (WARNING: exposes the server to the network with no authentication)")
	cmd.Flags().StringSliceVar(&opts.corsOrigins, "cors-origin", nil, "Origins allowed to call the API cross-site (default: server.allowed_origins)")
	cmd.Flags().BoolVar(&opts.noRefresh, "no-refresh", false, "Never ingest; rank whatever is stored")
	cmd.Flags().BoolVar(&opts.open, "open", false, "Open the form in a browser once the server is up")

	return cmd
}

// newServer wires the warehouse, a shared refresher and the orchestrator
// into an HTTP server.
func newServer(cmd *cobra.Command, cfg *projectconfig.ProjectConfig, wh *warehouse.Warehouse, opts *serveOptions) (*webserver.Server, error) {
	policy, err := taskprofile.ParseMissingPolicy(cfg.Recommend.MissingPolicy)
	if err != nil {
		return nil, err
	}

	var refresher recommend.Refresher
	if !opts.noRefresh {
		pipeline, err := newPipeline(cfg, wh, "", false)
		if err != nil {
			return nil, err
		}
		refresher = recommend.NewSharedRefresher(pipeline)
	}
	orch := recommend.NewOrchestrator(wh, refresher, recommend.WithMaxAge(cfg.MaxAge()))

	addr := cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = opts.addr
	}
	origins := cfg.Server.AllowedOrigins
	if cmd.Flags().Changed("cors-origin") {
		origins = opts.corsOrigins
	}

	webapi.Version = version
	return webserver.New(webserver.Config{
		Addr:        resolveListenAddr(addr, opts.allowRemote, slog.Default()),
		Recommender: orch,
		Defaults: webapi.Defaults{
			TopK:          cfg.Recommend.TopK,
			MissingPolicy: policy,
		},
		AllowedOrigins: origins,
		OpenBrowser:    opts.open,
	})
}

// resolveListenAddr ensures addresses default to loopback unless
// --allow-remote is set.
func resolveListenAddr(addr string, allowRemote bool, logger *slog.Logger) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// Likely just a port like "8000"; treat as ":8000".
		host = ""
		port = addr
	}

	if allowRemote {
		logger.Warn("HTTP server binding without loopback restriction; no authentication is provided",
			"address", addr)
		if host == "" {
			return net.JoinHostPort("", port)
		}
		return addr
	}

	// Default to loopback if no host specified or if 0.0.0.0/:: is used without --allow-remote.
	if host == "" || host == "0.0.0.0" || host == "::" {
		logger.Info("HTTP server listening on loopback only", "requested", addr)
		return net.JoinHostPort("127.0.0.1", port)
	}

	return addr
}
