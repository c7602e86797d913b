package serve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapestry-tools/tapestry/internal/api"
	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var addr string

// ServeCmd represents the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversation index over HTTP",
	Long: `Run a local HTTP server exposing conversations, ranked search, turn
groupings, and branch structure as JSON, for external frontends.

Endpoints:
  GET /health
  GET /api/v1/conversations
  GET /api/v1/conversations/{id}/turns?branch=&gap_minutes=
  GET /api/v1/conversations/{id}/branches
  GET /api/v1/search?q=&vendor=&role=&from=&to=&source=&regex=&title_body=`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8787)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	listenAddr := cfg.Serve.Addr
	if addr != "" {
		listenAddr = addr
	}

	engine := search.NewEngine(db,
		search.WithSourceRelax(cfg.Search.RelaxSources),
		search.WithMaxResults(cfg.Search.MaxResults))
	server := api.NewServer(engine, logger, cfg.TurnGap())
	fmt.Printf("Serving on http://%s\n", listenAddr)
	return server.Start(listenAddr)
}
