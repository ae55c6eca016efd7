package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mlarcher/pageproof/internal/api"
	"github.com/mlarcher/pageproof/internal/config"
	"github.com/mlarcher/pageproof/internal/pipeline"
	"github.com/mlarcher/pageproof/internal/render"
	"github.com/mlarcher/pageproof/internal/resolve"
	"github.com/mlarcher/pageproof/internal/stylesheet"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the rendering oracle.
	var oracle render.Oracle
	switch cfg.OracleMode {
	case "http":
		oracle = render.NewHTTPOracle(cfg.OracleURL, cfg.OracleAPIKey, cfg.RenderTimeout)
	default:
		oracle = render.NewFlowOracle(render.FlowConfig{})
	}
	stats := render.NewStats(cfg.StatsWindow)
	oracle = render.Instrument(render.Limit(oracle, int64(cfg.MaxInflightRenders), cfg.RenderTimeout), stats)

	composer := stylesheet.NewComposer(stylesheet.NewCache())
	resolver := resolve.New(oracle, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, composer, resolver, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, composer, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting pageproof", "port", cfg.Port, "oracle_mode", cfg.OracleMode)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
