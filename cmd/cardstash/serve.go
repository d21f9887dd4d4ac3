package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cardstash/cardstash/internal/api"
	"github.com/cardstash/cardstash/internal/card"
	"github.com/cardstash/cardstash/internal/classify"
	"github.com/cardstash/cardstash/internal/config"
	"github.com/cardstash/cardstash/internal/scrape"
	"github.com/cardstash/cardstash/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background enrichment workers",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	setupLogging()
	cfg := config.Load()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	// Cards left processing by a previous run have no task attached
	// anymore; reset them so they can be retried.
	if n, err := st.ResetStaleProcessing(context.Background()); err != nil {
		slog.Warn("reset stale processing", "error", err)
	} else if n > 0 {
		slog.Info("reset stale processing cards", "count", n)
	}

	band := classify.TagBand{Min: cfg.MinTags, Max: cfg.MaxTags}
	var primary classify.ModelClassifier
	if cfg.AIEnabled() {
		slog.Info("AI classification enabled", "model", cfg.OpenAIModel)
		primary = classify.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIBaseURL, band,
			classify.WithModels(cfg.OpenAIModel, cfg.OpenAIVisionModel))
	} else {
		slog.Info("OPENAI_API_KEY not set, classification uses the deterministic fallback")
	}
	classifier := classify.NewService(primary, band)

	registry := scrape.NewRegistry(&http.Client{Timeout: cfg.HTTPTimeout})

	cards := card.NewService(st, registry, classifier, card.Options{
		Workers:    cfg.EnrichWorkers,
		StuckAfter: cfg.StuckAfter,
	})

	srv := api.New(cards, st, api.Options{
		AIEnabled:  cfg.AIEnabled(),
		CORSOrigin: cfg.CORSOrigin,
	})
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		httpServer.Shutdown(context.Background())
	}()

	slog.Info("cardstash server listening", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	// Let in-flight enrichment land before the store closes.
	cards.Wait()
	return nil
}
