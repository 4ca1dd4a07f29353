// Command recalld runs the Recall memory service: an HTTP and WebSocket
// surface over the per-turn memory lifecycle engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/recallengine/recall/internal/config"
	"github.com/recallengine/recall/internal/engine"
	"github.com/recallengine/recall/internal/llm"
	"github.com/recallengine/recall/internal/server"
	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/internal/storage/postgres"
	"github.com/recallengine/recall/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: $RECALL_CONFIG_FILE)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	caller, err := llm.NewModelCaller(llm.Config{
		Provider:          cfg.LLM.Provider,
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	})
	if err != nil {
		log.Fatalf("Failed to initialize model provider: %v", err)
	}
	log.Printf("recalld: using %s via %s", caller.Model(), cfg.LLM.Provider)

	controller := engine.NewController(store, caller, engineParams(cfg))
	srv := server.New(controller, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("recalld: shutdown complete")
}

func openStore(cfg *config.Config) (storage.MemoryStore, error) {
	opts := storage.Options{
		MergeThreshold:  cfg.Storage.MergeThreshold,
		MergeDecayFloor: cfg.Storage.MergeDecayFloor,
	}
	switch cfg.Storage.Engine {
	case "postgres":
		return postgres.NewMemoryStore(cfg.Storage.PostgresDSN, opts)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return sqlite.NewMemoryStore(filepath.Join(cfg.Storage.DataPath, "recall.db"), opts)
	}
}

func engineParams(cfg *config.Config) engine.Params {
	return engine.Params{
		ConfidenceFloor:     cfg.Engine.ConfidenceFloor,
		RetrievalCutoff:     cfg.Engine.RetrievalCutoff,
		DecayBase:           cfg.Engine.DecayBase,
		DecayHorizon:        cfg.Engine.DecayHorizon,
		DecayFloor:          cfg.Engine.DecayFloor,
		KeyMatchBonus:       cfg.Engine.KeyMatchBonus,
		TopK:                cfg.Engine.TopK,
		FetchLimit:          cfg.Engine.FetchLimit,
		ExtractionCacheSize: cfg.Engine.ExtractionCacheSize,
		ModelIntentFallback: cfg.Engine.ModelIntentFallback,
	}
}
