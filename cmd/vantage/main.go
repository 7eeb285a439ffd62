// Command vantage runs the query-processing engine as a single binary: it
// loads configuration, constructs every capability port from it, wires the
// orchestrator, and serves Search/StreamSearch over HTTP. Grounded on
// examples/deployment/single_binary's Config/App/lifecycle shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/attach"
	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/graphexpand"
	"github.com/HalfBloodPrince07/Vantage-sub000/ingest"
	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/memory"
	memstore "github.com/HalfBloodPrince07/Vantage-sub000/memory/stores/inmemory"
	"github.com/HalfBloodPrince07/Vantage-sub000/orchestrator"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/retriever"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/retriever/providers/bm25"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/server"
	docstore "github.com/HalfBloodPrince07/Vantage-sub000/store"
	docstoreinmem "github.com/HalfBloodPrince07/Vantage-sub000/store/providers/inmemory"

	_ "github.com/HalfBloodPrince07/Vantage-sub000/llm/providers/ollama"
	_ "github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding/providers/ollama"
	_ "github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore/providers/inmemory"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadConfig(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	engine, pipeline, err := buildEngine(logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	adapter, err := server.New("stdlib", server.Config{})
	if err != nil {
		logger.Error("failed to construct server adapter", "error", err)
		os.Exit(1)
	}
	if err := adapter.RegisterEngine("/search", engine); err != nil {
		logger.Error("failed to register engine", "error", err)
		os.Exit(1)
	}
	if err := registerIngestHandlers(adapter, pipeline); err != nil {
		logger.Error("failed to register ingest handlers", "error", err)
		os.Exit(1)
	}

	addr := ":" + getEnv("PORT", "8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go pipeline.RunFailureQueue(ctx)

	if root := getEnv("VANTAGE_INGEST_DIR", ""); root != "" {
		go runInitialIngest(ctx, logger, pipeline, root)
		go runWatch(ctx, logger, pipeline, root)
	}

	logger.Info("starting vantage", "version", version, "build_time", buildTime, "addr", addr)
	if err := adapter.Serve(ctx, addr); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := adapter.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// buildEngine constructs every capability port from config.Cfg and composes
// them into an orchestrator.Engine satisfying server.Engine, alongside the
// ingest.Pipeline sharing the same document store, graph, vector store,
// embedder, and chat model.
func buildEngine(logger *slog.Logger) (*orchestrator.Engine, *ingest.Pipeline, error) {
	cfg := config.Cfg

	embedModel := getEnv("VANTAGE_EMBED_MODEL", "nomic-embed-text")
	embedder, err := embedding.New("ollama", config.ProviderConfig{
		Provider: "ollama",
		Model:    embedModel,
		Timeout:  time.Duration(cfg.LLM.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("construct embedder: %w", err)
	}

	vstore, err := vectorstore.New("inmemory", config.ProviderConfig{Provider: "inmemory"})
	if err != nil {
		return nil, nil, fmt.Errorf("construct vector store: %w", err)
	}

	model, err := llm.New("ollama", config.ProviderConfig{
		Provider: "ollama",
		Model:    cfg.LLM.UnifiedModel,
		Timeout:  time.Duration(cfg.LLM.TimeoutMS) * time.Millisecond,
		Options: map[string]any{
			"temperature": cfg.LLM.Temperature,
			"max_tokens":  cfg.LLM.MaxTokens,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("construct chat model: %w", err)
	}

	lexical := bm25.New()

	hybrid := retriever.NewHybridRetriever(vstore, embedder, lexical)

	sessionStore := memstore.NewSessionStore()
	episodeStore := memstore.NewEpisodeStore()
	proceduralStore := memstore.NewProceduralStore()
	graphStore := memstore.NewGraphStore()

	session := memory.NewSession(sessionStore, memory.WithSessionWindow(cfg.Memory.Session.WindowSize))
	episodic, err := memory.NewEpisodic(episodeStore, embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("construct episodic tier: %w", err)
	}
	procedural := memory.NewProcedural(proceduralStore)

	coordinator, err := memory.NewCoordinator(session, episodic, procedural, memory.WithCoordinatorGraph(graphStore))
	if err != nil {
		return nil, nil, fmt.Errorf("construct memory coordinator: %w", err)
	}

	expander := graphexpand.New(graphStore)

	var docs docstore.Store = docstoreinmem.New()
	attachPipeline, err := attach.New(
		attach.NewStoreLoader(docs),
		attach.NewLLMAnalyzer(model),
		model,
		nil,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("construct attach pipeline: %w", err)
	}

	orch, err := orchestrator.New(hybrid, model, coordinator,
		orchestrator.WithExpander(expander),
		orchestrator.WithAttachPipeline(attachPipeline),
		orchestrator.WithNodeTimeout(time.Duration(cfg.Workflow.NodeTimeoutMS)*time.Millisecond),
		orchestrator.WithTotalTimeout(time.Duration(cfg.Workflow.TimeoutMS)*time.Millisecond),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("construct orchestrator: %w", err)
	}

	pipeline, err := ingest.New(docs, graphStore, vstore, embedder, model,
		ingest.WithEmbedderModel(embedModel),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("construct ingest pipeline: %w", err)
	}

	logger.Info("engine constructed", "embedder", "ollama", "vectorstore", "inmemory", "llm", "ollama")
	return orchestrator.NewEngine(orch), pipeline, nil
}

// runInitialIngest walks root once at startup, logging the final report.
func runInitialIngest(ctx context.Context, logger *slog.Logger, pipeline *ingest.Pipeline, root string) {
	progress, report := pipeline.Ingest(ctx, root)
	for p := range progress {
		if p.Status == ingest.StatusFailed {
			logger.Warn("ingest failed", "file", p.CurrentFile, "stage", p.Stage, "error", p.Err)
		}
	}
	r := report()
	logger.Info("initial ingest complete", "success", r.Success, "skipped", r.Skipped, "failed", r.Failed)
}

// runWatch starts the directory watcher for root until ctx is cancelled.
func runWatch(ctx context.Context, logger *slog.Logger, pipeline *ingest.Pipeline, root string) {
	w := ingest.NewWatcher(pipeline, ingest.WithLogger(logger))
	if err := w.Watch(ctx, root); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ingest watcher exited", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
