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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"specforge.app/specforge/common/id"
	"specforge.app/specforge/common/llm"
	"specforge.app/specforge/common/logger"
	"specforge.app/specforge/common/otel"
	"specforge.app/specforge/core/config"
	"specforge.app/specforge/core/db"
	"specforge.app/specforge/internal/cache"
	"specforge.app/specforge/internal/http/handler"
	"specforge.app/specforge/internal/http/router"
	"specforge.app/specforge/internal/pipeline"
	"specforge.app/specforge/internal/provider"
	"specforge.app/specforge/internal/specerr"
	"specforge.app/specforge/internal/store"
	"specforge.app/specforge/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := config.Load()
	logger.Setup(cfg)
	slog.Info("specforge starting", "env", cfg.Env)

	tel, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	if tel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				slog.Error("otel shutdown", "error", err)
			}
		}()
	}

	if err := id.Init(1); err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}

	svc := &specService{cfg: cfg}

	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		svc.runs = store.NewRunStore(database)
		slog.Info("run history enabled")
	}

	if cfg.Redis.Enabled() {
		extractionCache, err := cache.New(cfg.Redis.URL, time.Duration(cfg.Redis.TTL)*time.Second)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer extractionCache.Close()
		svc.cache = extractionCache
		slog.Info("extraction cache enabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if tel != nil {
		engine.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.SetupRoutes(engine, handler.NewSpecHandler(svc))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		slog.Info("specforge http server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("specforge http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// specService assembles one pipeline run per request. Each run gets its own
// run ID, telemetry sink and provider so concurrent requests never share
// mutable state.
type specService struct {
	cfg   config.Config
	runs  store.RunStore
	cache *cache.ExtractionCache
}

func (s *specService) Generate(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error) {
	started := time.Now().UTC()
	runID := id.New()
	req.RunID = runID

	var sink telemetry.Sink = telemetry.Nop{}
	if s.cfg.Telemetry.Enabled() {
		sink = telemetry.NewJSONLSink(s.cfg.Telemetry.Dir)
	}
	counting := telemetry.NewCounting(sink)

	prov, err := s.buildProvider(counting, runID)
	if err != nil {
		return nil, err
	}

	outcome, genErr := pipeline.NewRunner(prov).Generate(ctx, req)
	s.record(ctx, counting, started, runID, prov.Name(), outcome, genErr)
	return outcome, genErr
}

func (s *specService) buildProvider(sink telemetry.Sink, runID int64) (provider.Provider, error) {
	var prov provider.Provider
	if s.cfg.LLM.Enabled() {
		client, err := llm.New(llm.Config{
			Provider: s.cfg.LLM.Provider,
			APIKey:   s.cfg.LLM.APIKey,
			BaseURL:  s.cfg.LLM.BaseURL,
			Model:    s.cfg.LLM.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating llm client: %w", err)
		}
		prov = provider.NewLLM(client, sink, runID)
	} else {
		prov = provider.NewLocal()
	}

	if s.cache != nil {
		return cache.Wrap(prov, s.cache), nil
	}
	return prov, nil
}

// record emits the run summary and, when configured, the history row.
// Neither may fail the request.
func (s *specService) record(ctx context.Context, sink *telemetry.Counting, started time.Time,
	runID int64, providerName string, outcome *pipeline.Outcome, genErr error) {

	result := "success"
	if genErr != nil {
		result = "error"
	}
	questionsAsked := 0
	if outcome != nil {
		questionsAsked = outcome.QuestionsAsked
	}

	sink.LogRun(telemetry.RunSummary{
		RunID:          runID,
		Timestamp:      started,
		Mode:           "non-interactive",
		Result:         result,
		ExitCode:       specerr.ExitCode(genErr),
		QuestionsAsked: questionsAsked,
	})

	if s.runs == nil {
		return
	}
	tokens, costUSD, latencyMS := sink.Totals()
	record := store.RunRecord{
		ID:               runID,
		StartedAt:        started,
		Mode:             "non-interactive",
		Provider:         providerName,
		Model:            s.cfg.LLM.Model,
		Result:           result,
		ExitCode:         specerr.ExitCode(genErr),
		QuestionsAsked:   questionsAsked,
		TotalTokens:      int64(tokens),
		EstimatedCostUSD: costUSD,
		TotalLatencyMS:   latencyMS,
	}
	go func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.runs.Save(saveCtx, record); err != nil {
			slog.Warn("run history write failed", "run_id", runID, "error", err)
		}
	}()
}
