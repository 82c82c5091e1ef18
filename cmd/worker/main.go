// Command worker consumes submission evaluation jobs from the queue,
// scores them, and maintains the leaderboard.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ragarena/arena/infrastructure/agent"
	"github.com/ragarena/arena/infrastructure/judges"
	"github.com/ragarena/arena/infrastructure/llm"
	"github.com/ragarena/arena/infrastructure/metrics"
	"github.com/ragarena/arena/infrastructure/storage"
	"github.com/ragarena/arena/infrastructure/storage/migrations"
	"github.com/ragarena/arena/internal/application"
	"github.com/ragarena/arena/internal/config"
	"github.com/ragarena/arena/internal/golden"
	"github.com/ragarena/arena/internal/leaderboard"
	"github.com/ragarena/arena/internal/ports"
	"github.com/ragarena/arena/internal/worker"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	registry, err := golden.Default()
	if err != nil {
		return err
	}

	collector := metrics.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	go serveMetrics(cfg.Metrics.Addr, logger)

	// The grading LLM is optional: without a key the judges fall back
	// to rule-based grading.
	var grader ports.LLMClient
	if cfg.LLM.APIKey != "" {
		grader = llm.NewLazyClient(cfg.LLM.Provider, llm.ClientConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.Timeout,
			Middleware: []llm.Middleware{
				llm.RateLimitMiddleware(rate.Limit(cfg.LLM.RequestsPerSecond), cfg.LLM.Burst),
				llm.MetricsMiddleware(collector),
			},
		})
		logger.Info("LLM judge enabled",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", cfg.LLM.Model))
	} else {
		logger.Info("no LLM credentials configured, judging with deterministic rules")
	}

	judgeConfig := judges.Config{
		Strictness:  judges.Strictness(cfg.Judge.Strictness),
		Temperature: cfg.Judge.Temperature,
		MaxTokens:   cfg.Judge.MaxTokens,
	}
	factcheck, err := judges.NewFactCheckJudge("factcheck-judge", grader, collector, judgeConfig)
	if err != nil {
		return err
	}
	legal, err := judges.NewLegalJudge("legal-judge", grader, collector, judgeConfig)
	if err != nil {
		return err
	}

	aggregator, err := application.NewAggregator(application.AggregatorConfig{
		CombineRule: application.CombineRule(cfg.Judge.CombineRule),
	})
	if err != nil {
		return err
	}

	invoker, err := agent.NewHTTPInvoker(agent.HTTPConfig{
		EndpointURL: cfg.Agent.EndpointURL,
		KBSearchURL: cfg.Agent.KBSearchURL,
		Timeout:     cfg.Agent.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	if err := migrations.Run(cfg.Database.DSN); err != nil {
		return err
	}
	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	updater, err := leaderboard.NewUpdater(storage.NewPostgresLeaderboardStore(db), logger)
	if err != nil {
		return err
	}

	orchestrator, err := application.NewOrchestrator(
		registry,
		[]ports.Judge{factcheck, legal},
		aggregator,
		invoker,
		storage.NewPostgresEvaluationStore(db),
		updater,
		application.OrchestratorConfig{AgentTimeout: cfg.Agent.Timeout},
		logger,
		collector,
	)
	if err != nil {
		return err
	}

	server, err := worker.NewServer(orchestrator, logger, cfg.Worker.Concurrency)
	if err != nil {
		return err
	}

	logger.Info("worker starting",
		zap.String("redis", cfg.Redis.Addr),
		zap.Int("concurrency", cfg.Worker.Concurrency))
	return server.Run(cfg.Redis.Addr)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics endpoint stopped", zap.Error(err))
	}
}
