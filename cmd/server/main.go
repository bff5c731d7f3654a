package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"peter-ai/internal/adapter/gateway"
	"peter-ai/internal/adapter/llm"
	"peter-ai/internal/adapter/search"
	"peter-ai/internal/infra/config"
	"peter-ai/internal/infra/logger"
	"peter-ai/internal/infra/tracer"
	"peter-ai/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(context.Background())

	// 3. Search pipeline
	fetcher := search.NewHTTPFetcher(log)
	agg := search.NewAggregator(fetcher, log)
	backend := search.NewDuckDuckGoBackend(log)
	searchSvc := search.NewService(backend, agg, cfg.Search.Region, log)

	// 4. Generation
	provider := llm.NewOpenAIProvider(cfg.LLM, log)
	guarded := llm.NewCircuitBreakerProvider(provider, llm.CircuitBreakerConfig{}, log)

	// 5. Usecase + gateway
	chat := usecase.NewChat(usecase.ChatDeps{
		LLM:    guarded,
		Search: searchSvc,
		Logger: log,
	})
	srv := gateway.NewServer(chat, cfg.Server.Addr, log)

	log.Info("starting server", "addr", cfg.Server.Addr, "model", cfg.LLM.Model)
	return srv.Start(ctx)
}
