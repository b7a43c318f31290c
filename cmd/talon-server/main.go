// Command talon-server runs the Talon chat API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"talon/internal/agent"
	"talon/internal/config"
	talonerrors "talon/internal/errors"
	"talon/internal/llm"
	"talon/internal/logging"
	"talon/internal/metrics"
	"talon/internal/server"
	"talon/internal/store"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "talon-server",
		Short: "Talon automotive chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Configure(os.Stderr, logging.ParseLevel(cfg.Log.Level))
	logger := logging.NewComponentLogger("main")
	logger.Info("starting talon-server")
	logger.Info("model: %s, addr: %s, db: %s", cfg.LLM.Model, cfg.Server.Addr, cfg.Memory.DBPath)

	backing, err := store.NewSQLiteStore(cfg.Memory.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := backing.Close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}()

	client, err := llm.NewAnthropicClient(cfg.LLM.Model, llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.TimeoutSeconds,
	})
	if err != nil {
		return fmt.Errorf("building llm client: %w", err)
	}
	retryCfg := talonerrors.DefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.LLM.MaxRetries
	}
	client = llm.NewRetryClient(client, retryCfg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	runtime := agent.NewRuntime(client, backing, agent.Options{
		Metrics:              metrics.New(registry),
		Logger:               logging.NewComponentLogger("agent"),
		PlannerMaxIterations: cfg.Agent.PlannerMaxIterations,
		LoopMaxIterations:    cfg.Agent.LoopMaxIterations,
		MemoryRecallLimit:    cfg.Agent.MemoryRecallLimit,
		Retention: store.RetentionPolicy{
			MaxPerUser: cfg.Memory.MaxPerUser,
			Window:     time.Duration(cfg.Memory.RetentionDays) * 24 * time.Hour,
		},
	})

	srv := server.New(runtime, backing, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Debug:          cfg.Server.Debug,
		Logger:         logging.NewComponentLogger("http"),
		Gatherer:       registry,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
