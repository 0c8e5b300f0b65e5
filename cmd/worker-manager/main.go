package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rag-brand-guard/internal/common/camunda"
	"rag-brand-guard/internal/common/config"
	"rag-brand-guard/internal/common/logger"
	"rag-brand-guard/internal/common/observability"

	aq "rag-brand-guard/internal/workers/rag/answer-question"
	eq "rag-brand-guard/internal/workers/rag/enhance-query"
	evq "rag-brand-guard/internal/workers/rag/evaluate-quality"
	ic "rag-brand-guard/internal/workers/rag/index-corpus"
	nt "rag-brand-guard/internal/workers/rag/normalize-text"
	qb "rag-brand-guard/internal/workers/rag/query-backend"
	vr "rag-brand-guard/internal/workers/rag/validate-response"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker-manager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog, err := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer zapLog.Sync()

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.App.Version,
		TracingEnabled: cfg.Observability.TracingEnabled,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("observability init failed: %w", err)
	}
	defer obs.Shutdown(context.Background())

	svc, err := buildServices(ctx, cfg, zapLog, obs)
	if err != nil {
		return err
	}
	defer svc.close()

	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            camunda.DefaultRetryConfig,
	}, zapLog)
	if err != nil {
		return fmt.Errorf("zeebe connection failed: %w", err)
	}
	defer zeebe.Close()

	workers := camunda.NewWorkers(zeebe.Zeebe(), zapLog)
	registerWorkers(workers, svc)
	zapLog.Info("workers registered", zap.Int("count", workers.Count()))

	server := healthServer(cfg.App.HealthPort, zeebe, svc)
	go func() {
		zapLog.Info("health server listening", zap.Int("port", cfg.App.HealthPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("health server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutdown signal received, stopping workers")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	workers.Close(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("health server shutdown", zap.Error(err))
	}
	zapLog.Info("worker manager stopped")
	return nil
}

func registerWorkers(workers *camunda.Workers, svc *services) {
	cfg, log, obs, core := svc.cfg, svc.log, svc.obs, svc.core

	start := func(taskType string, handler worker.JobHandler) {
		workers.Start(taskType, config.GetWorkerConfig(cfg, taskType), handler)
	}

	start(nt.TaskType, nt.NewHandler(nt.NewConfig(cfg), core.Normalizer, log, obs).Handle)
	start(eq.TaskType, eq.NewHandler(eq.NewConfig(cfg), core, log, obs).Handle)
	start(qb.TaskType, qb.NewHandler(qb.NewConfig(cfg), svc.backend, core.Enhancer.DefaultConfig(), log, obs).Handle)
	start(evq.TaskType, evq.NewHandler(evq.NewConfig(cfg), core, cfg.Enhancement.EnableWidening, log, obs).Handle)
	start(vr.TaskType, vr.NewHandler(vr.NewConfig(cfg), core.Validator, log, obs).Handle)
	start(aq.TaskType, aq.NewHandler(aq.NewConfig(cfg), svc.orchestrator, log, obs).Handle)

	if svc.indexer != nil {
		start(ic.TaskType, ic.NewHandler(ic.NewConfig(cfg), svc.indexer, log, obs).Handle)
	}
}

func healthServer(port int, zeebe *camunda.Client, svc *services) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := zeebe.HealthCheck(ctx)
		if err == nil {
			err = svc.ready(ctx)
		}
		if err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status":          "ready",
			"registryVersion": svc.core.Catalog.Version(),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
