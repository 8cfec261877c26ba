package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docflow-labs/docflow/internal/bootstrap"
	"github.com/docflow-labs/docflow/internal/config"
	"github.com/docflow-labs/docflow/internal/core/domain"
	"github.com/docflow-labs/docflow/internal/observability/metrics"
)

const serviceName = "docflow-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:         ":" + cfg.WorkerMetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	go runReconcileLoop(ctx, app, workerMetrics, cfg.ReconcileIntervalSeconds)

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Stream.SubscribeTransitions(ctx, func(_ context.Context, event domain.LifecycleEvent) error {
		workerMetrics.ObserveEvent(serviceName, string(event.Status))
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker metrics shutdown error: %v", err)
	}
}

func runReconcileLoop(ctx context.Context, app *bootstrap.App, m *metrics.WorkerMetrics, intervalSeconds int) {
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	ticker := time.NewTicker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			start := time.Now()
			repaired, err := app.ReconcileUC.Sweep(sweepCtx)
			cancel()
			m.FinishSweep(serviceName, time.Since(start), repaired, err)
			if err != nil {
				log.Printf("reconcile sweep error: %v", err)
				continue
			}
			if repaired > 0 {
				log.Printf("reconcile sweep repaired %d document(s)", repaired)
			}
		}
	}
}
