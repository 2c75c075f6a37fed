package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignite/subscription-intake/internal/api"
	"github.com/ignite/subscription-intake/internal/config"
	"github.com/ignite/subscription-intake/internal/metrics"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
	"github.com/ignite/subscription-intake/internal/service/subscription"
)

const version = "1.0.0"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetService("subscription-intake")
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	ctx := context.Background()

	store, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize directory store: %v", err)
	}
	defer closeStore()

	transport, err := buildTransport(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	mailer, err := buildMailer(transport, cfg.Notify)
	if err != nil {
		log.Fatalf("Failed to load email templates: %v", err)
	}
	if cfg.Notify.AdminEmail == "" {
		logger.Warn("notify.admin_email not set; admin notices will fail")
	}

	fallback, journalPinger, closeJournal := buildJournal(ctx, cfg.Journal)
	defer closeJournal()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := subscription.NewService(store, mailer,
		subscription.WithJournal(fallback),
		subscription.WithRecorder(metrics.New(reg)),
	)

	router := api.SetupRoutes(api.RouterConfig{
		Handlers:       api.NewHandlers(svc),
		Health:         api.NewHealthChecker(store, journalPinger, version),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("subscription intake listening",
			"addr", addr,
			"storage", cfg.Storage.Type,
			"notify", transport.Name(),
			"version", version,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	// Let in-flight notifications and journal writes finish.
	drained := make(chan struct{})
	go func() {
		svc.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		logger.Info("detached tasks drained")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout with detached tasks still running")
	}
}
