package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/u1kamal/petpulse-backend/config"
	"github.com/u1kamal/petpulse-backend/internal/api"
	"github.com/u1kamal/petpulse-backend/internal/dispatch"
	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/notification"
	"github.com/u1kamal/petpulse-backend/internal/persist"
	"github.com/u1kamal/petpulse-backend/internal/sched"
	"github.com/u1kamal/petpulse-backend/internal/store"
	"github.com/u1kamal/petpulse-backend/internal/telemetry"
	"github.com/u1kamal/petpulse-backend/internal/transport"
)

func main() {
	logger := log.New(os.Stdout, "petpulse ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		logger.Fatalf("failed to create data directory %s: %v", cfg.Storage.DataDir, err)
	}

	schedules := persist.NewDocument[model.Schedule](cfg.Storage.SchedulesPath())
	history := persist.NewDocument[model.HistoryEntry](cfg.Storage.HistoryPath())
	subscriptions := persist.NewDocument[model.PushSubscription](cfg.Storage.SubscriptionsPath())

	appStore := store.NewMemStore()
	logger.Println("device state store initialized")

	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Println("VAPID keys are not configured; push deliveries will fail and be logged")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, subscriptions, webpushOptions)
	workerPool.Start(ctx)

	ingest := telemetry.NewService(appStore, workerPool)
	mqttClient := transport.Connect(&cfg.MQTT, telemetry.StatusTopicFilter, ingest.HandleMessage)

	dispatcher := dispatch.New(appStore, history, mqttClient)

	scheduler, err := sched.NewService(schedules, dispatcher)
	if err != nil {
		logger.Fatalf("failed to create scheduler: %v", err)
	}
	if err := scheduler.RestoreAll(); err != nil {
		logger.Fatalf("failed to restore schedules: %v", err)
	}
	scheduler.Start()

	handler := api.NewHandler(appStore, dispatcher, scheduler, history, subscriptions, webpushOptions, mqttClient)
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		logger.Printf("scheduler shutdown: %v", err)
	}
	mqttClient.Disconnect()

	logger.Println("Server gracefully stopped")
}
