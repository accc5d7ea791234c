package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/timeweaver-api/internal/config"
	"github.com/timeweaver-api/internal/infrastructure/dynamo"
	"github.com/timeweaver-api/internal/infrastructure/genai"
	jwtinfra "github.com/timeweaver-api/internal/infrastructure/jwt"
	"github.com/timeweaver-api/internal/infrastructure/localstore"
	"github.com/timeweaver-api/internal/logger"
	"github.com/timeweaver-api/internal/realtime"
	"github.com/timeweaver-api/internal/scheduler"
	transporthttp "github.com/timeweaver-api/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	logr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	hub := realtime.NewHub()
	generator := genai.NewClient(cfg)

	deps := &transporthttp.Deps{Hub: hub}
	var sched *scheduler.Scheduler

	switch cfg.TimerStore {
	case config.StoreDynamo:
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoTables, logr)

		jwtProvider, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			logr.Fatal("jwt provider", zap.Error(err))
		}

		timerRepo := dynamo.NewTimerRepo(client, cfg.DynamoTables.Timers)
		notifRepo := dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications)

		deps.TimerRepo = timerRepo
		deps.NotificationRepo = notifRepo
		deps.UserRepo = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
		deps.SessionRepo = dynamo.NewSessionRepo(client, cfg.DynamoTables.Sessions)
		deps.JWTProvider = jwtProvider

		sched = scheduler.New(timerRepo, notifRepo, generator, hub, cfg.GenAITimeout, logr)

	default:
		store, err := localstore.NewTimerStore(cfg.SnapshotPath, logr)
		if err != nil {
			logr.Fatal("local timer store", zap.Error(err))
		}
		notifStore := localstore.NewNotificationStore()

		deps.TimerRepo = store
		deps.NotificationRepo = notifStore

		sched = scheduler.New(store, notifStore, generator, hub, cfg.GenAITimeout, logr)
	}
	deps.Scheduler = sched

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sched.Run(ctx)

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: event-stream connections stay open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.String("store", cfg.TimerStore),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Fatal("forced shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}
