package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/healthagent/health-agent-server/internal/api"
	"github.com/healthagent/health-agent-server/internal/config"
	"github.com/healthagent/health-agent-server/internal/db"
	"github.com/healthagent/health-agent-server/internal/gemini"
	"github.com/healthagent/health-agent-server/internal/intent"
	"github.com/healthagent/health-agent-server/internal/plans"
	redisclient "github.com/healthagent/health-agent-server/internal/redis"
	"github.com/healthagent/health-agent-server/internal/schedule"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()
	log.Println("connected to redis")

	geminiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("failed to create gemini client: %v", err)
	}
	defer geminiClient.Close()

	store := schedule.NewPgStore(pgPool)
	locker := redisclient.NewRedisIntervalLocker(rdb, cfg.LockTTL)
	slots := schedule.NewSlotGenerator(store, cfg.SlotMinutes)
	scheduler := schedule.NewService(store, locker, slots, schedule.BookingPolicy{
		AutoConfirm: cfg.AutoConfirm,
	})

	router := api.NewRouter(
		api.NewHealthHandler(pgPool, rdb, cfg.Env, version),
		api.NewIntentHandler(intent.NewResolver(geminiClient)),
		api.NewPlanHandler(plans.NewPipeline(geminiClient)),
		api.NewScheduleHandler(scheduler),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("api server listening on :%s env=%s", cfg.HTTPPort, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
