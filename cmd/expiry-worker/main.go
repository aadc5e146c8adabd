package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthagent/health-agent-server/internal/config"
	"github.com/healthagent/health-agent-server/internal/db"
	redisclient "github.com/healthagent/health-agent-server/internal/redis"
	"github.com/healthagent/health-agent-server/internal/schedule"
)

// The expiry worker cancels PENDING appointments that were never confirmed
// before their scheduled time, so their slots become bookable again.
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

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	store := schedule.NewPgStore(pgPool)
	locker := redisclient.NewRedisIntervalLocker(rdb, cfg.LockTTL)
	slots := schedule.NewSlotGenerator(store, cfg.SlotMinutes)
	svc := schedule.NewService(store, locker, slots, schedule.BookingPolicy{})

	log.Printf("expiry worker running every %s", cfg.WorkerInterval)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	runOnce(ctx, svc)

	for {
		select {
		case <-ctx.Done():
			log.Println("expiry worker shutting down")
			return
		case <-ticker.C:
			runOnce(ctx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *schedule.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := svc.ExpireOverduePending(runCtx); err != nil {
		log.Printf("expiry pass failed: %v", err)
	}
}
