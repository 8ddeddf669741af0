package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/aigen"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/config"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/db"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/history"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/httpapi"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/stats"
	"github.com/linzhe2090468983-la/AI-PICTURE2/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	if err := db.AutoMigrate(gdb); err != nil {
		log.Fatalf("automigrate: %v", err)
	}

	var cache history.RecentCache = history.NewMemoryCache()
	if strings.ToLower(cfg.CacheBackend) == "redis" {
		cache = redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		log.Printf("event=cache_backend backend=redis addr=%s", cfg.RedisAddr)
	}

	reg := aigen.NewRegistry()
	reg.Register("tongyi", func(ctx context.Context) (aigen.Provider, error) {
		return aigen.NewTongyiProvider(
			cfg.DashScopeBaseURL,
			cfg.DashScopeAPIKey,
			cfg.PollInterval,
			cfg.PollMaxAttempts,
		), nil
	})

	repo := history.NewRepo(gdb)
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour

	sched := stats.NewScheduler(stats.NewService(gdb))
	sched.Cleanup = func(ctx context.Context) error {
		chatN, genN, err := repo.CleanupOldRecords(ctx, retention)
		if err != nil {
			return err
		}
		log.Printf("event=retention_cleanup chat_rows=%d generation_rows=%d", chatN, genN)
		return nil
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("stats scheduler: %v", err)
	}
	defer sched.Stop()

	r := httpapi.NewRouter(gdb, cfg, cache, reg)
	log.Printf("event=server_listening addr=%s provider=%s", cfg.ListenAddr, cfg.AIProvider)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
