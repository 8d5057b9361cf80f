package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"MaintenanceHub/internal/config"
	"MaintenanceHub/internal/db"
	"MaintenanceHub/internal/generator"
	"MaintenanceHub/internal/queue"
	"MaintenanceHub/internal/repo"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 加载配置
	cfg := config.Load()

	// 初始化 Postgres
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := db.Init(initCtx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres init failed: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(initCtx, pool); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	// 初始化 Redis
	rdb, err := queue.Connect(initCtx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	eng := generator.New(repo.NewScheduleRepo(pool), queue.NewEvents(rdb), cfg.GenerateConcurrency)

	instanceID := uuid.NewString()
	// 实例心跳，便于在 Redis 里观察生成器存活
	go queue.StartHeartbeat(ctx, rdb, instanceID, 30*time.Second, 10*time.Second)

	// 按 cron 周期触发生成运行
	// 条件推进本身已保证并发安全，运行锁只是避免多实例做无谓的重复扫描
	c := cron.New()
	_, err = c.AddFunc(cfg.GenerateCron, func() {
		got, err := queue.AcquireLock(ctx, rdb, queue.GenerateLockKey(), instanceID, cfg.GenerateLockTTL)
		if err != nil {
			log.Printf("acquire generate lock failed: %v", err)
			return
		}
		if !got {
			log.Printf("another generator instance holds the lock, skipping run")
			return
		}
		defer func() {
			if _, err := queue.ReleaseLock(ctx, rdb, queue.GenerateLockKey(), instanceID); err != nil {
				log.Printf("release generate lock failed: %v", err)
			}
		}()

		res, err := eng.GenerateDue(ctx, time.Now().UTC())
		if err != nil {
			log.Printf("generation run failed: %v", err)
			return
		}
		for _, se := range res.Errors {
			log.Printf("schedule %s generation failed: %s", se.ScheduleID, se.Error)
		}
	})
	if err != nil {
		log.Fatalf("invalid GENERATE_CRON %q: %v", cfg.GenerateCron, err)
	}

	log.Printf("generator started, cron=%q concurrency=%d instance=%s", cfg.GenerateCron, cfg.GenerateConcurrency, instanceID)
	c.Start()

	<-ctx.Done()
	log.Println("generator stopping")
	<-c.Stop().Done()
}
