package main

import (
	"context"
	"log"
	"time"

	"MaintenanceHub/internal/assignment"
	"MaintenanceHub/internal/config"
	"MaintenanceHub/internal/db"
	"MaintenanceHub/internal/generator"
	"MaintenanceHub/internal/http/handler"
	"MaintenanceHub/internal/queue"
	"MaintenanceHub/internal/repo"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Init(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres init failed: %v", err)
	}
	defer pool.Close()

	// 确保最小表结构存在
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	// 初始化 Redis
	rdb, err := queue.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer rdb.Close()

	// 组装存储、引擎与路由
	scheduleRepo := repo.NewScheduleRepo(pool)
	workOrderRepo := repo.NewWorkOrderRepo(pool)
	technicianRepo := repo.NewTechnicianRepo(pool)
	auditRepo := repo.NewAuditRepo(pool)

	genEngine := generator.New(scheduleRepo, queue.NewEvents(rdb), cfg.GenerateConcurrency)
	assignEngine := assignment.New(workOrderRepo, technicianRepo, auditRepo)

	engine := gin.Default()
	hh := handler.NewHealthHandler(pool, rdb)
	sh := handler.NewScheduleHandler(scheduleRepo)
	gh := handler.NewGenerationHandler(genEngine, rdb)
	ah := handler.NewAssignmentHandler(assignEngine)

	// 健康与就绪
	engine.GET("/healthz", hh.Healthz)
	engine.GET("/readyz", hh.Readyz)

	api := engine.Group("/api/v1")
	{
		// 维护计划运营接口
		api.POST("/schedules", sh.Create)
		api.GET("/schedules", sh.List)
		api.PATCH("/schedules/:id", sh.Update)
		api.POST("/schedules/:id/toggle", sh.Toggle)

		// 生成
		api.POST("/work-orders/generate", gh.Generate)
		api.GET("/generation/last", gh.LastRun)

		// 分配
		api.GET("/work-orders/unassigned", ah.ListUnassigned)
		api.POST("/work-orders/bulk-assign", ah.BulkAssign)
		api.POST("/work-orders/auto-balance", ah.AutoBalance)
		api.POST("/work-orders/:id/assign", ah.Assign)
		api.POST("/work-orders/:id/reassign", ah.Reassign)
		api.POST("/work-orders/:id/unassign", ah.Unassign)
		api.GET("/work-orders/:id/audits", ah.ListAudits)
		api.GET("/technicians/workload", ah.TechnicianWorkload)
	}

	log.Printf("starting api server on :%s", cfg.HTTPPort)
	if err := engine.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
