package handler

import (
	"log"
	"net/http"
	"time"

	"MaintenanceHub/internal/generator"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type GenerationHandler struct {
	eng *generator.Engine
	rdb *redis.Client
}

func NewGenerationHandler(eng *generator.Engine, rdb *redis.Client) *GenerationHandler {
	return &GenerationHandler{eng: eng, rdb: rdb}
}

type generateRequest struct {
	AsOf string `json:"as_of"` // 可选，RFC3339，缺省为当前时间
}

// POST /api/v1/work-orders/generate
// 运营手动触发一次生成运行；定时触发走 cmd/generator
func (h *GenerationHandler) Generate(c *gin.Context) {
	runAt := time.Now().UTC()
	if c.Request.ContentLength > 0 {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
			return
		}
		if req.AsOf != "" {
			t, err := time.Parse(time.RFC3339, req.AsOf)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of, want RFC3339"})
				return
			}
			runAt = t
		}
	}

	res, err := h.eng.GenerateDue(c.Request.Context(), runAt)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"created_count": len(res.Created),
		"created":       res.Created,
		"failed_count":  len(res.Errors),
		"errors":        res.Errors,
	})
}

// GET /api/v1/generation/last
func (h *GenerationHandler) LastRun(c *gin.Context) {
	ctx := c.Request.Context()
	last, err := h.rdb.HGetAll(ctx, "metrics:generator:last").Result()
	if err != nil {
		log.Printf("failed to get generation metrics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	runs, err := h.rdb.Get(ctx, "metrics:generator:runs").Int64()
	if err != nil && err != redis.Nil {
		log.Printf("failed to get generation run counter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs": runs,
		"last": last, // 包含 time, scanned, created, failed
	})
}
