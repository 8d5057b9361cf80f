package handler

import (
	"net/http"

	"MaintenanceHub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor 引擎错误分类到 HTTP 状态码的映射
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = "internal"
	}
	c.JSON(statusFor(err), gin.H{"kind": kind, "error": err.Error()})
}

// actorFrom 从认证层注入的请求头取操作人身份
// 外围系统在网关完成鉴权后以 X-Actor-ID 透传当前用户
func actorFrom(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader("X-Actor-ID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Actor-ID"})
		return uuid.Nil, false
	}
	return id, true
}

func parsePriority(s *string) (*domain.Priority, error) {
	if s == nil {
		return nil, nil
	}
	p := domain.Priority(*s)
	if !p.Valid() {
		return nil, domain.Validationf("非法的优先级: %q", *s)
	}
	return &p, nil
}
