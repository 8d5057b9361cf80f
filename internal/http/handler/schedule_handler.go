package handler

import (
	"net/http"
	"time"

	"MaintenanceHub/internal/domain"
	"MaintenanceHub/internal/repo"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScheduleHandler struct {
	schedules *repo.ScheduleRepo
}

func NewScheduleHandler(schedules *repo.ScheduleRepo) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

type createScheduleRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	MachineID   string `json:"machine_id" binding:"required"`
	Frequency   string `json:"frequency" binding:"required,oneof=daily weekly monthly yearly"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high"`
	NextDueDate string `json:"next_due_date" binding:"required"` // RFC3339，首个到期时间
}

// POST /api/v1/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	machineID, err := uuid.Parse(req.MachineID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid machine_id"})
		return
	}
	nextDue, err := time.Parse(time.RFC3339, req.NextDueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid next_due_date, want RFC3339"})
		return
	}
	prio := domain.PriorityMedium
	if req.Priority != "" {
		prio = domain.Priority(req.Priority)
	}

	s := domain.MaintenanceSchedule{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		MachineID:   machineID,
		Frequency:   domain.Frequency(req.Frequency),
		Priority:    prio,
		NextDueDate: nextDue,
		IsActive:    true,
		CreatedBy:   actor,
	}
	if err := h.schedules.Create(c.Request.Context(), &s); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule_id": s.ID.String()})
}

// GET /api/v1/schedules?active=true/false
func (h *ScheduleHandler) List(c *gin.Context) {
	var activePtr *bool
	if v := c.Query("active"); v != "" {
		val := v == "true"
		activePtr = &val
	}
	schedules, err := h.schedules.List(c.Request.Context(), activePtr)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules, "count": len(schedules)})
}

type updateScheduleRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Frequency   string `json:"frequency" binding:"required,oneof=daily weekly monthly yearly"`
	Priority    string `json:"priority" binding:"required,oneof=low medium high"`
}

// PATCH /api/v1/schedules/:id
// 运营编辑元信息，next_due_date 不可经由此接口改动（只有生成引擎推进它）
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	if err := h.schedules.UpdateMeta(c.Request.Context(), id, req.Title, req.Description,
		domain.Frequency(req.Frequency), domain.Priority(req.Priority)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.String()})
}

type toggleScheduleRequest struct {
	Active bool `json:"active"`
}

// POST /api/v1/schedules/:id/toggle
func (h *ScheduleHandler) Toggle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req toggleScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	if err := h.schedules.SetActive(c.Request.Context(), id, req.Active); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.String(), "active": req.Active})
}
