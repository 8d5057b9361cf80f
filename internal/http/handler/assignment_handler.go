package handler

import (
	"net/http"
	"time"

	"MaintenanceHub/internal/assignment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AssignmentHandler struct {
	eng *assignment.Engine
}

func NewAssignmentHandler(eng *assignment.Engine) *AssignmentHandler {
	return &AssignmentHandler{eng: eng}
}

type assignRequest struct {
	TechnicianID  string  `json:"technician_id" binding:"required"`
	Priority      *string `json:"priority"`
	ScheduledDate *string `json:"scheduled_date"` // RFC3339
	Notes         *string `json:"notes"`
}

// POST /api/v1/work-orders/:id/assign
func (h *AssignmentHandler) Assign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order id"})
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	techID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid technician_id"})
		return
	}
	prio, err := parsePriority(req.Priority)
	if err != nil {
		fail(c, err)
		return
	}
	var schedDate *time.Time
	if req.ScheduledDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ScheduledDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_date, want RFC3339"})
			return
		}
		schedDate = &t
	}

	wo, err := h.eng.Assign(c.Request.Context(), assignment.AssignParams{
		WorkOrderID:   woID,
		TechnicianID:  techID,
		Priority:      prio,
		ScheduledDate: schedDate,
		Notes:         req.Notes,
		Actor:         actor,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": wo})
}

type reassignRequest struct {
	TechnicianID string  `json:"technician_id" binding:"required"`
	Reason       string  `json:"reason" binding:"required"`
	Priority     *string `json:"priority"`
}

// POST /api/v1/work-orders/:id/reassign
func (h *AssignmentHandler) Reassign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order id"})
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	techID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid technician_id"})
		return
	}
	prio, err := parsePriority(req.Priority)
	if err != nil {
		fail(c, err)
		return
	}

	wo, err := h.eng.Reassign(c.Request.Context(), assignment.ReassignParams{
		WorkOrderID:     woID,
		NewTechnicianID: techID,
		Reason:          req.Reason,
		Priority:        prio,
		Actor:           actor,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": wo})
}

type unassignRequest struct {
	Reason string `json:"reason"`
}

// POST /api/v1/work-orders/:id/unassign
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order id"})
		return
	}
	var req unassignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
			return
		}
	}

	wo, err := h.eng.Unassign(c.Request.Context(), assignment.UnassignParams{
		WorkOrderID: woID,
		Reason:      req.Reason,
		Actor:       actor,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": wo})
}

type bulkAssignItem struct {
	WorkOrderID   string  `json:"work_order_id" binding:"required"`
	TechnicianID  string  `json:"technician_id" binding:"required"`
	Priority      *string `json:"priority"`
	ScheduledDate *string `json:"scheduled_date"`
	Reason        string  `json:"reason"`
}

type bulkAssignRequest struct {
	Items []bulkAssignItem `json:"items" binding:"required,min=1,dive"`
}

// POST /api/v1/work-orders/bulk-assign
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	items := make([]assignment.BulkAssignItem, 0, len(req.Items))
	for _, it := range req.Items {
		woID, err := uuid.Parse(it.WorkOrderID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work_order_id: " + it.WorkOrderID})
			return
		}
		techID, err := uuid.Parse(it.TechnicianID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid technician_id: " + it.TechnicianID})
			return
		}
		prio, err := parsePriority(it.Priority)
		if err != nil {
			fail(c, err)
			return
		}
		var schedDate *time.Time
		if it.ScheduledDate != nil {
			t, err := time.Parse(time.RFC3339, *it.ScheduledDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_date, want RFC3339"})
				return
			}
			schedDate = &t
		}
		items = append(items, assignment.BulkAssignItem{
			WorkOrderID:   woID,
			TechnicianID:  techID,
			Priority:      prio,
			ScheduledDate: schedDate,
			Reason:        it.Reason,
		})
	}

	res, err := h.eng.BulkAssign(c.Request.Context(), items, actor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type autoBalanceRequest struct {
	WorkOrderIDs   []string `json:"work_order_ids" binding:"required,min=1"`
	TechnicianPool []string `json:"technician_pool" binding:"required,min=1"`
}

// POST /api/v1/work-orders/auto-balance
func (h *AssignmentHandler) AutoBalance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req autoBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}

	woIDs, err := parseUUIDs(req.WorkOrderIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work_order_ids"})
		return
	}
	pool, err := parseUUIDs(req.TechnicianPool)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid technician_pool"})
		return
	}

	res, err := h.eng.AutoBalance(c.Request.Context(), woIDs, pool, actor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/work-orders/unassigned
func (h *AssignmentHandler) ListUnassigned(c *gin.Context) {
	list, err := h.eng.ListUnassignedWorkOrders(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_orders": list, "count": len(list)})
}

// GET /api/v1/work-orders/:id/audits
func (h *AssignmentHandler) ListAudits(c *gin.Context) {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order id"})
		return
	}
	list, err := h.eng.ListAudits(c.Request.Context(), woID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": list, "count": len(list)})
}

// GET /api/v1/technicians/workload
func (h *AssignmentHandler) TechnicianWorkload(c *gin.Context) {
	list, err := h.eng.ListTechniciansWithWorkload(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technicians": list, "count": len(list)})
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
