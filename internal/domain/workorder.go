package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrderStatus 工单状态
type WorkOrderStatus string

const (
	StatusPending    WorkOrderStatus = "pending"
	StatusInProgress WorkOrderStatus = "in_progress"
	StatusCompleted  WorkOrderStatus = "completed"
	StatusCancelled  WorkOrderStatus = "cancelled"
)

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal 终态工单不再接受分配类变更
func (s WorkOrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type WorkOrder struct {
	ID            uuid.UUID       `json:"id"`                       // 工单唯一标识
	Title         string          `json:"title"`                    // 工单标题
	Description   string          `json:"description"`              // 工单描述
	MachineID     uuid.UUID       `json:"machine_id"`               // 关联设备
	ScheduleID    *uuid.UUID      `json:"schedule_id,omitempty"`    // 来源维护计划（仅生成引擎创建的工单携带）
	IssueID       *uuid.UUID      `json:"issue_id,omitempty"`       // 来源故障单（外部流程创建时携带）
	Status        WorkOrderStatus `json:"status"`                   // 状态 pending/in_progress/completed/cancelled
	Priority      Priority        `json:"priority"`                 // 优先级
	AssignedTo    *uuid.UUID      `json:"assigned_to,omitempty"`    // 当前受理技师，nil 表示未分配
	ScheduledDate *time.Time      `json:"scheduled_date,omitempty"` // 计划执行日期
	Notes         string          `json:"notes"`                    // 备注
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AssignmentChange 针对单个工单的条件分配变更
// ExpectAssignedTo 是乐观并发条件：只有当前受理人仍等于该值时写入才生效，
// 并发修改方中竞争失败的一侧得到 conflict 错误而不是静默覆盖
type AssignmentChange struct {
	WorkOrderID      uuid.UUID
	ExpectAssignedTo *uuid.UUID
	AssignedTo       *uuid.UUID // 新受理人，nil 表示取消分配
	Priority         *Priority
	ScheduledDate    *time.Time
	Notes            *string
	AllowedStatuses  []WorkOrderStatus // 允许执行该变更的工单状态集合
}
