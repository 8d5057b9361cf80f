package domain

import (
	"time"

	"github.com/google/uuid"
)

// Frequency 维护计划的重复频率
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid 校验频率取值是否合法
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// Priority 优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type MaintenanceSchedule struct {
	ID          uuid.UUID `json:"id"`            // 维护计划唯一标识
	Title       string    `json:"title"`         // 计划标题
	Description string    `json:"description"`   // 计划说明（可选）
	MachineID   uuid.UUID `json:"machine_id"`    // 关联设备
	Frequency   Frequency `json:"frequency"`     // 重复频率 daily/weekly/monthly/yearly
	Priority    Priority  `json:"priority"`      // 优先级 low/medium/high
	NextDueDate time.Time `json:"next_due_date"` // 下次到期时间，只会被生成引擎向前推进
	IsActive    bool      `json:"is_active"`     // 是否启用（软停用）
	CreatedBy   uuid.UUID `json:"created_by"`    // 创建人
	CreatedAt   time.Time `json:"created_at"`    // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`    // 更新时间
}
