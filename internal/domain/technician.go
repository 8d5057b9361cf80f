package domain

import "github.com/google/uuid"

// Technician 技师目录里的只读投影
// CurrentWorkload 为派生量：当前分配给该技师且状态为 pending/in_progress 的工单数，
// 每次读取都从工单表重新统计，不落库缓存
type Technician struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	CurrentWorkload int       `json:"current_workload"`
}
