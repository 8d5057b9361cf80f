package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentAudit 分配变更审计记录
// 每次 assign/reassign/unassign 都会写入一条，改派必须携带 reason
type AssignmentAudit struct {
	ID                 uuid.UUID  `json:"id"`
	WorkOrderID        uuid.UUID  `json:"work_order_id"`
	PreviousTechnician *uuid.UUID `json:"previous_technician,omitempty"` // 变更前受理人，首次分配为 nil
	NewTechnician      *uuid.UUID `json:"new_technician,omitempty"`      // 变更后受理人，取消分配为 nil
	Reason             string     `json:"reason"`                        // 变更原因
	Actor              uuid.UUID  `json:"actor"`                         // 操作人
	CreatedAt          time.Time  `json:"created_at"`
}
