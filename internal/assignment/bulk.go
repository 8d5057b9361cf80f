package assignment

import (
	"context"
	"sort"
	"time"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
)

type BulkAssignItem struct {
	WorkOrderID   uuid.UUID
	TechnicianID  uuid.UUID
	Priority      *domain.Priority
	ScheduledDate *time.Time
	Reason        string // 目标工单已有受理人时走改派，此时必填
}

type ItemError struct {
	WorkOrderID uuid.UUID        `json:"work_order_id"`
	Kind        domain.ErrorKind `json:"kind"`
	Message     string           `json:"message"`
}

type BulkResult struct {
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Errors     []ItemError `json:"errors"`
}

func (r *BulkResult) record(woID uuid.UUID, err error) {
	if err == nil {
		r.Successful++
		return
	}
	r.Failed++
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindStoreUnavailable
	}
	r.Errors = append(r.Errors, ItemError{WorkOrderID: woID, Kind: kind, Message: err.Error()})
}

// BulkAssign 逐项应用分配/改派，各项互相独立，单项失败不影响其余项
// 永远返回部分结果（成功数、失败数、逐项错误），不做整体回滚
// ctx 取消后不再开始新的项，已经开始的项让它完成
func (e *Engine) BulkAssign(ctx context.Context, items []BulkAssignItem, actor uuid.UUID) (*BulkResult, error) {
	if len(items) == 0 {
		return nil, domain.Validationf("批量分配项为空")
	}

	res := &BulkResult{}
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		_, err := e.applyItem(ctx, item, actor)
		res.record(item.WorkOrderID, err)
	}
	return res, nil
}

// applyItem 按目标工单当前是否已分配决定走 assign 还是 reassign
func (e *Engine) applyItem(ctx context.Context, item BulkAssignItem, actor uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := e.workOrders.GetByID(ctx, item.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if wo.AssignedTo == nil {
		return e.Assign(ctx, AssignParams{
			WorkOrderID:   item.WorkOrderID,
			TechnicianID:  item.TechnicianID,
			Priority:      item.Priority,
			ScheduledDate: item.ScheduledDate,
			Actor:         actor,
		})
	}
	return e.Reassign(ctx, ReassignParams{
		WorkOrderID:     item.WorkOrderID,
		NewTechnicianID: item.TechnicianID,
		Reason:          item.Reason,
		Priority:        item.Priority,
		Actor:           actor,
	})
}

// AutoBalance 把一批工单按最少负载启发式摊给技师池：
// 运行开始时读取一次各技师的当前工作量，按 (工作量升序, 技师ID升序) 排序，
// 然后对工单做轮转分配。排序只做一次、过程中不重排，
// 这是确定性的公平启发式，不是在线装箱求解器
func (e *Engine) AutoBalance(ctx context.Context, workOrderIDs []uuid.UUID, pool []uuid.UUID, actor uuid.UUID) (*BulkResult, error) {
	if len(workOrderIDs) == 0 {
		return nil, domain.Validationf("待分配工单为空")
	}
	if len(pool) == 0 {
		return nil, domain.Validationf("技师池为空")
	}

	all, err := e.techs.ListWithWorkload(ctx)
	if err != nil {
		return nil, err
	}
	inPool := make(map[uuid.UUID]bool, len(pool))
	for _, id := range pool {
		inPool[id] = true
	}
	var candidates []domain.Technician
	for _, t := range all {
		if inPool[t.ID] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.Validationf("技师池中没有在岗技师")
	}

	// 工作量相同按 ID 定序，保证同样输入产生同样的分配
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CurrentWorkload != candidates[j].CurrentWorkload {
			return candidates[i].CurrentWorkload < candidates[j].CurrentWorkload
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})

	res := &BulkResult{}
	for i, woID := range workOrderIDs {
		if ctx.Err() != nil {
			break
		}
		target := candidates[i%len(candidates)]
		_, err := e.assignKnown(ctx, woID, &target, actor)
		res.record(woID, err)
	}
	return res, nil
}

// assignKnown 自动均衡的单项放置：技师已在批次开始时校验过，不再重查工作量
func (e *Engine) assignKnown(ctx context.Context, workOrderID uuid.UUID, tech *domain.Technician, actor uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := e.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status.Terminal() {
		return nil, domain.InvalidStatef("工单 %s 已处于终态 %s，不能分配", wo.ID, wo.Status)
	}
	if wo.AssignedTo != nil {
		return nil, domain.InvalidStatef("工单 %s 已有受理人，自动均衡只处理未分配工单", wo.ID)
	}
	return e.place(ctx, wo, tech, nil, nil, nil, "", actor)
}
