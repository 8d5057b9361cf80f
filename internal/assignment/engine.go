// Package assignment 实现工单分配引擎：
// 单个工单的分配 / 改派 / 取消分配，批量分配，以及按工作量的自动均衡
// 所有写入都走条件更新（乐观并发），竞争失败返回 conflict 而不是静默覆盖
package assignment

import (
	"context"
	"log"
	"strings"
	"time"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
)

// WorkOrderStore 分配引擎对工单存储的依赖
type WorkOrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error)
	ListUnassignedPending(ctx context.Context) ([]domain.WorkOrder, error)
	// ApplyAssignment 条件写入分配变更，条件未命中返回 conflict
	ApplyAssignment(ctx context.Context, c domain.AssignmentChange) (*domain.WorkOrder, error)
}

// TechnicianDirectory 技师目录，工作量为读取时现算的派生量
type TechnicianDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Technician, error)
	ListWithWorkload(ctx context.Context) ([]domain.Technician, error)
}

// AuditStore 分配审计存储
type AuditStore interface {
	Insert(ctx context.Context, a *domain.AssignmentAudit) error
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]domain.AssignmentAudit, error)
}

type Engine struct {
	workOrders WorkOrderStore
	techs      TechnicianDirectory
	audits     AuditStore
}

func New(workOrders WorkOrderStore, techs TechnicianDirectory, audits AuditStore) *Engine {
	return &Engine{workOrders: workOrders, techs: techs, audits: audits}
}

type AssignParams struct {
	WorkOrderID   uuid.UUID
	TechnicianID  uuid.UUID
	Priority      *domain.Priority
	ScheduledDate *time.Time
	Notes         *string
	Actor         uuid.UUID
}

type ReassignParams struct {
	WorkOrderID     uuid.UUID
	NewTechnicianID uuid.UUID
	Reason          string
	Priority        *domain.Priority
	Actor           uuid.UUID
}

type UnassignParams struct {
	WorkOrderID uuid.UUID
	Reason      string // 可选
	Actor       uuid.UUID
}

// Assign 首次分配：仅对当前没有受理人且非终态的工单合法
func (e *Engine) Assign(ctx context.Context, p AssignParams) (*domain.WorkOrder, error) {
	if p.Priority != nil && !p.Priority.Valid() {
		return nil, domain.Validationf("非法的优先级: %q", *p.Priority)
	}

	wo, err := e.workOrders.GetByID(ctx, p.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status.Terminal() {
		return nil, domain.InvalidStatef("工单 %s 已处于终态 %s，不能分配", wo.ID, wo.Status)
	}
	if wo.AssignedTo != nil {
		return nil, domain.InvalidStatef("工单 %s 已有受理人，请使用改派", wo.ID)
	}

	tech, err := e.techs.GetByID(ctx, p.TechnicianID)
	if err != nil {
		return nil, err
	}
	return e.place(ctx, wo, tech, p.Priority, p.ScheduledDate, p.Notes, "", p.Actor)
}

// Reassign 改派：仅对已有受理人且未完成的工单合法，reason 必填
// reason 校验在任何读写之前完成，非法请求绝不触达工单
func (e *Engine) Reassign(ctx context.Context, p ReassignParams) (*domain.WorkOrder, error) {
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return nil, domain.Validationf("改派必须填写原因")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return nil, domain.Validationf("非法的优先级: %q", *p.Priority)
	}

	wo, err := e.workOrders.GetByID(ctx, p.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status.Terminal() {
		return nil, domain.InvalidStatef("工单 %s 已处于终态 %s，不能改派", wo.ID, wo.Status)
	}
	if wo.AssignedTo == nil {
		return nil, domain.InvalidStatef("工单 %s 尚未分配，不能改派", wo.ID)
	}
	if *wo.AssignedTo == p.NewTechnicianID {
		return nil, domain.InvalidStatef("工单 %s 已由该技师受理", wo.ID)
	}

	tech, err := e.techs.GetByID(ctx, p.NewTechnicianID)
	if err != nil {
		return nil, err
	}
	return e.place(ctx, wo, tech, p.Priority, nil, nil, reason, p.Actor)
}

// Unassign 取消分配：仅对 pending 状态合法，已开工的工单不能被悄悄空置
func (e *Engine) Unassign(ctx context.Context, p UnassignParams) (*domain.WorkOrder, error) {
	wo, err := e.workOrders.GetByID(ctx, p.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.StatusPending {
		return nil, domain.InvalidStatef("工单 %s 状态为 %s，只有 pending 可以取消分配", wo.ID, wo.Status)
	}
	if wo.AssignedTo == nil {
		return nil, domain.InvalidStatef("工单 %s 本来就没有受理人", wo.ID)
	}

	prev := wo.AssignedTo
	updated, err := e.workOrders.ApplyAssignment(ctx, domain.AssignmentChange{
		WorkOrderID:      wo.ID,
		ExpectAssignedTo: prev,
		AssignedTo:       nil,
		AllowedStatuses:  []domain.WorkOrderStatus{domain.StatusPending},
	})
	if err != nil {
		return nil, err
	}
	e.audit(ctx, &domain.AssignmentAudit{
		ID:                 uuid.New(),
		WorkOrderID:        wo.ID,
		PreviousTechnician: prev,
		NewTechnician:      nil,
		Reason:             strings.TrimSpace(p.Reason),
		Actor:              p.Actor,
	})
	return updated, nil
}

// place 执行一次受理人写入并记审计，assign 与 reassign 共用
// 条件更新以读取时看到的受理人为比较基准，两个管理员同时改同一张工单时后写的一方得到 conflict
func (e *Engine) place(ctx context.Context, wo *domain.WorkOrder, tech *domain.Technician,
	prio *domain.Priority, schedDate *time.Time, notes *string, reason string, actor uuid.UUID) (*domain.WorkOrder, error) {

	techID := tech.ID
	updated, err := e.workOrders.ApplyAssignment(ctx, domain.AssignmentChange{
		WorkOrderID:      wo.ID,
		ExpectAssignedTo: wo.AssignedTo,
		AssignedTo:       &techID,
		Priority:         prio,
		ScheduledDate:    schedDate,
		Notes:            notes,
		AllowedStatuses:  []domain.WorkOrderStatus{domain.StatusPending, domain.StatusInProgress},
	})
	if err != nil {
		return nil, err
	}
	e.audit(ctx, &domain.AssignmentAudit{
		ID:                 uuid.New(),
		WorkOrderID:        wo.ID,
		PreviousTechnician: wo.AssignedTo,
		NewTechnician:      &techID,
		Reason:             reason,
		Actor:              actor,
	})
	return updated, nil
}

// audit 审计写失败不回滚已生效的分配，只记日志
func (e *Engine) audit(ctx context.Context, a *domain.AssignmentAudit) {
	if err := e.audits.Insert(ctx, a); err != nil {
		log.Printf("insert assignment audit for work order %s failed: %v", a.WorkOrderID, err)
	}
}

// ListTechniciansWithWorkload 列出在岗技师及其当前工作量
func (e *Engine) ListTechniciansWithWorkload(ctx context.Context) ([]domain.Technician, error) {
	return e.techs.ListWithWorkload(ctx)
}

// ListUnassignedWorkOrders 列出待分配工单，供批量分配/自动均衡挑选
func (e *Engine) ListUnassignedWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	return e.workOrders.ListUnassignedPending(ctx)
}

// ListAudits 按时间序返回某工单的分配变更历史
func (e *Engine) ListAudits(ctx context.Context, workOrderID uuid.UUID) ([]domain.AssignmentAudit, error) {
	if _, err := e.workOrders.GetByID(ctx, workOrderID); err != nil {
		return nil, err
	}
	return e.audits.ListByWorkOrder(ctx, workOrderID)
}
