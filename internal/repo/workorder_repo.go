package repo

import (
	"context"
	"errors"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workOrderColumns = `id, title, description, machine_id, schedule_id, issue_id, status, priority, assigned_to, scheduled_date, notes, created_at, updated_at`

type WorkOrderRepo struct {
	db *pgxpool.Pool
}

func NewWorkOrderRepo(db *pgxpool.Pool) *WorkOrderRepo {
	return &WorkOrderRepo{db: db}
}

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var w domain.WorkOrder
	if err := row.Scan(
		&w.ID, &w.Title, &w.Description, &w.MachineID, &w.ScheduleID, &w.IssueID,
		&w.Status, &w.Priority, &w.AssignedTo, &w.ScheduledDate, &w.Notes,
		&w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

// Insert 插入一条工单记录（手工或故障单来源的工单走这里）
func (r *WorkOrderRepo) Insert(ctx context.Context, w *domain.WorkOrder) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO work_orders (id, title, description, machine_id, schedule_id, issue_id, status, priority, assigned_to, scheduled_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`, w.ID, w.Title, w.Description, w.MachineID, w.ScheduleID, w.IssueID, w.Status, w.Priority, w.AssignedTo, w.ScheduledDate, w.Notes)
	if err != nil {
		return domain.StoreUnavailable(err, "创建工单失败")
	}
	return nil
}

// GetByID 根据 ID 查询工单
func (r *WorkOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	w, err := scanWorkOrder(r.db.QueryRow(ctx, `
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("工单 %s 不存在", id)
		}
		return nil, domain.StoreUnavailable(err, "查询工单失败")
	}
	return w, nil
}

// ListUnassignedPending 列出待分配工单（pending 且无受理人），供批量分配挑选
func (r *WorkOrderRepo) ListUnassignedPending(ctx context.Context) ([]domain.WorkOrder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE status = 'pending' AND assigned_to IS NULL
		ORDER BY priority DESC, created_at
	`)
	if err != nil {
		return nil, domain.StoreUnavailable(err, "查询待分配工单失败")
	}
	defer rows.Close()

	var res []domain.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, domain.StoreUnavailable(err, "读取工单行失败")
		}
		res = append(res, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreUnavailable(err, "查询待分配工单失败")
	}
	return res, nil
}

// ApplyAssignment 条件写入一次分配变更
// WHERE 同时校验当前受理人（IS NOT DISTINCT FROM 以覆盖 NULL）和允许的状态集合，
// 没有命中任何行说明工单在读取之后被并发修改，返回 conflict 交给调用方决定是否重试
func (r *WorkOrderRepo) ApplyAssignment(ctx context.Context, c domain.AssignmentChange) (*domain.WorkOrder, error) {
	statuses := make([]string, 0, len(c.AllowedStatuses))
	for _, s := range c.AllowedStatuses {
		statuses = append(statuses, string(s))
	}
	w, err := scanWorkOrder(r.db.QueryRow(ctx, `
		UPDATE work_orders
		SET assigned_to = $2,
		    priority = COALESCE($3, priority),
		    scheduled_date = COALESCE($4, scheduled_date),
		    notes = COALESCE($5, notes),
		    updated_at = NOW()
		WHERE id = $1
		  AND assigned_to IS NOT DISTINCT FROM $6
		  AND status = ANY($7)
		RETURNING `+workOrderColumns+`
	`, c.WorkOrderID, c.AssignedTo, c.Priority, c.ScheduledDate, c.Notes, c.ExpectAssignedTo, statuses))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Conflictf("工单 %s 已被并发修改，分配未写入", c.WorkOrderID)
		}
		return nil, domain.StoreUnavailable(err, "写入分配变更失败")
	}
	return w, nil
}
