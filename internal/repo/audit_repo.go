package repo

import (
	"context"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	db *pgxpool.Pool
}

func NewAuditRepo(db *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert 写入一条分配审计记录
func (r *AuditRepo) Insert(ctx context.Context, a *domain.AssignmentAudit) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO assignment_audits (id, work_order_id, previous_technician, new_technician, reason, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, a.ID, a.WorkOrderID, a.PreviousTechnician, a.NewTechnician, a.Reason, a.Actor)
	if err != nil {
		return domain.StoreUnavailable(err, "写入分配审计失败")
	}
	return nil
}

// ListByWorkOrder 按时间序列出某工单的全部分配变更
func (r *AuditRepo) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]domain.AssignmentAudit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, work_order_id, previous_technician, new_technician, reason, actor, created_at
		FROM assignment_audits
		WHERE work_order_id = $1
		ORDER BY created_at
	`, workOrderID)
	if err != nil {
		return nil, domain.StoreUnavailable(err, "查询分配审计失败")
	}
	defer rows.Close()

	var res []domain.AssignmentAudit
	for rows.Next() {
		var a domain.AssignmentAudit
		if err := rows.Scan(&a.ID, &a.WorkOrderID, &a.PreviousTechnician, &a.NewTechnician, &a.Reason, &a.Actor, &a.CreatedAt); err != nil {
			return nil, domain.StoreUnavailable(err, "读取分配审计行失败")
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreUnavailable(err, "查询分配审计失败")
	}
	return res, nil
}
