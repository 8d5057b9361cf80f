package repo

import (
	"context"
	"errors"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TechnicianRepo struct {
	db *pgxpool.Pool
}

func NewTechnicianRepo(db *pgxpool.Pool) *TechnicianRepo {
	return &TechnicianRepo{db: db}
}

// GetByID 查询技师，角色与启用状态在 WHERE 里校验，
// 非技师角色的用户视同不存在
func (r *TechnicianRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Technician, error) {
	row := r.db.QueryRow(ctx, `
		SELECT t.id, t.name, t.email, t.phone,
		       (SELECT COUNT(*) FROM work_orders w
		        WHERE w.assigned_to = t.id AND w.status IN ('pending','in_progress')) AS current_workload
		FROM technicians t
		WHERE t.id = $1 AND t.role = 'technician' AND t.is_active
	`, id)
	var t domain.Technician
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.CurrentWorkload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("技师 %s 不存在", id)
		}
		return nil, domain.StoreUnavailable(err, "查询技师失败")
	}
	return &t, nil
}

// ListWithWorkload 列出全部在岗技师及其当前工作量
// 工作量每次都从工单表现算（pending/in_progress 的分配数），不依赖缓存计数
func (r *TechnicianRepo) ListWithWorkload(ctx context.Context) ([]domain.Technician, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name, t.email, t.phone, COUNT(w.id) AS current_workload
		FROM technicians t
		LEFT JOIN work_orders w
		  ON w.assigned_to = t.id AND w.status IN ('pending','in_progress')
		WHERE t.role = 'technician' AND t.is_active
		GROUP BY t.id, t.name, t.email, t.phone
		ORDER BY t.name
	`)
	if err != nil {
		return nil, domain.StoreUnavailable(err, "查询技师工作量失败")
	}
	defer rows.Close()

	var res []domain.Technician
	for rows.Next() {
		var t domain.Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.CurrentWorkload); err != nil {
			return nil, domain.StoreUnavailable(err, "读取技师行失败")
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreUnavailable(err, "查询技师工作量失败")
	}
	return res, nil
}
