package repo

import (
	"context"
	"errors"
	"time"

	"MaintenanceHub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const scheduleColumns = `id, title, description, machine_id, frequency, priority, next_due_date, is_active, created_by, created_at, updated_at`

type ScheduleRepo struct {
	db *pgxpool.Pool
}

func NewScheduleRepo(db *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func scanSchedule(row pgx.Row) (*domain.MaintenanceSchedule, error) {
	var s domain.MaintenanceSchedule
	if err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.MachineID, &s.Frequency, &s.Priority,
		&s.NextDueDate, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create 创建维护计划
func (r *ScheduleRepo) Create(ctx context.Context, s *domain.MaintenanceSchedule) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO maintenance_schedules (id, title, description, machine_id, frequency, priority, next_due_date, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, s.ID, s.Title, s.Description, s.MachineID, s.Frequency, s.Priority, s.NextDueDate, s.IsActive, s.CreatedBy)
	if err != nil {
		return domain.StoreUnavailable(err, "创建维护计划失败")
	}
	return nil
}

// GetByID 根据 ID 查询维护计划
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaintenanceSchedule, error) {
	s, err := scanSchedule(r.db.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundf("维护计划 %s 不存在", id)
		}
		return nil, domain.StoreUnavailable(err, "查询维护计划失败")
	}
	return s, nil
}

// List 按启用状态过滤列出维护计划（nil 表示不过滤）
func (r *ScheduleRepo) List(ctx context.Context, active *bool) ([]domain.MaintenanceSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM maintenance_schedules`
	args := []any{}
	if active != nil {
		query += ` WHERE is_active = $1`
		args = append(args, *active)
	}
	query += ` ORDER BY next_due_date`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StoreUnavailable(err, "查询维护计划列表失败")
	}
	defer rows.Close()

	var res []domain.MaintenanceSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, domain.StoreUnavailable(err, "读取维护计划行失败")
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreUnavailable(err, "读取维护计划列表失败")
	}
	return res, nil
}

// ListDue 列出到期且启用的维护计划（next_due_date <= asOf）
func (r *ScheduleRepo) ListDue(ctx context.Context, asOf time.Time) ([]domain.MaintenanceSchedule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM maintenance_schedules
		WHERE is_active AND next_due_date <= $1
		ORDER BY next_due_date
	`, asOf)
	if err != nil {
		return nil, domain.StoreUnavailable(err, "扫描到期计划失败")
	}
	defer rows.Close()

	var res []domain.MaintenanceSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, domain.StoreUnavailable(err, "读取到期计划行失败")
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreUnavailable(err, "扫描到期计划失败")
	}
	return res, nil
}

// UpdateMeta 运营侧编辑计划元信息，不允许改动 next_due_date（只有生成引擎能推进它）
func (r *ScheduleRepo) UpdateMeta(ctx context.Context, id uuid.UUID, title, description string, freq domain.Frequency, prio domain.Priority) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE maintenance_schedules
		SET title = $2, description = $3, frequency = $4, priority = $5, updated_at = NOW()
		WHERE id = $1
	`, id, title, description, freq, prio)
	if err != nil {
		return domain.StoreUnavailable(err, "更新维护计划失败")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("维护计划 %s 不存在", id)
	}
	return nil
}

// SetActive 启停一个维护计划（停用是软停止，生成引擎会跳过停用计划）
func (r *ScheduleRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE maintenance_schedules
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
	`, id, active)
	if err != nil {
		return domain.StoreUnavailable(err, "更新维护计划启用状态失败")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("维护计划 %s 不存在", id)
	}
	return nil
}

// AdvanceAndCreate 在单个事务里完成一个计划的一次生成：
// 条件推进 next_due_date（仅当它仍等于扫描时看到的值且计划仍启用），
// 推进成功后插入一张 pending 未分配工单。
// 条件更新没有命中说明并发的另一次运行已经处理过该计划（或计划被停用），
// 返回 (false, nil) 让调用方跳过，保证每个到期点至多生成一张工单。
func (r *ScheduleRepo) AdvanceAndCreate(ctx context.Context, sch domain.MaintenanceSchedule, nextDue time.Time, wo *domain.WorkOrder) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, domain.StoreUnavailable(err, "开启生成事务失败")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE maintenance_schedules
		SET next_due_date = $3, updated_at = NOW()
		WHERE id = $1 AND is_active AND next_due_date = $2
	`, sch.ID, sch.NextDueDate, nextDue)
	if err != nil {
		return false, domain.StoreUnavailable(err, "推进到期时间失败")
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO work_orders (id, title, description, machine_id, schedule_id, status, priority, scheduled_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, wo.ID, wo.Title, wo.Description, wo.MachineID, wo.ScheduleID, wo.Status, wo.Priority, wo.ScheduledDate, wo.Notes)
	if err != nil {
		return false, domain.StoreUnavailable(err, "创建生成工单失败")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, domain.StoreUnavailable(err, "提交生成事务失败")
	}
	return true, nil
}
