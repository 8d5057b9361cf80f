package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Init(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	//连接测试
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS maintenance_schedules (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            machine_id UUID NOT NULL,
            frequency TEXT NOT NULL,
            priority TEXT NOT NULL DEFAULT 'medium',
            next_due_date TIMESTAMPTZ NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_by UUID NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS work_orders (
            id UUID PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            machine_id UUID NOT NULL,
            schedule_id UUID REFERENCES maintenance_schedules(id),
            issue_id UUID,
            status TEXT NOT NULL DEFAULT 'pending',
            priority TEXT NOT NULL DEFAULT 'medium',
            assigned_to UUID,
            scheduled_date TIMESTAMPTZ,
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS technicians (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'technician',
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
		`CREATE TABLE IF NOT EXISTS assignment_audits (
            id UUID PRIMARY KEY,
            work_order_id UUID NOT NULL REFERENCES work_orders(id),
            previous_technician UUID,
            new_technician UUID,
            reason TEXT NOT NULL DEFAULT '',
            actor UUID NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		// 到期扫描只关心启用中的计划
		`CREATE INDEX IF NOT EXISTS idx_schedules_due ON maintenance_schedules(next_due_date) WHERE is_active;`,
		// 工作量统计按受理人聚合
		`CREATE INDEX IF NOT EXISTS idx_work_orders_assigned ON work_orders(assigned_to) WHERE status IN ('pending','in_progress');`,
		`CREATE INDEX IF NOT EXISTS idx_audits_work_order ON assignment_audits(work_order_id, created_at);`,
	}
	for _, q := range ddl {
		if _, err := pool.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
