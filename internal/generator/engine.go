// Package generator 实现维护计划到工单的生成引擎：
// 扫描到期且启用的维护计划，为每个计划在单个事务里推进 next_due_date
// 一个周期并创建一张 pending 未分配工单，保证并发触发下每个到期点至多生成一张
package generator

import (
	"context"
	"log"
	"sync"
	"time"

	"MaintenanceHub/internal/domain"
	"MaintenanceHub/internal/duedate"

	"github.com/google/uuid"
)

// ScheduleStore 生成引擎对计划存储的依赖
type ScheduleStore interface {
	// ListDue 列出 asOf 时刻已到期且启用的计划
	ListDue(ctx context.Context, asOf time.Time) ([]domain.MaintenanceSchedule, error)
	// AdvanceAndCreate 在一个原子单元内条件推进到期时间并创建工单，
	// 条件未命中（并发运行已处理）返回 (false, nil)
	AdvanceAndCreate(ctx context.Context, sch domain.MaintenanceSchedule, nextDue time.Time, wo *domain.WorkOrder) (bool, error)
}

// EventSink 生成结果的旁路输出（事件队列、运行指标），失败不影响生成本身
type EventSink interface {
	WorkOrderCreated(ctx context.Context, wo domain.WorkOrder) error
	RecordRun(ctx context.Context, runAt time.Time, scanned, created, failed int) error
}

// ScheduleError 单个计划生成失败的记录
type ScheduleError struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	Error      string    `json:"error"`
}

// Result 一次生成运行的结果
type Result struct {
	Created []uuid.UUID     `json:"created"`
	Errors  []ScheduleError `json:"errors"`
}

type Engine struct {
	store       ScheduleStore
	events      EventSink // 可为 nil
	concurrency int
	opTimeout   time.Duration // 单个计划处理的超时
}

func New(store ScheduleStore, events EventSink, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Engine{
		store:       store,
		events:      events,
		concurrency: concurrency,
		opTimeout:   10 * time.Second,
	}
}

// GenerateDue 执行一次生成运行
// runAt 是本次运行的参照时间，由调用方显式传入（可测试性）
// 单个计划失败只记入 Errors，不中断其余计划；
// ctx 取消后不再开始新的计划，已开始的让它跑完，避免半更新状态
func (e *Engine) GenerateDue(ctx context.Context, runAt time.Time) (*Result, error) {
	due, err := e.store.ListDue(ctx, runAt)
	if err != nil {
		return nil, err
	}

	// 每个计划的事务不跟随外部取消，开始了就执行到底
	itemCtx := context.WithoutCancel(ctx)

	var mu sync.Mutex
	res := &Result{}
	p := newPool(e.concurrency)
	for _, sch := range due {
		if ctx.Err() != nil {
			break
		}
		sch := sch
		p.submit(func() {
			cctx, cancel := context.WithTimeout(itemCtx, e.opTimeout)
			defer cancel()
			wo, err := e.processOne(cctx, sch)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Errors = append(res.Errors, ScheduleError{ScheduleID: sch.ID, Error: err.Error()})
			case wo != nil:
				res.Created = append(res.Created, wo.ID)
			}
		})
	}
	p.wait()

	if e.events != nil {
		if err := e.events.RecordRun(itemCtx, runAt, len(due), len(res.Created), len(res.Errors)); err != nil {
			log.Printf("record generation run metrics failed: %v", err)
		}
	}

	log.Printf("generation run: due=%d created=%d failed=%d", len(due), len(res.Created), len(res.Errors))
	return res, nil
}

// processOne 处理单个到期计划
// 无论积压了多少个周期，一次运行只推进一个周期、只生成一张工单（不补生成）
// 返回 (nil, nil) 表示条件推进竞争失败，本次跳过
func (e *Engine) processOne(ctx context.Context, sch domain.MaintenanceSchedule) (*domain.WorkOrder, error) {
	next, err := duedate.NextDueDate(sch.NextDueDate, sch.Frequency)
	if err != nil {
		return nil, err
	}

	scheduleID := sch.ID
	occurrence := sch.NextDueDate // 本次服务的到期点，作为工单的计划执行日期
	wo := &domain.WorkOrder{
		ID:            uuid.New(),
		Title:         sch.Title,
		Description:   sch.Description,
		MachineID:     sch.MachineID,
		ScheduleID:    &scheduleID,
		Status:        domain.StatusPending,
		Priority:      sch.Priority,
		ScheduledDate: &occurrence,
		Notes:         "由维护计划自动生成",
	}

	ok, err := e.store.AdvanceAndCreate(ctx, sch, next, wo)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 并发的另一次运行已经推进过该计划（或计划刚被停用），不算失败
		return nil, nil
	}

	if e.events != nil {
		if err := e.events.WorkOrderCreated(ctx, *wo); err != nil {
			log.Printf("enqueue created event for work order %s failed: %v", wo.ID, err)
		}
	}
	return wo, nil
}
