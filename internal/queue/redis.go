// Package queue 提供生成引擎用到的 Redis 配套设施：
// 运行锁（避免多个生成器实例同时扫描）、新建工单事件队列
// （通知侧消费，用于给管理员推送待分配提醒）、生成运行指标
package queue

import (
	"context"
	"encoding/json"
	"time"

	"MaintenanceHub/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CreatedKey 新建工单事件队列的 key
// 事件为 JSON，消费方（通知服务）用 BLPOP 取走
func CreatedKey() string {
	return "workorders:created"
}

// GenerateLockKey 生成运行锁的 key
func GenerateLockKey() string {
	return "lock:workorder_generate"
}

// Connect 建立 Redis 连接并做一次 PING 验证
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// AcquireLock 以 SET NX 抢占带 TTL 的锁，owner 用于释放时校验归属
func AcquireLock(ctx context.Context, rdb *redis.Client, key, owner string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, owner, ttl).Result()
}

// releaseScript 只在持有者匹配时删除锁，避免释放掉别人抢到的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseLock 释放锁，返回是否真的删除了（持有者不匹配时返回 false）
func ReleaseLock(ctx context.Context, rdb *redis.Client, key, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, rdb, []string{key}, owner).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CreatedEvent 工单生成事件
type CreatedEvent struct {
	WorkOrderID string    `json:"work_order_id"`
	ScheduleID  string    `json:"schedule_id,omitempty"`
	Title       string    `json:"title"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// Events 把生成引擎的事件与指标写到 Redis，实现 generator.EventSink
type Events struct {
	rdb *redis.Client
}

func NewEvents(rdb *redis.Client) *Events {
	return &Events{rdb: rdb}
}

// WorkOrderCreated 将新建工单事件入队
func (e *Events) WorkOrderCreated(ctx context.Context, wo domain.WorkOrder) error {
	ev := CreatedEvent{
		WorkOrderID: wo.ID.String(),
		Title:       wo.Title,
		Priority:    string(wo.Priority),
		CreatedAt:   time.Now().UTC(),
	}
	if wo.ScheduleID != nil {
		ev.ScheduleID = wo.ScheduleID.String()
	}
	b, _ := json.Marshal(ev)
	return e.rdb.RPush(ctx, CreatedKey(), string(b)).Err()
}

// RecordRun 记录一次生成运行的指标：累计运行次数 + 最近一次运行的概要
func (e *Events) RecordRun(ctx context.Context, runAt time.Time, scanned, created, failed int) error {
	if err := e.rdb.Incr(ctx, "metrics:generator:runs").Err(); err != nil {
		return err
	}
	return e.rdb.HSet(ctx, "metrics:generator:last", map[string]any{
		"time":    runAt.Format(time.RFC3339),
		"scanned": scanned,
		"created": created,
		"failed":  failed,
	}).Err()
}

func heartbeatKey(instanceID string) string {
	return "generator:" + instanceID + ":heartbeat"
}

// StartHeartbeat 周期刷新生成器实例的心跳键（TTL=ttl，刷新间隔=interval）
func StartHeartbeat(ctx context.Context, rdb *redis.Client, instanceID string, ttl, interval time.Duration) {
	tkr := time.NewTicker(interval)
	defer tkr.Stop()
	_ = rdb.Set(ctx, heartbeatKey(instanceID), "1", ttl).Err()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tkr.C:
			_ = rdb.Set(ctx, heartbeatKey(instanceID), "1", ttl).Err()
		}
	}
}
