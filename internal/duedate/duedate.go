// Package duedate 计算维护计划的下一次到期时间
// 纯函数，无副作用，生成引擎在推进 next_due_date 时调用
package duedate

import (
	"time"

	"MaintenanceHub/internal/domain"
)

// NextDueDate 根据频率计算当前到期时间的下一个周期
// daily/weekly 直接加天数；monthly/yearly 保持日号不变，
// 目标月份天数不足时收敛到该月最后一天（1/31 -> 2/28、闰年 2/29 -> 平年 2/28），
// 保证结果严格晚于输入且不会跳过某个月份
// 频率非法视为数据完整性故障，返回 validation 错误，调用方不应重试
func NextDueDate(cur time.Time, f domain.Frequency) (time.Time, error) {
	switch f {
	case domain.FrequencyDaily:
		return cur.AddDate(0, 0, 1), nil
	case domain.FrequencyWeekly:
		return cur.AddDate(0, 0, 7), nil
	case domain.FrequencyMonthly:
		return addClamped(cur, 0, 1), nil
	case domain.FrequencyYearly:
		return addClamped(cur, 1, 0), nil
	}
	return time.Time{}, domain.Validationf("未知的维护频率: %q", f)
}

// addClamped 加 years 年 months 月，日号超出目标月份时收敛到月末
// 不用 AddDate：AddDate 会把溢出天数滚动到下个月（1/31 +1月 = 3/2 或 3/3）
func addClamped(t time.Time, years, months int) time.Time {
	first := time.Date(t.Year()+years, t.Month()+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
