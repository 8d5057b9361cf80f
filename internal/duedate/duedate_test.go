package duedate

import (
	"testing"
	"time"

	"MaintenanceHub/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 8, 30, 0, 0, time.UTC)
}

func TestNextDueDateByFrequency(t *testing.T) {
	cases := []struct {
		name string
		cur  time.Time
		freq domain.Frequency
		want time.Time
	}{
		{"daily", date(2024, time.January, 1), domain.FrequencyDaily, date(2024, time.January, 2)},
		{"weekly", date(2024, time.January, 1), domain.FrequencyWeekly, date(2024, time.January, 8)},
		{"monthly", date(2024, time.March, 15), domain.FrequencyMonthly, date(2024, time.April, 15)},
		{"yearly", date(2024, time.March, 15), domain.FrequencyYearly, date(2025, time.March, 15)},
		// 月末收敛
		{"monthly clamp jan31", date(2024, time.January, 31), domain.FrequencyMonthly, date(2024, time.February, 29)},
		{"monthly clamp jan31 non-leap", date(2025, time.January, 31), domain.FrequencyMonthly, date(2025, time.February, 28)},
		{"monthly clamp oct31", date(2024, time.October, 31), domain.FrequencyMonthly, date(2024, time.November, 30)},
		{"monthly year rollover", date(2024, time.December, 15), domain.FrequencyMonthly, date(2025, time.January, 15)},
		// 闰年收敛
		{"yearly clamp feb29", date(2024, time.February, 29), domain.FrequencyYearly, date(2025, time.February, 28)},
	}
	for _, tc := range cases {
		got, err := NextDueDate(tc.cur, tc.freq)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNextDueDateStrictlyForward(t *testing.T) {
	freqs := []domain.Frequency{
		domain.FrequencyDaily, domain.FrequencyWeekly,
		domain.FrequencyMonthly, domain.FrequencyYearly,
	}
	// 覆盖月末、闰日等边界日期
	starts := []time.Time{
		date(2023, time.December, 31),
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.June, 1),
	}
	for _, f := range freqs {
		for _, cur := range starts {
			// 连续推进多个周期，每一步都必须严格向后
			for i := 0; i < 36; i++ {
				next, err := NextDueDate(cur, f)
				if err != nil {
					t.Fatalf("freq=%s cur=%v: %v", f, cur, err)
				}
				if !next.After(cur) {
					t.Fatalf("freq=%s: next %v not after cur %v", f, next, cur)
				}
				cur = next
			}
		}
	}
}

func TestNextDueDatePreservesTimeOfDay(t *testing.T) {
	cur := time.Date(2024, time.January, 31, 14, 45, 10, 0, time.UTC)
	next, err := NextDueDate(cur, domain.FrequencyMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Hour() != 14 || next.Minute() != 45 || next.Second() != 10 {
		t.Fatalf("time of day not preserved: %v", next)
	}
}

func TestNextDueDateUnknownFrequency(t *testing.T) {
	_, err := NextDueDate(date(2024, time.January, 1), domain.Frequency("hourly"))
	if err == nil {
		t.Fatal("expected error for unknown frequency")
	}
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got kind %q", domain.KindOf(err))
	}
}
