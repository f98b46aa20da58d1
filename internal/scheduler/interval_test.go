package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInterval(t *testing.T) {
	cases := []struct {
		in   string
		want Interval
		ok   bool
	}{
		{"15m", Interval{Duration: 15 * time.Minute}, true},
		{"1h", Interval{Duration: time.Hour}, true},
		{"4h", Interval{Duration: 4 * time.Hour}, true},
		{"1d", Interval{Duration: 24 * time.Hour}, true},
		{"1w", Interval{Duration: 7 * 24 * time.Hour}, true},
		{" 1H ", Interval{Duration: time.Hour}, true},
		{"1M", Interval{Months: 1}, true},
		{"3M", Interval{Months: 3}, true},
		{"", Interval{}, false},
		{"h", Interval{}, false},
		{"M", Interval{}, false},
		{"0m", Interval{}, false},
		{"0M", Interval{}, false},
		{"-1h", Interval{}, false},
		{"1x", Interval{}, false},
		{"abc", Interval{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseInterval(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

// "1M" 是月线不是 1 分钟：单位判定必须先于大小写归一。
func TestParseIntervalMonthIsNotMinute(t *testing.T) {
	month, ok := ParseInterval("1M")
	assert.True(t, ok)
	assert.Equal(t, 1, month.Months)
	assert.Zero(t, month.Duration)

	minute, ok := ParseInterval("1m")
	assert.True(t, ok)
	assert.Zero(t, minute.Months)
	assert.Equal(t, time.Minute, minute.Duration)
}

func TestIntervalCloseTimeMs(t *testing.T) {
	// 固定时长周期：收盘 = 开盘 + 时长
	hourly := Interval{Duration: time.Hour}
	open := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, open.Add(time.Hour).UnixMilli(), hourly.CloseTimeMs(open.UnixMilli()))

	// 月线按日历推进，8 月有 31 天
	monthly := Interval{Months: 1}
	augOpen := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sepOpen := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sepOpen.UnixMilli(), monthly.CloseTimeMs(augOpen.UnixMilli()))

	// 2 月只有 28 天
	febOpen := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	marOpen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, marOpen.UnixMilli(), monthly.CloseTimeMs(febOpen.UnixMilli()))
}

func TestIntervalNextClose(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

	hourly := Interval{Duration: time.Hour}
	assert.Equal(t, time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC), hourly.NextClose(now))

	monthly := Interval{Months: 1}
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), monthly.NextClose(now))

	// 恰在月初边界时，下一收盘是下个月初
	monthStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), monthly.NextClose(monthStart))
}

func TestIntervalString(t *testing.T) {
	assert.Equal(t, "1M", Interval{Months: 1}.String())
	assert.Equal(t, "1h0m0s", Interval{Duration: time.Hour}.String())
}
