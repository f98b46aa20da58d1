package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval 是一个 K 线周期。月线没有固定时长，Months > 0 时走日历运算，
// 其余周期用固定 Duration 表示。
type Interval struct {
	Duration time.Duration
	Months   int
}

func (iv Interval) Valid() bool {
	return iv.Months > 0 || iv.Duration > 0
}

func (iv Interval) String() string {
	if iv.Months > 0 {
		return fmt.Sprintf("%dM", iv.Months)
	}
	return iv.Duration.String()
}

// CloseTimeMs 返回以 openMs（毫秒）开盘的一根 K 线的收盘毫秒时间。
func (iv Interval) CloseTimeMs(openMs int64) int64 {
	if iv.Months > 0 {
		open := time.UnixMilli(openMs).UTC()
		return open.AddDate(0, iv.Months, 0).UnixMilli()
	}
	return openMs + iv.Duration.Milliseconds()
}

// NextClose 返回 now 之后最近的一个周期收盘时刻（UTC）。
// 月线按自然月的 1 日 00:00 UTC 对齐，其余周期沿用纪元对齐截断。
func (iv Interval) NextClose(now time.Time) time.Time {
	now = now.UTC()
	if iv.Months > 0 {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return monthStart.AddDate(0, iv.Months, 0)
	}
	return now.Truncate(iv.Duration).Add(iv.Duration)
}

// ParseInterval 解析 Binance 周期字符串："15m", "1h", "4h", "1d", "1w", "1M"。
// 单位区分大小写判定月与分钟："M" 为月，"m" 为分钟；其余单位大小写均可。
// 非法输入返回 (Interval{}, false)。
func ParseInterval(interval string) (Interval, bool) {
	interval = strings.TrimSpace(interval)
	if len(interval) < 2 {
		return Interval{}, false
	}
	unit := interval[len(interval)-1]
	numStr := strings.TrimSpace(interval[:len(interval)-1])
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return Interval{}, false
	}
	switch unit {
	case 'M':
		return Interval{Months: n}, true
	case 'm':
		return Interval{Duration: time.Duration(n) * time.Minute}, true
	case 'h', 'H':
		return Interval{Duration: time.Duration(n) * time.Hour}, true
	case 'd', 'D':
		return Interval{Duration: time.Duration(n) * 24 * time.Hour}, true
	case 'w', 'W':
		return Interval{Duration: time.Duration(n) * 7 * 24 * time.Hour}, true
	default:
		return Interval{}, false
	}
}
