package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlignedSchedulerNextTimes(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

	s := &AlignedScheduler{Interval: Interval{Duration: time.Hour}, Offset: 10 * time.Second}
	nextClose, wakeAt, untilClose, wait := s.nextTimes(now)
	assert.Equal(t, time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC), nextClose)
	assert.Equal(t, nextClose.Add(10*time.Second), wakeAt)
	assert.Equal(t, 30*time.Minute, untilClose)
	assert.Equal(t, 30*time.Minute+10*time.Second, wait)
}

// 月线调度对齐到下个月初，而不是按分钟轮询。
func TestAlignedSchedulerNextTimesMonthly(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

	s := &AlignedScheduler{Interval: Interval{Months: 1}, Offset: 10 * time.Second}
	nextClose, wakeAt, untilClose, wait := s.nextTimes(now)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), nextClose)
	assert.Equal(t, nextClose.Add(10*time.Second), wakeAt)
	assert.Equal(t, nextClose.Sub(now), untilClose)
	assert.Equal(t, wakeAt.Sub(now), wait)
	assert.Greater(t, untilClose, 24*time.Hour)
}
