package worddrop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestScheduler は排他制御に単純な Mutex を使う Scheduler を返します。
func newTestScheduler() (*Scheduler, *manualClock) {
	clk := newManualClock()
	var mu sync.Mutex
	exec := func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		f()
	}
	s := NewScheduler(clk, exec)
	s.Start()
	return s, clk
}

func TestScheduler_Every(t *testing.T) {
	s, clk := newTestScheduler()
	count := 0
	s.Every(taskClock, time.Second, func() { count++ })

	clk.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, clk.Pending())
}

func TestScheduler_EveryKeepsCadenceWhenCallbackIsLate(t *testing.T) {
	clk := newManualClock()
	exec := func(f func()) {
		clk.Stall(300 * time.Millisecond)
		f()
	}
	s := NewScheduler(clk, exec)
	s.Start()

	var firedAt []time.Duration
	start := clk.Now()
	s.Every(taskClock, time.Second, func() { firedAt = append(firedAt, clk.Now().Sub(start)) })

	clk.Advance(3 * time.Second)
	assert.Equal(t, []time.Duration{
		1300 * time.Millisecond,
		2300 * time.Millisecond,
		3300 * time.Millisecond,
	}, firedAt)
}

func TestScheduler_After(t *testing.T) {
	s, clk := newTestScheduler()
	count := 0
	s.After(taskCountdown, time.Second, func() { count++ })

	clk.Advance(5 * time.Second)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, clk.Pending())
}

func TestScheduler_ReplaceRetiresOldTimer(t *testing.T) {
	s, clk := newTestScheduler()
	var fired []string
	s.Every(taskDescent, time.Second, func() { fired = append(fired, "old") })
	clk.Advance(500 * time.Millisecond)

	s.Every(taskDescent, 300*time.Millisecond, func() { fired = append(fired, "new") })
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(time.Second)
	assert.Equal(t, []string{"new", "new", "new"}, fired)

	iv, ok := s.Interval(taskDescent)
	assert.True(t, ok)
	assert.Equal(t, 300*time.Millisecond, iv)
}

// Stop 済みのタイマーが既に発火してロック待ちになっていても、世代番号で無視される。
func TestScheduler_StaleFireIsIgnored(t *testing.T) {
	clk := newManualClock()
	var queued []func()
	s := NewScheduler(clk, func(f func()) { queued = append(queued, f) })
	s.Start()

	count := 0
	s.Every(taskClock, time.Second, func() { count++ })
	clk.Advance(time.Second) // 発火したがコールバックは保留

	s.Cancel(taskClock)
	for _, f := range queued {
		f()
	}
	assert.Equal(t, 0, count)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s, clk := newTestScheduler()
	count := 0
	s.Every(taskClock, time.Second, func() { count++ })
	s.Every(taskSpeedUp, 2*time.Second, func() { count++ })

	s.Stop()
	s.Stop()
	assert.False(t, s.Active())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, clk.Pending())

	s.Every(taskClock, time.Second, func() { count++ })
	clk.Advance(10 * time.Second)
	assert.Equal(t, 0, count, "nothing is scheduled after stop")
}

func TestScheduler_CancelInsideCallback(t *testing.T) {
	s, clk := newTestScheduler()
	count := 0
	s.Every(taskCountdown, 900*time.Millisecond, func() {
		count++
		if count == 3 {
			s.Cancel(taskCountdown)
		}
	})

	clk.Advance(10 * time.Second)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, clk.Pending())
}
