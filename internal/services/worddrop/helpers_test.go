package worddrop

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualClock は Advance で仮想時間を進める Clock です。
// 期限の来たタイマーは呼び出し元のゴルーチンで時刻順に同期実行されます。
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	c       *manualClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{c: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance は仮想時間を d だけ進め、その間に期限を迎えたタイマーを順に発火させます。
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

func (c *manualClock) nextDueLocked(target time.Time) *manualTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.Slice(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	if len(c.timers) == 0 || c.timers[0].at.After(target) {
		return nil
	}
	return c.timers[0]
}

// Stall はタイマーを発火させずに現在時刻だけを d 進めます。コールバック内でロック待ちを再現するのに使います。
func (c *manualClock) Stall(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Pending は停止も発火もしていないタイマーの数を返します。
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// scriptedRand は決められた値を順番に返す Randomizer です。
type scriptedRand struct {
	seq []int
	i   int
}

func (r *scriptedRand) Intn(n int) int {
	v := r.seq[r.i%len(r.seq)]
	r.i++
	return v % n
}

// alwaysNoun は毎回 名詞・先頭の単語 を選びます。
func alwaysNoun() *scriptedRand { return &scriptedRand{seq: []int{0}} }

// alternating は 名詞, 動詞, 名詞, 動詞... の順に選びます。
func alternating() *scriptedRand { return &scriptedRand{seq: []int{0, 0, 1, 0}} }

// seqIDs は "b1", "b2", ... を返すID生成器です。
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("b%d", g.n)
}

func (g *seqIDs) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// eventRecorder は受け取ったイベントを記録する Listener です。
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) All() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *eventRecorder) Last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}

func (r *eventRecorder) Count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *eventRecorder) OfType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testSession struct {
	*Session
	clock  *manualClock
	events *eventRecorder
	ids    *seqIDs
}

func newTestSession(t *testing.T, settings Settings, rng Randomizer) *testSession {
	t.Helper()
	ts := &testSession{clock: newManualClock(), events: &eventRecorder{}, ids: &seqIDs{}}
	s, err := NewSession("room-1", settings,
		WithClock(ts.clock),
		WithRandomizer(rng),
		WithListener(ts.events),
		WithIDGenerator(ts.ids.Next),
	)
	require.NoError(t, err)
	ts.Session = s
	return ts
}

// startRunning はセッションを開始し、カウントダウンが終わるまで時間を進めます。
func (ts *testSession) startRunning(t *testing.T) {
	t.Helper()
	require.True(t, ts.Start())
	ts.clock.Advance(time.Duration(ts.settings.CountdownSteps) * ts.settings.CountdownStep)
	require.Equal(t, PhaseRunning, ts.Phase())
}
