package worddrop

import "time"

// taskKind はスケジューラが管理する周期タスクの種類です。種類ごとに同時に1つだけ有効になります。
type taskKind int

const (
	taskCountdown taskKind = iota // カウントダウン
	taskClock                     // 残り時間
	taskDescent                   // 自動落下
	taskSpeedUp                   // スピードアップ
)

type scheduledTask struct {
	timer    Timer
	gen      uint64
	due      time.Time
	interval time.Duration
	periodic bool
	fn       func()
}

// Scheduler はセッションのタイマーを所有します。
//
// コールバックは必ず exec を通して実行されるため、Session の排他制御の内側で動きます。
// Scheduler のメソッドも同じ排他制御の内側からだけ呼び出してください。
// 各タイマーは登録時の世代番号を持ち、キャンセル・置き換え後に発火したタイマーは何もしません。
type Scheduler struct {
	clock  Clock
	exec   func(func())
	tasks  map[taskKind]*scheduledTask
	gen    uint64
	active bool
}

// NewScheduler は新しいSchedulerを作成します。
//
// Parameters:
//   clock : 時刻源
//   exec  : コールバックを排他制御の内側で実行する関数
// Returns:
//   *Scheduler: 停止状態のScheduler
func NewScheduler(clock Clock, exec func(func())) *Scheduler {
	return &Scheduler{
		clock: clock,
		exec:  exec,
		tasks: make(map[taskKind]*scheduledTask),
	}
}

// Start はタスクの登録を受け付ける状態にします。
func (s *Scheduler) Start() { s.active = true }

// Active は Stop されていないかどうかを返します。
func (s *Scheduler) Active() bool { return s.active }

// Every は interval ごとに fn を実行する周期タスクを登録します。
// 次回の発火時刻は前回の予定時刻から数えるため、排他制御の待ち時間があっても周期はずれません。
// 同じ種類のタスクが既にあれば、先にそれを止めてから登録します。
func (s *Scheduler) Every(kind taskKind, interval time.Duration, fn func()) {
	s.schedule(kind, interval, true, fn)
}

// After は d 後に一度だけ fn を実行するタスクを登録します。
func (s *Scheduler) After(kind taskKind, d time.Duration, fn func()) {
	s.schedule(kind, d, false, fn)
}

func (s *Scheduler) schedule(kind taskKind, d time.Duration, periodic bool, fn func()) {
	if !s.active {
		return
	}
	s.Cancel(kind)
	t := &scheduledTask{interval: d, periodic: periodic, fn: fn}
	s.tasks[kind] = t
	t.due = s.clock.Now().Add(d)
	s.arm(kind, t, d)
}

func (s *Scheduler) arm(kind taskKind, t *scheduledTask, delay time.Duration) {
	s.gen++
	gen := s.gen
	t.gen = gen
	t.timer = s.clock.AfterFunc(delay, func() {
		s.exec(func() { s.fire(kind, gen) })
	})
}

// fire はタイマー発火時に排他制御の内側で呼ばれます。
func (s *Scheduler) fire(kind taskKind, gen uint64) {
	t, ok := s.tasks[kind]
	if !s.active || !ok || t.gen != gen {
		return // キャンセル済みまたは置き換え済み
	}
	if t.periodic {
		t.due = t.due.Add(t.interval)
		delay := t.due.Sub(s.clock.Now())
		if delay < 0 {
			delay = 0
		}
		s.arm(kind, t, delay)
	} else {
		delete(s.tasks, kind)
	}
	t.fn()
}

// Cancel は指定した種類のタスクを止めます。登録がなければ何もしません。
func (s *Scheduler) Cancel(kind taskKind) {
	t, ok := s.tasks[kind]
	if !ok {
		return
	}
	t.timer.Stop()
	delete(s.tasks, kind)
}

// Stop は全てのタスクを止め、以後の登録を受け付けません。何度呼んでも安全です。
func (s *Scheduler) Stop() {
	s.active = false
	for kind := range s.tasks {
		s.Cancel(kind)
	}
}

// Interval は登録中のタスクの間隔を返します。
func (s *Scheduler) Interval(kind taskKind) (time.Duration, bool) {
	t, ok := s.tasks[kind]
	if !ok {
		return 0, false
	}
	return t.interval, true
}

// Len は登録中のタスク数を返します。
func (s *Scheduler) Len() int { return len(s.tasks) }
