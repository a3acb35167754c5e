package worddrop

import (
	"math"
	"time"
)

// NextDropInterval はスピードアップ1回分の落下間隔を計算して返します。
// ミリ秒単位に丸め、floor を下回らないようにします。
func NextDropInterval(current time.Duration, factor float64, floor time.Duration) time.Duration {
	next := time.Duration(math.Round(float64(current.Milliseconds())*factor)) * time.Millisecond
	if next < floor {
		next = floor
	}
	return next
}

// ApplyPlayerInput はクライアントから届いたアクション文字列をセッションのコマンドに変換して適用します。
//
// Parameters:
//   session : 操作対象のセッション
//   action  : "move_left", "move_right", "drop"（"hard_drop" も可）
// Returns:
//   bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func ApplyPlayerInput(session *Session, action string) bool {
	switch action {
	case "move_left":
		return session.Move(-1)
	case "move_right":
		return session.Move(1)
	case "drop", "hard_drop":
		return session.RequestDrop()
	default:
		return false
	}
}

// onCountdownTick はカウントダウン1段ごとに呼ばれます。0になったらゲームを開始します。
func (s *Session) onCountdownTick() {
	if s.phase != PhaseCountdown {
		return
	}
	s.countdown--
	if s.countdown > 0 {
		s.emit(Event{Type: EventCountdown, Countdown: s.countdown})
		return
	}
	s.sched.Cancel(taskCountdown)
	s.beginRunning()
}

// beginRunning は最初のピースを出現させ、時計・自動落下・スピードアップのタイマーを開始します。
// 最初のスポーンに失敗した場合はそのままオーバーフローで終了します。
func (s *Session) beginRunning() {
	if _, ok := s.engine.Spawn(); !ok {
		s.endLocked(ReasonOverflow)
		return
	}
	s.setPhase(PhaseRunning)
	s.startedAt = s.clock.Now()

	s.sched.Every(taskClock, s.settings.ClockTick, s.onClockTick)
	s.sched.Every(taskDescent, s.dropInterval, s.onDescent)
	s.sched.Every(taskSpeedUp, s.settings.SpeedUpPeriod, s.onSpeedUp)

	snap := s.snapshotLocked()
	s.emit(Event{Type: EventStarted, DropInterval: s.dropInterval.Milliseconds(), Snapshot: &snap})
}

// onClockTick は残り時間を1秒減らし、0になったら TimeUp で終了します。
func (s *Session) onClockTick() {
	if s.phase != PhaseRunning {
		return
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.endLocked(ReasonTimeUp)
		return
	}
	s.emitState()
}

// onDescent は自動落下のタイミングでアクティブピースを強制的にドロップします。
func (s *Session) onDescent() {
	if s.phase != PhaseRunning {
		return
	}
	s.dropLocked()
}

// onSpeedUp は落下間隔を短縮し、自動落下のタイマーを新しい間隔で張り直します。
// 下限に達していて間隔が変わらない場合は何もしません。
func (s *Session) onSpeedUp() {
	if s.phase != PhaseRunning {
		return
	}
	next := NextDropInterval(s.dropInterval, s.settings.SpeedUpFactor, s.settings.MinDropInterval)
	if next == s.dropInterval {
		return
	}
	s.dropInterval = next
	s.replaceDescent()
	s.emit(Event{Type: EventSpeedUp, DropInterval: next.Milliseconds()})
}

// replaceDescent は古い自動落下タイマーを止めてから新しい間隔で登録し直します。
func (s *Session) replaceDescent() {
	s.sched.Cancel(taskDescent)
	s.sched.Every(taskDescent, s.dropInterval, s.onDescent)
}

// dropLocked はハードドロップ1回分の処理をすべて行います。
// 着地・クラスター消去・スコア加算・次のピース生成・オーバーフロー判定が含まれます。
func (s *Session) dropLocked() {
	res := s.engine.HardDrop()
	if res.Overflow {
		s.endLocked(ReasonOverflow)
		return
	}

	if res.Cleared {
		upd := s.scoring.OnClear(s.score, s.hearts)
		s.score, s.hearts = upd.Score, upd.Hearts
		s.emit(Event{Type: EventClear, Cleared: res.ClearedCells, HeartGained: upd.HeartGained})
	}

	if _, ok := s.engine.Spawn(); !ok {
		s.endLocked(ReasonOverflow)
		return
	}
	s.emitState()
}
