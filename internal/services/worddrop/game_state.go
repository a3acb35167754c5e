package worddrop

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

// Phase はセッションの進行段階です。
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseCountdown Phase = "countdown"
	PhaseRunning   Phase = "running"
	PhaseGameOver  Phase = "game_over"
)

// Reason はゲーム終了の理由です。
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonOverflow Reason = "Stack Overflow" // スポーンまたはドロップ先の列が最上段まで埋まった
	ReasonTimeUp   Reason = "Time Up"        // 残り時間が0になった
	ReasonAborted  Reason = "Aborted"        // サーバー側で中断（結果は記録しない）
)

// CellView は盤面スナップショットの1マス分です。
type CellView struct {
	ID       string            `json:"id"`
	Word     string            `json:"word"`
	Category worddrop.Category `json:"category"`
}

// PieceView は落下中のピースのスナップショットです。
type PieceView struct {
	ID       string            `json:"id"`
	Word     string            `json:"word"`
	Category worddrop.Category `json:"category"`
	Row      int               `json:"row"`
	Col      int               `json:"col"`
}

// Snapshot はレンダラーに渡す読み取り専用の状態です。Grid[row][col] が nil のマスは空です。
type Snapshot struct {
	Rows         int           `json:"rows"`
	Cols         int           `json:"cols"`
	Grid         [][]*CellView `json:"grid"`
	Piece        *PieceView    `json:"piece"`
	Phase        Phase         `json:"phase"`
	Countdown    int           `json:"countdown,omitempty"`
	Score        int           `json:"score"`
	Hearts       int           `json:"hearts"`
	TimeLeft     int           `json:"time_left"`
	DropInterval int64         `json:"drop_interval_ms"`
	Reason       Reason        `json:"reason,omitempty"`
}

// Session は1プレイ分のゲームです。
// Engine・ScoringPolicy・Scheduler を所有し、Idle → Countdown → Running → GameOver の状態遷移を管理します。
// タイマーのコールバックとコマンドは全て mu の内側で直列に実行されます。
type Session struct {
	id       string
	settings Settings
	engine   *Engine
	scoring  ScoringPolicy
	sched    *Scheduler
	clock    Clock
	listener Listener

	mu      sync.Mutex
	emitMu  sync.Mutex // イベント配信を発生順に直列化する
	pending []Event

	phase        Phase
	reason       Reason
	score        int
	hearts       int
	timeLeft     int
	countdown    int
	dropInterval time.Duration
	startedAt    time.Time
	endedAt      time.Time
}

type sessionOptions struct {
	clock    Clock
	rng      Randomizer
	words    worddrop.WordBank
	listener Listener
	newID    func() string
}

// Option は NewSession のオプションです。
type Option func(*sessionOptions)

// WithClock は時刻源を差し替えます。
func WithClock(c Clock) Option { return func(o *sessionOptions) { o.clock = c } }

// WithRandomizer はカテゴリ・単語選択の乱数源を差し替えます。
func WithRandomizer(r Randomizer) Option { return func(o *sessionOptions) { o.rng = r } }

// WithWordBank は単語プールを差し替えます。
func WithWordBank(wb worddrop.WordBank) Option { return func(o *sessionOptions) { o.words = wb } }

// WithListener はイベントの受け取り先を設定します。
func WithListener(l Listener) Option { return func(o *sessionOptions) { o.listener = l } }

// WithIDGenerator はブロックIDの生成関数を差し替えます。
func WithIDGenerator(f func() string) Option { return func(o *sessionOptions) { o.newID = f } }

// NewSession は Idle 状態の新しいセッションを作成します。
//
// Parameters:
//   id       : セッションID（ルームID）
//   settings : ゲームパラメータ
//   opts     : 時刻源・乱数源・単語プール・リスナーなどの差し替え
// Returns:
//   *Session: Idle状態のセッション
//   error   : パラメータまたは単語プールが不正な場合
func NewSession(id string, settings Settings, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game settings: %w", err)
	}

	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = RealClock()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.words == nil {
		o.words = worddrop.DefaultWordBank()
	}
	if err := o.words.Validate(); err != nil {
		return nil, fmt.Errorf("invalid word bank: %w", err)
	}

	s := &Session{
		id:           id,
		settings:     settings,
		engine:       NewEngine(settings.Rows, settings.Cols, settings.ClearThreshold, o.words, o.rng, o.newID),
		scoring:      NewScoringPolicy(settings.HeartThreshold),
		clock:        o.clock,
		listener:     o.listener,
		phase:        PhaseIdle,
		timeLeft:     settings.durationSeconds(),
		dropInterval: settings.InitialDropInterval,
	}
	s.sched = NewScheduler(o.clock, s.withLock)
	return s, nil
}

// withLock は f を排他制御の内側で実行し、その間に発生したイベントを発生順にリスナーへ配信します。
// mu を手放す前に emitMu を取るため、次の更新のイベントが先に配信されることはありません。
func (s *Session) withLock(f func()) {
	s.mu.Lock()
	f()
	events := s.pending
	s.pending = nil
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	if s.listener == nil {
		return
	}
	for _, e := range events {
		s.listener.OnEvent(e)
	}
}

// emit はイベントを配信待ちに積みます。mu の内側から呼び出します。
func (s *Session) emit(e Event) {
	e.SessionID = s.id
	e.Score = s.score
	e.Hearts = s.hearts
	s.pending = append(s.pending, e)
}

func (s *Session) emitState() {
	snap := s.snapshotLocked()
	s.emit(Event{Type: EventState, Snapshot: &snap})
}

func (s *Session) setPhase(p Phase) {
	s.phase = p
	log.Debug().Str("component", "Session").Str("session_id", s.id).Str("phase", string(p)).Msg("phase changed")
}

// Start はカウントダウンを開始します。Idle 以外では何もせず false を返します。
func (s *Session) Start() bool {
	started := false
	s.withLock(func() {
		if s.phase != PhaseIdle {
			return
		}
		started = true
		s.sched.Start()
		s.setPhase(PhaseCountdown)
		s.countdown = s.settings.CountdownSteps
		if s.countdown <= 0 {
			s.beginRunning()
			return
		}
		s.emit(Event{Type: EventCountdown, Countdown: s.countdown})
		s.sched.Every(taskCountdown, s.settings.CountdownStep, s.onCountdownTick)
	})
	return started
}

// Move はアクティブピースを左右に動かします。Running 以外、または動けない場合は false を返します。
func (s *Session) Move(direction int) bool {
	moved := false
	s.withLock(func() {
		if s.phase != PhaseRunning {
			return
		}
		if moved = s.engine.Move(direction); moved {
			s.emitState()
		}
	})
	return moved
}

// RequestDrop はアクティブピースをハードドロップします。Running 以外では false を返します。
func (s *Session) RequestDrop() bool {
	dropped := false
	s.withLock(func() {
		if s.phase != PhaseRunning {
			return
		}
		dropped = true
		s.dropLocked()
	})
	return dropped
}

// Abort はセッションを中断します。タイマーを全て止め、game_over イベントは送りません。
// 既に終了している場合は false を返します。
func (s *Session) Abort() bool {
	aborted := false
	s.withLock(func() {
		if s.phase == PhaseGameOver {
			return
		}
		aborted = true
		s.endLocked(ReasonAborted)
	})
	return aborted
}

// endLocked はセッションを GameOver に遷移させ、スケジューラを同期的に停止します。
func (s *Session) endLocked(reason Reason) {
	if s.phase == PhaseGameOver {
		return
	}
	s.sched.Stop()
	s.reason = reason
	s.endedAt = s.clock.Now()
	s.setPhase(PhaseGameOver)

	if reason == ReasonAborted {
		return
	}
	snap := s.snapshotLocked()
	s.emit(Event{Type: EventGameOver, Reason: reason, Snapshot: &snap})
}

// Snapshot は現在の盤面とHUDの値を返します。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// StateEvent は現在の状態を state イベントとして返します。接続直後のクライアントへの初期送信に使います。
func (s *Session) StateEvent() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	return Event{Type: EventState, SessionID: s.id, Score: s.score, Hearts: s.hearts, Snapshot: &snap}
}

func (s *Session) snapshotLocked() Snapshot {
	g := s.engine.Grid()
	snap := Snapshot{
		Rows:         g.Rows(),
		Cols:         g.Cols(),
		Grid:         make([][]*CellView, g.Rows()),
		Phase:        s.phase,
		Score:        s.score,
		Hearts:       s.hearts,
		TimeLeft:     s.timeLeft,
		DropInterval: s.dropInterval.Milliseconds(),
		Reason:       s.reason,
	}
	if s.phase == PhaseCountdown {
		snap.Countdown = s.countdown
	}
	for r := 0; r < g.Rows(); r++ {
		row := make([]*CellView, g.Cols())
		for c := 0; c < g.Cols(); c++ {
			if b := g.At(r, c); b != nil {
				row[c] = &CellView{ID: b.ID, Word: b.Word, Category: b.Category}
			}
		}
		snap.Grid[r] = row
	}
	if p := s.engine.Current(); p != nil {
		snap.Piece = &PieceView{ID: p.ID, Word: p.Word, Category: p.Category, Row: p.Row, Col: p.Col}
	}
	return snap
}

func (s *Session) ID() string { return s.id }

// Phase は現在の進行段階を返します。
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result は最終（または現在）のスコア・ハート・終了理由を返します。
func (s *Session) Result() (score, hearts int, reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.hearts, s.reason
}

// Times はゲーム開始・終了時刻を返します。未到達の場合はゼロ値です。
func (s *Session) Times() (startedAt, endedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt, s.endedAt
}
