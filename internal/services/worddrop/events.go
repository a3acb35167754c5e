package worddrop

// EventType はセッションが外部に通知するイベントの種類です。
type EventType string

const (
	EventCountdown EventType = "countdown" // カウントダウンの1段
	EventStarted   EventType = "started"   // 最初のピースが出現しゲーム開始
	EventState     EventType = "state"     // 盤面・HUDの更新
	EventClear     EventType = "clear"     // クラスター消去（効果音のトリガー）
	EventSpeedUp   EventType = "speed_up"  // 落下間隔の短縮
	EventGameOver  EventType = "game_over" // ゲーム終了（最終スコア・ハート）
)

// Event はセッションから Listener に届くイベントです。
// Score と Hearts はイベント発生時点の値が常に入ります。
type Event struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"session_id"`
	Countdown    int       `json:"countdown,omitempty"`
	Cleared      int       `json:"cleared,omitempty"`
	Score        int       `json:"score"`
	Hearts       int       `json:"hearts"`
	HeartGained  bool      `json:"heart_gained,omitempty"`
	Reason       Reason    `json:"reason,omitempty"`
	DropInterval int64     `json:"drop_interval_ms,omitempty"`
	Snapshot     *Snapshot `json:"snapshot,omitempty"`
}

// Listener はセッションのイベントを受け取ります。
// OnEvent の中から同じ Session のコマンド（Start, Move, RequestDrop, Abort）を同期的に呼び出してはいけません。
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc は関数を Listener として使うためのアダプタです。
type ListenerFunc func(e Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }
