package worddrop

import "time"

// Timer は Clock.AfterFunc が返すタイマーです。*time.Timer はこのインターフェースを満たします。
type Timer interface {
	// Stop はタイマーを停止します。既に発火済み・停止済みなら false を返します。
	Stop() bool
}

// Clock はスケジューラが使う時刻源です。
// 本番では time パッケージを、テストでは仮想時間を進める実装を注入します。
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// RealClock は time.Now / time.AfterFunc をそのまま使う Clock を返します。
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
