package worddrop

import (
	"errors"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

const (
	DefaultGameDuration        = 90 * time.Second
	DefaultHeartThreshold      = 10
	DefaultInitialDropInterval = 1200 * time.Millisecond
	DefaultSpeedUpFactor       = 0.97
	DefaultSpeedUpPeriod       = 5 * time.Second
	DefaultMinDropInterval     = 100 * time.Millisecond
	DefaultCountdownSteps      = 3
	DefaultCountdownStep       = 900 * time.Millisecond
	DefaultClockTick           = time.Second
)

// Settings はセッション1回分のゲームパラメータです。
type Settings struct {
	Rows           int
	Cols           int
	ClearThreshold int // クラスター消去に必要な最小ブロック数

	Duration       time.Duration // 制限時間
	HeartThreshold int           // ハート獲得のスコア間隔（0以下で無効）

	InitialDropInterval time.Duration // 自動落下の初期間隔
	SpeedUpFactor       float64       // スピードアップ時に落下間隔に掛ける係数
	SpeedUpPeriod       time.Duration // スピードアップの周期
	MinDropInterval     time.Duration // 落下間隔の下限

	CountdownSteps int           // カウントダウンの段数（0なら即開始）
	CountdownStep  time.Duration // カウントダウン1段の長さ
	ClockTick      time.Duration // 残り時間を1秒減らす間隔
}

// DefaultSettings はデフォルトのゲームパラメータを返します。
func DefaultSettings() Settings {
	return Settings{
		Rows:                worddrop.DefaultRows,
		Cols:                worddrop.DefaultCols,
		ClearThreshold:      worddrop.DefaultClearThreshold,
		Duration:            DefaultGameDuration,
		HeartThreshold:      DefaultHeartThreshold,
		InitialDropInterval: DefaultInitialDropInterval,
		SpeedUpFactor:       DefaultSpeedUpFactor,
		SpeedUpPeriod:       DefaultSpeedUpPeriod,
		MinDropInterval:     DefaultMinDropInterval,
		CountdownSteps:      DefaultCountdownSteps,
		CountdownStep:       DefaultCountdownStep,
		ClockTick:           DefaultClockTick,
	}
}

// Validate はパラメータの整合性を検証します。
func (s Settings) Validate() error {
	var errs []error
	if s.Rows < 1 || s.Cols < 1 {
		errs = append(errs, fmt.Errorf("grid size must be positive: %dx%d", s.Rows, s.Cols))
	}
	if s.ClearThreshold < 1 {
		errs = append(errs, fmt.Errorf("clear threshold must be >= 1: %d", s.ClearThreshold))
	}
	if s.Duration < time.Second {
		errs = append(errs, fmt.Errorf("duration must be at least 1s: %s", s.Duration))
	}
	if s.InitialDropInterval <= 0 || s.MinDropInterval <= 0 {
		errs = append(errs, errors.New("drop intervals must be positive"))
	}
	if s.MinDropInterval > s.InitialDropInterval {
		errs = append(errs, fmt.Errorf("min drop interval %s exceeds initial %s", s.MinDropInterval, s.InitialDropInterval))
	}
	if s.SpeedUpFactor <= 0 || s.SpeedUpFactor > 1 {
		errs = append(errs, fmt.Errorf("speed-up factor must be in (0, 1]: %v", s.SpeedUpFactor))
	}
	if s.SpeedUpPeriod <= 0 {
		errs = append(errs, errors.New("speed-up period must be positive"))
	}
	if s.CountdownSteps < 0 || (s.CountdownSteps > 0 && s.CountdownStep <= 0) {
		errs = append(errs, errors.New("invalid countdown"))
	}
	if s.ClockTick <= 0 {
		errs = append(errs, errors.New("clock tick must be positive"))
	}
	return errors.Join(errs...)
}

// durationSeconds は制限時間を秒単位の残り時間に変換します。
func (s Settings) durationSeconds() int {
	return int(s.Duration / time.Second)
}
