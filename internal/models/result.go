package models

import (
	"time"
)

// Result はresultsテーブルのレコードに対応する構造体です。
type Result struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	Hearts    int       `json:"hearts"`
	Reason    string    `json:"reason"` // "Stack Overflow" または "Time Up"
	CreatedAt time.Time `json:"created_at"`
}

// ResultResponse はランキングAPIのレスポンス用の構造体です。
type ResultResponse struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Score     int       `json:"score"`
	Hearts    int       `json:"hearts"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	Rank      int       `json:"rank"`
}

// ResultRequest はリザルト保存リクエスト用の構造体です。
type ResultRequest struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
	Hearts int    `json:"hearts"`
	Reason string `json:"reason"`
}
