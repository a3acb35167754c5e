package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models"
)

// ResultRepository はゲーム結果関連のデータベース操作を定義するインターフェースです。
type ResultRepository interface {
	// CreateResult は新しいゲーム結果レコードを作成します。tx が nil の場合は直接実行します。
	CreateResult(tx *sql.Tx, userID string, score, hearts int, reason string) (*models.Result, error)

	// RecordResult はセッション終了時の結果を保存します。SessionManager から呼ばれます。
	RecordResult(ctx context.Context, userID string, score, hearts int, reason string) error

	// GetTopResults は上位N件の結果を取得します（ランキング用）
	GetTopResults(limit int) ([]models.ResultResponse, error)

	// GetUserBestScore は指定したユーザーの最高スコアを取得します
	GetUserBestScore(userID string) (*models.Result, error)

	// GetUserRanking は指定したユーザーの現在のランキング順位を取得します
	GetUserRanking(userID string) (*models.ResultResponse, error)
}

// resultRepositoryImpl はResultRepositoryインターフェースの実装です。
type resultRepositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

// NewResultRepository はResultRepositoryの新しいインスタンスを作成します。
func NewResultRepository(db *sql.DB) ResultRepository {
	return &resultRepositoryImpl{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const insertResultQuery = `INSERT INTO results (user_id, score, hearts, reason, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`

// CreateResult は新しいゲーム結果レコードを作成します。
func (r *resultRepositoryImpl) CreateResult(tx *sql.Tx, userID string, score, hearts int, reason string) (*models.Result, error) {
	now := r.now()

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRow(insertResultQuery, userID, score, hearts, reason, now)
	} else {
		row = r.db.QueryRow(insertResultQuery, userID, score, hearts, reason, now)
	}

	var id int64
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("ゲーム結果レコードの作成に失敗しました: %w", err)
	}

	return &models.Result{
		ID:        id,
		UserID:    userID,
		Score:     score,
		Hearts:    hearts,
		Reason:    reason,
		CreatedAt: now,
	}, nil
}

// RecordResult は CreateResult をコンテキスト付きで実行します。
func (r *resultRepositoryImpl) RecordResult(ctx context.Context, userID string, score, hearts int, reason string) error {
	var id int64
	err := r.db.QueryRowContext(ctx, insertResultQuery, userID, score, hearts, reason, r.now()).Scan(&id)
	if err != nil {
		return fmt.Errorf("ゲーム結果の記録に失敗しました: %w", err)
	}
	return nil
}

// GetTopResults は上位N件の結果を取得します（ランキング用）。
func (r *resultRepositoryImpl) GetTopResults(limit int) ([]models.ResultResponse, error) {
	query := `
		SELECT
			id, user_id, score, hearts, reason, created_at,
			ROW_NUMBER() OVER (ORDER BY score DESC, created_at ASC) AS rank
		FROM results
		ORDER BY score DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("ゲーム結果取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := []models.ResultResponse{}
	for rows.Next() {
		var res models.ResultResponse
		if err := rows.Scan(&res.ID, &res.UserID, &res.Score, &res.Hearts, &res.Reason, &res.CreatedAt, &res.Rank); err != nil {
			return nil, fmt.Errorf("ゲーム結果データのスキャンに失敗しました: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ゲーム結果取得中にエラーが発生しました: %w", err)
	}
	return results, nil
}

// GetUserBestScore は指定したユーザーの最高スコアを取得します。
// スコアが存在しない場合は nil, nil を返します。
func (r *resultRepositoryImpl) GetUserBestScore(userID string) (*models.Result, error) {
	query := `
		SELECT id, user_id, score, hearts, reason, created_at
		FROM results
		WHERE user_id = $1
		ORDER BY score DESC, created_at ASC
		LIMIT 1
	`

	var res models.Result
	err := r.db.QueryRow(query, userID).Scan(&res.ID, &res.UserID, &res.Score, &res.Hearts, &res.Reason, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの最高スコア取得に失敗しました: %w", err)
	}
	return &res, nil
}

// GetUserRanking は指定したユーザーの最高スコアでのランキング順位を取得します。
func (r *resultRepositoryImpl) GetUserRanking(userID string) (*models.ResultResponse, error) {
	best, err := r.GetUserBestScore(userID)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, nil
	}

	query := `
		SELECT COUNT(*) + 1
		FROM results
		WHERE score > $1 OR (score = $1 AND created_at < $2)
	`
	var rank int
	if err := r.db.QueryRow(query, best.Score, best.CreatedAt).Scan(&rank); err != nil {
		return nil, fmt.Errorf("ユーザーランキング順位の計算に失敗しました: %w", err)
	}

	return &models.ResultResponse{
		ID:        best.ID,
		UserID:    best.UserID,
		Score:     best.Score,
		Hearts:    best.Hearts,
		Reason:    best.Reason,
		CreatedAt: best.CreatedAt,
		Rank:      rank,
	}, nil
}
