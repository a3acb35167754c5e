package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models"
)

// WordRepository は単語バンク関連のデータベース操作を定義するインターフェースです。
type WordRepository interface {
	GetAllWords(tx *sql.Tx) ([]models.WordEntry, error)
	DeleteWordsByCategory(tx *sql.Tx, category string) error
	BulkInsertWords(tx *sql.Tx, category string, words []string) error
}

// wordRepositoryImpl はWordRepositoryインターフェースの実装です。
type wordRepositoryImpl struct {
	db *sql.DB
}

// NewWordRepository はWordRepositoryの新しいインスタンスを作成します。
func NewWordRepository(db *sql.DB) WordRepository {
	return &wordRepositoryImpl{db: db}
}

// GetAllWords は登録されている全ての単語をカテゴリ順に取得します。
func (r *wordRepositoryImpl) GetAllWords(tx *sql.Tx) ([]models.WordEntry, error) {
	query := `SELECT category, word FROM word_bank ORDER BY category ASC, id ASC`

	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(query)
	} else {
		rows, err = r.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("単語バンクの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []models.WordEntry
	for rows.Next() {
		var e models.WordEntry
		if err := rows.Scan(&e.Category, &e.Word); err != nil {
			return nil, fmt.Errorf("単語データのスキャンに失敗しました: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("単語バンク取得中にエラーが発生しました: %w", err)
	}
	return entries, nil
}

// DeleteWordsByCategory は指定カテゴリの単語を全て削除します。
func (r *wordRepositoryImpl) DeleteWordsByCategory(tx *sql.Tx, category string) error {
	if _, err := tx.Exec(`DELETE FROM word_bank WHERE category = $1`, category); err != nil {
		return fmt.Errorf("カテゴリ %q の単語削除に失敗しました: %w", category, err)
	}
	return nil
}

// BulkInsertWords は複数の単語を一度に挿入します。
func (r *wordRepositoryImpl) BulkInsertWords(tx *sql.Tx, category string, words []string) error {
	if len(words) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`INSERT INTO word_bank (category, word, created_at) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("一括挿入のためのプリペアードステートメントの準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, w := range words {
		if _, err := stmt.Exec(category, w, now); err != nil {
			return fmt.Errorf("単語 %q の挿入に失敗しました: %w", w, err)
		}
	}
	return nil
}
