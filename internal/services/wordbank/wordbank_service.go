package wordbank

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

const (
	SourceDatabase = "database"
	SourceDefault  = "default"
)

var (
	ErrInvalidCategory = errors.New("不正なカテゴリです")
	ErrEmptyWords      = errors.New("単語が1つもありません")
	ErrNoDatabase      = errors.New("データベースが設定されていません")
)

// Service は単語バンクを保持し、ゲームセッションに提供します。
// データベースが無い場合や未登録のカテゴリはデフォルトの単語プールを使います。
type Service struct {
	db   *sql.DB
	repo database.WordRepository

	mu     sync.RWMutex
	bank   worddrop.WordBank
	source string
}

// NewService は Service を作成します。db と repo は nil でも構いません。
// 作成直後はデフォルトの単語バンクを返します。Load で DB の内容を読み込みます。
func NewService(db *sql.DB, repo database.WordRepository) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		bank:   worddrop.DefaultWordBank(),
		source: SourceDefault,
	}
}

// Load はリポジトリから単語バンクを読み込み直します。
// 登録の無いカテゴリはデフォルトのプールで補います。
func (s *Service) Load() error {
	if s.repo == nil {
		return nil
	}
	entries, err := s.repo.GetAllWords(nil)
	if err != nil {
		return fmt.Errorf("単語バンクの読み込みに失敗しました: %w", err)
	}

	bank := make(worddrop.WordBank)
	for _, e := range entries {
		cat, ok := worddrop.StringToCategory(e.Category)
		if !ok {
			log.Warn().Str("component", "WordBankService").Str("category", e.Category).Msg("skipping word with unknown category")
			continue
		}
		bank[cat] = append(bank[cat], e.Word)
	}

	source := SourceDefault
	if len(bank) > 0 {
		source = SourceDatabase
	}
	defaults := worddrop.DefaultWordBank()
	for _, cat := range worddrop.Categories {
		if len(bank[cat]) == 0 {
			bank[cat] = defaults[cat]
		}
	}

	s.mu.Lock()
	s.bank = bank
	s.source = source
	s.mu.Unlock()

	log.Info().Str("component", "WordBankService").Str("source", source).Int("words", len(entries)).Msg("word bank loaded")
	return nil
}

// Current は現在の単語バンクのコピーを返します。
func (s *Service) Current() worddrop.WordBank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(worddrop.WordBank, len(s.bank))
	for cat, words := range s.bank {
		out[cat] = append([]string(nil), words...)
	}
	return out
}

// Source は現在の単語バンクの出所（"database" または "default"）を返します。
func (s *Service) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SaveCategory は指定カテゴリの単語プールを置き換えます。
// 既存の単語を削除してから新しい単語を挿入し、成功したら単語バンクを読み込み直します。
//
// Parameters:
//   - category: "noun", "verb", "adj"（"adjective" も可）
//   - words: 新しい単語プール。前後の空白は除去され、空文字と重複は捨てられます
//
// Returns:
//   - error: カテゴリや単語が不正な場合、または DB 操作に失敗した場合のエラー
func (s *Service) SaveCategory(category string, words []string) (err error) {
	cat, ok := worddrop.StringToCategory(category)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	cleaned := normalizeWords(words)
	if len(cleaned) == 0 {
		return ErrEmptyWords
	}
	if s.db == nil || s.repo == nil {
		return ErrNoDatabase
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.repo.DeleteWordsByCategory(tx, string(cat)); err != nil {
		return err
	}
	if err = s.repo.BulkInsertWords(tx, string(cat), cleaned); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	log.Info().Str("component", "WordBankService").Str("category", string(cat)).Int("words", len(cleaned)).Msg("word pool saved")

	return s.Load()
}

func normalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	var out []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
