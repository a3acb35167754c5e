package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"           // PostgreSQLドライバー
	_ "github.com/mattn/go-sqlite3" // SQLiteドライバー（ローカル開発用）
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/config"
)

// DatabaseService はデータベース接続を保持し、スキーマ管理などの共通操作を提供します。
type DatabaseService struct {
	DB     *sql.DB
	Driver string
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS results (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		hearts INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_ranking ON results (score DESC, created_at ASC)`,
	`CREATE TABLE IF NOT EXISTS word_bank (
		id BIGSERIAL PRIMARY KEY,
		category TEXT NOT NULL,
		word TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (category, word)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		score INTEGER NOT NULL,
		hearts INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_ranking ON results (score DESC, created_at ASC)`,
	`CREATE TABLE IF NOT EXISTS word_bank (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		word TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (category, word)
	)`,
}

// NewDatabaseService は指定されたドライバーでデータベースに接続し、Pingで疎通を確認します。
//
// Parameters:
//   - driver: config.DriverPostgres または config.DriverSQLite
//   - databaseURL: 接続文字列（SQLiteの場合はファイルパスまたはDSN）
//
// Returns:
//   - *DatabaseService: 接続済みのサービス
//   - error: 接続またはPingに失敗した場合のエラー
func NewDatabaseService(driver, databaseURL string) (*DatabaseService, error) {
	if driver != config.DriverPostgres && driver != config.DriverSQLite {
		return nil, fmt.Errorf("未対応のデータベースドライバーです: %q", driver)
	}
	log.Info().Str("component", "DatabaseService").Str("driver", driver).Msg("connecting to database")

	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}
	if driver == config.DriverSQLite {
		// SQLiteは単一ライターなので接続を1本に絞る
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragmas: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		log.Error().Err(err).Str("component", "DatabaseService").Msg("database ping failed")
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Info().Str("component", "DatabaseService").Str("driver", driver).Msg("database connected")
	return &DatabaseService{DB: db, Driver: driver}, nil
}

// EnsureSchema は results と word_bank テーブルが無ければ作成します。何度呼んでも安全です。
func (s *DatabaseService) EnsureSchema(ctx context.Context) error {
	stmts := postgresSchema
	if s.Driver == config.DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("スキーマの作成に失敗しました: %w", err)
		}
	}
	log.Debug().Str("component", "DatabaseService").Int("statements", len(stmts)).Msg("schema ensured")
	return nil
}

// Ping はデータベースへの疎通を確認します。
func (s *DatabaseService) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// ServerVersion はデータベースサーバーのバージョン文字列を返します。
func (s *DatabaseService) ServerVersion(ctx context.Context) (string, error) {
	query := `SELECT version()`
	if s.Driver == config.DriverSQLite {
		query = `SELECT sqlite_version()`
	}
	var version string
	if err := s.DB.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("データベースバージョンの取得に失敗しました: %w", err)
	}
	return version, nil
}

// Close はデータベース接続を閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}
