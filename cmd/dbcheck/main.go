package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/wordbank"
)

func main() {
	seed := flag.Bool("seed", false, "デフォルトの単語プールをword_bankテーブルに書き込む")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.HasDatabase() {
		log.Fatal().Msg("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	fmt.Printf("テスト開始: データベース接続を試行中... (driver: %s)\n", cfg.DBDriver)
	svc, err := database.NewDatabaseService(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("エラー: データベースに接続できませんでした")
	}
	defer svc.Close()
	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("エラー: スキーマの作成に失敗しました")
	}
	fmt.Println("成功: results と word_bank テーブルを確認しました。")

	if version, err := svc.ServerVersion(ctx); err != nil {
		log.Warn().Err(err).Msg("警告: バージョンの取得に失敗しました")
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if !*seed {
		return
	}
	words := wordbank.NewService(svc.DB, database.NewWordRepository(svc.DB))
	for cat, pool := range worddrop.DefaultWordBank() {
		if err := words.SaveCategory(string(cat), pool); err != nil {
			log.Fatal().Err(err).Str("category", string(cat)).Msg("エラー: 単語プールの書き込みに失敗しました")
		}
		fmt.Printf("カテゴリ %s に %d 語を書き込みました。\n", cat, len(pool))
	}
}
