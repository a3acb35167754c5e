package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/wordbank"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/worddrop"
)

const shutdownTimeout = 10 * time.Second

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogger(cfg)

	// データベースは任意。未設定ならデフォルトの単語プールで動き、結果は保存しない
	var (
		dbService  *database.DatabaseService
		sqlDB      *sql.DB
		resultRepo database.ResultRepository
		wordRepo   database.WordRepository
	)
	if cfg.HasDatabase() {
		dbService, err = database.NewDatabaseService(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer dbService.Close()
		if err := dbService.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure database schema")
		}
		sqlDB = dbService.DB
		resultRepo = database.NewResultRepository(sqlDB)
		wordRepo = database.NewWordRepository(sqlDB)
	} else {
		log.Warn().Msg("DATABASE_URL is not set: results will not be saved and the default word bank is used")
	}

	wordService := wordbank.NewService(sqlDB, wordRepo)
	if err := wordService.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load word bank, using defaults")
	}

	var recorder worddrop.ResultRecorder
	if resultRepo != nil {
		recorder = resultRepo
	}
	sessionManager := worddrop.NewSessionManager(cfg.Game, wordService, recorder)

	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.BypassAuth)
	if cfg.BypassAuth {
		log.Warn().Msg("BYPASS_AUTH is enabled: tokens are not verified")
	}

	var pinger handlers.Pinger
	if dbService != nil {
		pinger = dbService
	}
	publicHandler := handlers.NewPublicHandler(pinger)
	wordsHandler := handlers.NewWordsHandler(wordService, cfg.AdminUserIDs)
	gameHandler := handlers.NewGameHandler(sessionManager, auth, cfg.AllowedOrigins)

	r := mux.NewRouter()
	r.HandleFunc("/api/public", handlers.PublicHandlerFunc).Methods("GET")
	r.HandleFunc("/api/health", publicHandler.Health).Methods("GET")
	r.HandleFunc("/api/words", wordsHandler.GetWords).Methods("GET")

	if resultRepo != nil {
		resultHandler := handlers.NewResultHandler(resultRepo)
		r.HandleFunc("/api/results", resultHandler.GetTopResults).Methods("GET")
		r.HandleFunc("/api/results", resultHandler.PostScore).Methods("POST")
		r.HandleFunc("/api/results/user/{userID}", resultHandler.GetUserResult).Methods("GET")
	}

	protectedRouter := r.PathPrefix("/api/protected").Subrouter()
	protectedRouter.Use(auth.Middleware)
	protectedRouter.HandleFunc("/words/{category}", wordsHandler.SaveWords).Methods("PUT")

	// ゲームAPIは chi のサブツリーに任せる
	r.PathPrefix("/api/game").Handler(http.StripPrefix("/api/game", gameHandler.Routes()))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORSHandler(cfg.AllowedOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	sessionManager.Shutdown()
	log.Info().Msg("server stopped")
}
