package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/worddrop"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config はサーバー全体の設定です。環境変数から Load で組み立てます。
type Config struct {
	Port           string
	AppEnv         string
	LogLevel       string
	DBDriver       string
	DatabaseURL    string
	JWTSecret      string
	BypassAuth     bool
	AllowedOrigins []string
	AdminUserIDs   []string
	Game           worddrop.Settings
}

// IsProduction は本番環境かどうかを返します。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// HasDatabase はデータベースが設定されているかどうかを返します。
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Load は .env（本番以外）と環境変数から設定を読み込みます。
// 不正な値があればエラーを返します。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Err(err).Msg("no .env file loaded (this is fine in production)")
		}
	}
	return FromEnv()
}

// FromEnv は現在の環境変数だけから設定を組み立てます。
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBDriver:       getEnv("DB_DRIVER", DriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("SUPABASE_JWT_SECRET"),
		BypassAuth:     os.Getenv("BYPASS_AUTH") == "true",
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		AdminUserIDs:   splitList(os.Getenv("ADMIN_USER_IDS")),
		Game:           worddrop.DefaultSettings(),
	}

	var errs []error
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q: %q", DriverPostgres, DriverSQLite, cfg.DBDriver))
	}

	p := envParser{}
	if v, ok := p.intValue("GAME_DURATION_SEC"); ok {
		cfg.Game.Duration = time.Duration(v) * time.Second
	}
	if v, ok := p.intValue("GAME_HEART_THRESHOLD"); ok {
		cfg.Game.HeartThreshold = v
	}
	if v, ok := p.intValue("GAME_INITIAL_DROP_MS"); ok {
		cfg.Game.InitialDropInterval = time.Duration(v) * time.Millisecond
	}
	if v, ok := p.floatValue("GAME_SPEEDUP_FACTOR"); ok {
		cfg.Game.SpeedUpFactor = v
	}
	if v, ok := p.intValue("GAME_SPEEDUP_PERIOD_MS"); ok {
		cfg.Game.SpeedUpPeriod = time.Duration(v) * time.Millisecond
	}
	if v, ok := p.intValue("GAME_MIN_DROP_MS"); ok {
		cfg.Game.MinDropInterval = time.Duration(v) * time.Millisecond
	}
	if v, ok := p.intValue("GAME_COUNTDOWN_STEP_MS"); ok {
		cfg.Game.CountdownStep = time.Duration(v) * time.Millisecond
	}
	errs = append(errs, p.errs...)

	if err := cfg.Game.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envParser は数値の環境変数を読み、失敗をまとめて記録します。
type envParser struct {
	errs []error
}

func (p *envParser) intValue(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return 0, false
	}
	return v, true
}

func (p *envParser) floatValue(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return 0, false
	}
	return v, true
}
