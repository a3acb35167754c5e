package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Pinger はデータベースの疎通確認ができるものです。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PublicHandler は認証不要のエンドポイントを処理します。
type PublicHandler struct {
	db Pinger
}

// NewPublicHandler は PublicHandler を作成します。db は nil でも構いません。
func NewPublicHandler(db Pinger) *PublicHandler {
	return &PublicHandler{db: db}
}

// PublicHandlerFunc は公開エンドポイントの疎通確認用ハンドラーです。
// GET /api/public
func PublicHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log.Debug().Msg("request to public endpoint: /api/public")
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "Hello, this is public content! (From /api/public)")
}

// Health はサーバーとデータベースの状態を返します。
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok", "database": "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("component", "PublicHandler").Msg("health check: database ping failed")
		WriteJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
