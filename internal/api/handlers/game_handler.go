package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/worddrop"
)

const authTimeout = 10 * time.Second

// GameHandler はゲーム関連のHTTPリクエスト（ルーム作成、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *worddrop.SessionManager
	auth           *middleware.Authenticator
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm             : セッションマネージャー
//   auth           : WebSocket の認証メッセージとルーム作成時の任意認証に使う Authenticator
//   allowedOrigins : WebSocket 接続を許可するオリジン（空なら全て許可）
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *worddrop.SessionManager, auth *middleware.Authenticator, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		auth:           auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Routes は /api/game 配下のルーターを返します。
func (h *GameHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.With(h.auth.Optional).Post("/rooms", h.CreateRoom)
	r.Get("/rooms/{roomID}", h.GetRoom)
	r.Get("/rooms/{roomID}/ws", h.HandleWebSocketConnection)
	return r
}

// CreateRoom は Idle 状態のセッションを持つルームを作成します。
// 認証済みならそのユーザーがルームの持ち主になり、終了時に結果が保存されます。
func (h *GameHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	// 匿名の場合は空文字列のまま
	userID, _ := ExtractUserIDFromContext(r)

	roomID, err := h.sessionManager.CreateRoom(userID)
	if err != nil {
		log.Error().Err(err).Str("component", "GameHandler").Str("user_id", userID).Msg("failed to create room")
		WriteErrorResponse(w, http.StatusInternalServerError, "ルームの作成に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, map[string]string{"room_id": roomID, "message": "ルームを作成しました"})
}

// GetRoom はルームの現在のスナップショットを返します。
func (h *GameHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	room, ok := h.sessionManager.GetRoom(roomID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"room":     room,
		"snapshot": room.Session.Snapshot(),
	})
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleWebSocketConnection はHTTP接続をWebSocketにアップグレードし、
// 最初の認証メッセージを検証してからセッションマネージャーに接続を引き渡します。
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if _, ok := h.sessionManager.GetRoom(roomID); !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "GameHandler").Str("room_id", roomID).Msg("failed to upgrade to websocket")
		return
	}

	userID, ok := h.authenticate(conn, roomID)
	if !ok {
		conn.Close()
		return
	}

	// SessionManager が pong ハンドラで読み込み期限を管理する
	conn.SetReadDeadline(time.Time{})
	if err := h.sessionManager.RegisterClient(roomID, userID, conn); err != nil {
		log.Warn().Err(err).Str("component", "GameHandler").Str("room_id", roomID).Str("user_id", userID).Msg("failed to register client")
		conn.WriteJSON(map[string]string{"type": "error", "error": registerErrorMessage(err)})
		conn.Close()
		return
	}
}

func (h *GameHandler) authenticate(conn *websocket.Conn, roomID string) (string, bool) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))

	var msg authMessage
	if err := conn.ReadJSON(&msg); err != nil {
		log.Debug().Err(err).Str("component", "GameHandler").Str("room_id", roomID).Msg("failed to read auth message")
		return "", false
	}
	if msg.Type != "auth" {
		conn.WriteJSON(map[string]string{"type": "error", "error": "Expected auth message"})
		return "", false
	}

	userID, err := h.auth.ParseUserID(strings.TrimPrefix(msg.Token, "Bearer "))
	if err != nil {
		log.Debug().Err(err).Str("component", "GameHandler").Str("room_id", roomID).Msg("websocket auth rejected")
		conn.WriteJSON(map[string]string{"type": "error", "error": "Invalid token"})
		return "", false
	}

	conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})
	log.Info().Str("component", "GameHandler").Str("room_id", roomID).Str("user_id", userID).Msg("websocket authenticated")
	return userID, true
}

func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, worddrop.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, worddrop.ErrRoomOwnedByOther):
		return "Room belongs to another user"
	case errors.Is(err, worddrop.ErrRoomNotWaiting):
		return "Room has already started"
	default:
		return "Failed to join room"
	}
}

