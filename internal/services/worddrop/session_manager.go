package worddrop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomNotWaiting   = errors.New("room is not waiting for a player")
	ErrRoomOwnedByOther = errors.New("room belongs to another user")
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 300 * time.Second
	pingPeriod     = 60 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 512
	recordTimeout  = 5 * time.Second
)

// ResultRecorder はゲーム終了時の最終結果を保存します。
type ResultRecorder interface {
	RecordResult(ctx context.Context, userID string, score, hearts int, reason string) error
}

// WordBankProvider は新しいセッションに渡す単語プールを提供します。
type WordBankProvider interface {
	Current() worddrop.WordBank
}

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID string          // このクライアントに紐づくユーザーのID
	RoomID string          // このクライアントがプレイしているルームのID
	Conn   *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send   chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed bool
	mu     sync.Mutex
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Room は1人用のゲームルームです。作成者のWebSocket接続が登録されるとセッションが始まります。
type Room struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Session   *Session  `json:"-"`
}

// PlayerInputEvent はクライアントからの操作入力です。
type PlayerInputEvent struct {
	UserID string `json:"user_id"`
	Action string `json:"action"` // "move_left", "move_right", "drop"
}

// GameStateEvent はルームのセッションから発生したイベントです。
type GameStateEvent struct {
	RoomID string `json:"room_id"`
	Event  Event  `json:"event"`
}

// SessionManager はルームとWebSocketクライアント接続の全体を管理します。
// アプリケーション内でシングルトンとして動作することが想定されます。
//
// Run ループはセッションのロックを取らない処理だけを行い、
// セッションの開始・中断は別のゴルーチンで行います。
type SessionManager struct {
	rooms      map[string]*Room   // roomID -> Room
	clients    map[string]*Client // roomID -> Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GameStateEvent
	quit       chan struct{}
	quitOnce   sync.Once
	mu         sync.RWMutex

	settings Settings
	words    WordBankProvider
	results  ResultRecorder
	opts     []Option
}

// NewSessionManager は新しい SessionManager を作成し、メインイベントループをバックグラウンドで開始します。
//
// Parameters:
//   settings : 各ルームのセッションに使うゲームパラメータ
//   words    : 単語プールの提供元（nilならデフォルトの単語プール）
//   results  : 結果の保存先（nilなら保存しない）
//   opts     : 各セッションに渡すオプション（時刻源・乱数源など）
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(settings Settings, words WordBankProvider, results ResultRecorder, opts ...Option) *SessionManager {
	sm := &SessionManager{
		rooms:      make(map[string]*Room),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GameStateEvent, 512),
		quit:       make(chan struct{}),
		settings:   settings,
		words:      words,
		results:    results,
		opts:       opts,
	}
	go sm.Run()
	return sm
}

// Run は SessionManager のメインイベントループです。
// クライアントの登録/解除とセッションイベントの配信を処理します。
func (sm *SessionManager) Run() {
	for {
		select {
		case client := <-sm.register:
			sm.mu.Lock()
			if old, ok := sm.clients[client.RoomID]; ok && old != client {
				old.SafeClose()
			}
			sm.clients[client.RoomID] = client
			room := sm.rooms[client.RoomID]
			sm.mu.Unlock()
			log.Info().Str("component", "SessionManager").Str("room_id", client.RoomID).Str("user_id", client.UserID).Msg("client registered")

			if room != nil {
				go sm.startRoom(room, client)
			}

		case client := <-sm.unregister:
			sm.mu.Lock()
			var room *Room
			if registered, ok := sm.clients[client.RoomID]; ok && registered == client {
				registered.SafeClose()
				delete(sm.clients, client.RoomID)
				room = sm.rooms[client.RoomID]
				delete(sm.rooms, client.RoomID)
			}
			sm.mu.Unlock()

			if room == nil {
				log.Debug().Str("component", "SessionManager").Str("room_id", client.RoomID).Msg("unregister for inactive client")
				continue
			}
			go func(r *Room) {
				if r.Session.Abort() {
					log.Info().Str("component", "SessionManager").Str("room_id", r.ID).Msg("player left during game, session aborted")
				}
			}(room)

		case ev := <-sm.broadcast:
			sm.deliver(ev)
			if ev.Event.Type == EventGameOver {
				sm.finishRoom(ev)
			}

		case <-sm.quit:
			log.Info().Str("component", "SessionManager").Msg("shutdown signal received, main loop exiting")
			return
		}
	}
}

// deliver はイベントをルームのクライアントに送信します。
func (sm *SessionManager) deliver(ev *GameStateEvent) {
	payload, err := json.Marshal(ev.Event)
	if err != nil {
		log.Error().Err(err).Str("component", "SessionManager").Str("room_id", ev.RoomID).Msg("marshal event")
		return
	}

	sm.mu.RLock()
	client, ok := sm.clients[ev.RoomID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	if !client.SafeSend(payload) {
		log.Warn().Str("component", "SessionManager").Str("room_id", ev.RoomID).Msg("failed to send to client (channel closed or full)")
	}
}

// startRoom は接続直後のクライアントに現在の状態を送ってからセッションを開始します。
func (sm *SessionManager) startRoom(room *Room, client *Client) {
	if payload, err := json.Marshal(room.Session.StateEvent()); err == nil {
		client.SafeSend(payload)
	}
	if room.Session.Start() {
		log.Info().Str("component", "SessionManager").Str("room_id", room.ID).Msg("session started")
	}
}

// finishRoom は終了したルームのクライアントを切断し、結果を保存してルームを片付けます。
func (sm *SessionManager) finishRoom(ev *GameStateEvent) {
	sm.mu.Lock()
	room := sm.rooms[ev.RoomID]
	client := sm.clients[ev.RoomID]
	delete(sm.rooms, ev.RoomID)
	delete(sm.clients, ev.RoomID)
	sm.mu.Unlock()

	if client != nil {
		client.SafeClose()
	}
	log.Info().Str("component", "SessionManager").Str("room_id", ev.RoomID).
		Str("reason", string(ev.Event.Reason)).Int("score", ev.Event.Score).Int("hearts", ev.Event.Hearts).
		Msg("game session ended")

	if room == nil || room.OwnerID == "" || sm.results == nil {
		return
	}
	go sm.recordResult(room.OwnerID, ev.Event)
}

func (sm *SessionManager) recordResult(userID string, e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := sm.results.RecordResult(ctx, userID, e.Score, e.Hearts, string(e.Reason)); err != nil {
		log.Error().Err(err).Str("component", "SessionManager").Str("user_id", userID).Msg("failed to record result")
	}
}

func (sm *SessionManager) roomListener(roomID string) Listener {
	return ListenerFunc(func(e Event) {
		select {
		case sm.broadcast <- &GameStateEvent{RoomID: roomID, Event: e}:
		case <-sm.quit:
		}
	})
}

// CreateRoom は Idle 状態のセッションを持つ新しいルームを作成します。
//
// Parameters:
//   ownerID : ルームを作成したユーザーのID（匿名なら空文字列、結果は保存されない）
// Returns:
//   string: 作成されたルームのID
//   error : エラーが発生した場合
func (sm *SessionManager) CreateRoom(ownerID string) (string, error) {
	roomID := uuid.NewString()

	var words worddrop.WordBank
	if sm.words != nil {
		words = sm.words.Current()
	}
	opts := append([]Option{WithWordBank(words)}, sm.opts...)
	opts = append(opts, WithListener(sm.roomListener(roomID)))

	session, err := NewSession(roomID, sm.settings, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create game session: %w", err)
	}

	sm.mu.Lock()
	sm.rooms[roomID] = &Room{ID: roomID, OwnerID: ownerID, CreatedAt: time.Now(), Session: session}
	sm.mu.Unlock()

	log.Info().Str("component", "SessionManager").Str("room_id", roomID).Str("user_id", ownerID).Msg("room created")
	return roomID, nil
}

// GetRoom は指定されたルームIDのルームを取得します。
func (sm *SessionManager) GetRoom(roomID string) (*Room, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	room, ok := sm.rooms[roomID]
	return room, ok
}

// RoomCount はアクティブなルーム数を返します。
func (sm *SessionManager) RoomCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.rooms)
}

// RegisterClient はWebSocket接続をルームに登録し、read/write のポンプを開始します。
// 登録が Run ループで処理されるとセッションのカウントダウンが始まります。
//
// Parameters:
//   roomID : ルームID
//   userID : 認証済みのユーザーID
//   conn   : アップグレード済みのWebSocket接続
// Returns:
//   error: ルームが存在しない・他人のルーム・既に開始済みの場合
func (sm *SessionManager) RegisterClient(roomID, userID string, conn *websocket.Conn) error {
	client := &Client{
		UserID: userID,
		RoomID: roomID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
	if err := sm.attach(client); err != nil {
		return err
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go sm.readPump(client)
	go client.writePump()
	return nil
}

// attach はクライアントを検証して Run ループに登録します。
func (sm *SessionManager) attach(client *Client) error {
	sm.mu.RLock()
	room, ok := sm.rooms[client.RoomID]
	_, connected := sm.clients[client.RoomID]
	sm.mu.RUnlock()

	if !ok {
		return ErrRoomNotFound
	}
	if room.OwnerID != "" && room.OwnerID != client.UserID {
		return ErrRoomOwnedByOther
	}
	if connected || room.Session.Phase() != PhaseIdle {
		return ErrRoomNotWaiting
	}

	select {
	case sm.register <- client:
		return nil
	case <-sm.quit:
		return errors.New("session manager is shut down")
	}
}

func (sm *SessionManager) detach(client *Client) {
	select {
	case sm.unregister <- client:
	case <-sm.quit:
	}
}

// readPump はクライアントからのWebSocketメッセージを読み込み、ルームのセッションに適用します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "SessionManager").Str("user_id", client.UserID).Msgf("panic in readPump: %v", r)
		}
		sm.detach(client)
		if err := client.Conn.Close(); err != nil {
			log.Debug().Err(err).Str("component", "SessionManager").Str("user_id", client.UserID).Msg("close websocket")
		}
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("component", "SessionManager").Str("user_id", client.UserID).Msg("websocket unexpected close")
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var input PlayerInputEvent
		if err := json.Unmarshal(message, &input); err != nil {
			log.Debug().Err(err).Str("component", "SessionManager").Str("user_id", client.UserID).Msg("failed to unmarshal input message")
			continue
		}

		room, ok := sm.GetRoom(client.RoomID)
		if !ok {
			return
		}
		ApplyPlayerInput(room.Session, input.Action)
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// マネージャーがチャネルを閉じた
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("component", "Client").Str("user_id", c.UserID).Msg("write message")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown はSessionManagerを安全にシャットダウンします。
// 進行中のセッションは全て中断され、結果は保存されません。
func (sm *SessionManager) Shutdown() {
	log.Info().Str("component", "SessionManager").Msg("shutting down")
	sm.quitOnce.Do(func() { close(sm.quit) })

	sm.mu.Lock()
	rooms := sm.rooms
	for _, client := range sm.clients {
		if client.Conn != nil {
			client.Conn.Close()
		}
		client.SafeClose()
	}
	sm.clients = make(map[string]*Client)
	sm.rooms = make(map[string]*Room)
	sm.mu.Unlock()

	for _, room := range rooms {
		room.Session.Abort()
	}
	log.Info().Str("component", "SessionManager").Msg("shutdown complete")
}
