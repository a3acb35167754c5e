package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models"
	worddropmodels "github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models/worddrop"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/wordbank"
)

// WordBankService は単語バンクの参照と更新を行うサービスです。
type WordBankService interface {
	Current() worddropmodels.WordBank
	Source() string
	SaveCategory(category string, words []string) error
}

// WordsHandler は単語バンクAPIのエンドポイントを処理します。
type WordsHandler struct {
	service WordBankService
	admins  map[string]struct{}
}

// NewWordsHandler はWordsHandlerの新しいインスタンスを作成します。
//
// Parameters:
//   s        : 単語バンクサービス
//   adminIDs : 単語プールを更新できるユーザーID。空なら誰も更新できません
func NewWordsHandler(s WordBankService, adminIDs []string) *WordsHandler {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &WordsHandler{service: s, admins: admins}
}

// GetWords は現在の単語バンクを返します。
// GET /api/words
func (h *WordsHandler) GetWords(w http.ResponseWriter, r *http.Request) {
	bank := h.service.Current()
	categories := make(map[string][]string, len(bank))
	for cat, words := range bank {
		categories[string(cat)] = words
	}
	WriteJSONResponse(w, http.StatusOK, models.WordBankResponse{
		Source:     h.service.Source(),
		Categories: categories,
	})
}

// SaveWords は指定カテゴリの単語プールを置き換えます。管理者として登録されたユーザーだけが実行できます。
// PUT /api/protected/words/{category}
func (h *WordsHandler) SaveWords(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, "未認証: ユーザーIDが見つかりません")
		return
	}
	category := mux.Vars(r)["category"]
	if _, ok := h.admins[userID]; !ok {
		log.Warn().Str("component", "WordsHandler").Str("user_id", userID).Str("category", category).Msg("word pool update rejected: not an admin")
		WriteErrorResponse(w, http.StatusForbidden, "権限がありません: 単語プールを更新できるのは管理者だけです")
		return
	}

	var req models.WordsSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "不正なリクエスト: 無効なリクエストボディです")
		return
	}

	err = h.service.SaveCategory(category, req.Words)
	switch {
	case errors.Is(err, wordbank.ErrInvalidCategory), errors.Is(err, wordbank.ErrEmptyWords):
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, wordbank.ErrNoDatabase):
		WriteErrorResponse(w, http.StatusServiceUnavailable, "単語バンクを保存するデータベースがありません")
		return
	case err != nil:
		log.Error().Err(err).Str("component", "WordsHandler").Str("user_id", userID).Str("category", category).Msg("failed to save words")
		WriteErrorResponse(w, http.StatusInternalServerError, "内部サーバーエラー: 単語の保存に失敗しました")
		return
	}

	log.Info().Str("component", "WordsHandler").Str("user_id", userID).Str("category", category).Msg("word pool replaced")
	WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "単語が正常に保存されました"})
}
