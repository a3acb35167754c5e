package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/WORDDROP-backend/internal/services/worddrop"
)

const (
	defaultResultLimit = 50
	maxResultLimit     = 100
)

// ResultHandler はゲーム結果関連のハンドラーを管理する構造体です。
type ResultHandler struct {
	resultRepo database.ResultRepository
}

// NewResultHandler は新しいResultHandlerインスタンスを作成します。
func NewResultHandler(resultRepo database.ResultRepository) *ResultHandler {
	return &ResultHandler{resultRepo: resultRepo}
}

// GetTopResults は上位ランキングを取得するハンドラーです。
// GET /api/results?limit=50
func (h *ResultHandler) GetTopResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= maxResultLimit {
			limit = parsed
		}
	}

	results, err := h.resultRepo.GetTopResults(limit)
	if err != nil {
		log.Error().Err(err).Str("component", "ResultHandler").Msg("failed to get top results")
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲーム結果取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

// PostScore はスコアを保存するハンドラーです。
// POST /api/results
func (h *ResultHandler) PostScore(w http.ResponseWriter, r *http.Request) {
	var req models.ResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "無効なリクエストボディです")
		return
	}

	if req.UserID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "user_idは必須です")
		return
	}
	if req.Score < 0 || req.Hearts < 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "スコアとハートは0以上である必要があります")
		return
	}
	switch worddrop.Reason(req.Reason) {
	case "", worddrop.ReasonOverflow, worddrop.ReasonTimeUp:
	default:
		WriteErrorResponse(w, http.StatusBadRequest, "reasonは \"Stack Overflow\" か \"Time Up\" である必要があります")
		return
	}

	result, err := h.resultRepo.CreateResult(nil, req.UserID, req.Score, req.Hearts, req.Reason)
	if err != nil {
		log.Error().Err(err).Str("component", "ResultHandler").Str("user_id", req.UserID).Msg("failed to save score")
		WriteErrorResponse(w, http.StatusInternalServerError, "スコア保存に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

// GetUserResult は指定したユーザーの最高スコアと順位を取得するハンドラーです。
// GET /api/results/user/{userID}
func (h *ResultHandler) GetUserResult(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if userID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "user_idが指定されていません")
		return
	}

	userResult, err := h.resultRepo.GetUserRanking(userID)
	if err != nil {
		log.Error().Err(err).Str("component", "ResultHandler").Str("user_id", userID).Msg("failed to get user ranking")
		WriteErrorResponse(w, http.StatusInternalServerError, "ユーザー結果取得に失敗しました")
		return
	}

	if userResult == nil {
		WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"result":  nil,
			"message": "ユーザーのスコアが見つかりません",
		})
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  userResult,
	})
}
