package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type UserIDKey struct{}

var (
	ErrMissingToken  = errors.New("token is required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("JWT secret is not configured")
)

// GetUserIDFromContext はコンテキストからユーザーIDを取り出します。
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok && userID != ""
}

// WithUserID はユーザーIDを設定したコンテキストを返します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Authenticator は Supabase 形式の JWT（HMAC署名、sub にユーザーID）を検証します。
// Bypass が true の場合は署名を検証せず、トークン文字列そのもの（空ならランダムなUUID）をユーザーIDとして扱います。
type Authenticator struct {
	Secret string
	Bypass bool
	newID  func() string
}

// NewAuthenticator は Authenticator を作成します。
func NewAuthenticator(secret string, bypass bool) *Authenticator {
	return &Authenticator{Secret: secret, Bypass: bypass, newID: uuid.NewString}
}

// ParseUserID はトークンを検証し、sub クレームのユーザーIDを返します。
// HTTP の Bearer ヘッダーと WebSocket の認証メッセージの両方から使われます。
func (a *Authenticator) ParseUserID(tokenString string) (string, error) {
	if a.Bypass {
		if tokenString != "" {
			return tokenString, nil
		}
		return a.newID(), nil
	}
	if tokenString == "" {
		return "", ErrMissingToken
	}
	if a.Secret == "" {
		return "", ErrMissingSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.Secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user ID", ErrInvalidToken)
	}
	return userID, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return "", false
	}
	return token, true
}

// Middleware は認証必須のルートに使うミドルウェアです。
// 検証に成功したユーザーIDをコンテキストに設定して次のハンドラに渡します。
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok && !a.Bypass {
			if r.Header.Get("Authorization") == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			} else {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			}
			return
		}

		userID, err := a.ParseUserID(token)
		if errors.Is(err, ErrMissingSecret) {
			log.Error().Str("component", "AuthMiddleware").Msg("SUPABASE_JWT_SECRET is not set")
			writeJSONError(w, http.StatusInternalServerError, "Server configuration error: JWT secret missing")
			return
		}
		if err != nil {
			log.Debug().Err(err).Str("component", "AuthMiddleware").Msg("token rejected")
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Optional は認証が任意のルートに使うミドルウェアです。
// 有効な Bearer トークンがあればユーザーIDを設定し、無ければ匿名のまま通します。
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := a.ParseUserID(token)
		if err != nil {
			log.Debug().Err(err).Str("component", "AuthMiddleware").Msg("optional token ignored")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
