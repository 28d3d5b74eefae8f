package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"harmonyhub/config"
	"harmonyhub/core/auth"
	"harmonyhub/core/ingest"
	"harmonyhub/core/player"
	"harmonyhub/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	songRepo     repository.SongRepository
	playlistRepo repository.PlaylistRepository
	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	pipeline     *ingest.Pipeline
	players      *player.Manager
	hub          *Hub
	cfg          *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	songRepo repository.SongRepository,
	playlistRepo repository.PlaylistRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	pipeline *ingest.Pipeline,
	players *player.Manager,
	hub *Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		songRepo:     songRepo,
		playlistRepo: playlistRepo,
		userRepo:     userRepo,
		postRepo:     postRepo,
		pipeline:     pipeline,
		players:      players,
		hub:          hub,
		cfg:          cfg,
	}
}

// writeJSON 写出JSON响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError 写出统一格式的错误响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Authorization header must be in format: Bearer {token}")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
