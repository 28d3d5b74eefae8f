package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"harmonyhub/logger"
	"harmonyhub/model"
	"harmonyhub/repository"
)

// CreatePlaylistHandler 创建一个空歌单
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	now := time.Now()
	playlist := &model.Playlist{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		SongIDs:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.playlistRepo.CreatePlaylist(playlist); err != nil {
		logger.Error("[Playlist] 创建歌单失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}

	h.refreshPlayers()
	writeJSON(w, http.StatusCreated, playlist)
}

// GetMyPlaylistsHandler 返回当前用户的全部歌单
func (h *APIHandler) GetMyPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlists, err := h.playlistRepo.GetPlaylistsByUserID(userID)
	if err != nil {
		logger.Error("[Playlist] 查询歌单失败", logger.Int64("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load playlists")
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler 返回单个歌单
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["id"]
	playlist, err := h.playlistRepo.GetPlaylistByID(playlistID)
	if err != nil {
		logger.Error("[Playlist] 查询歌单失败", logger.String("playlistId", playlistID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if playlist == nil {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// AddSongToPlaylistHandler 向歌单追加歌曲，仅歌单所有者可写
// 成员列表只增不减，重复追加同一首歌会产生重复条目，去重由前端负责
func (h *APIHandler) AddSongToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	playlistID := mux.Vars(r)["id"]

	var req struct {
		SongID string `json:"songId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID == "" {
		writeError(w, http.StatusBadRequest, "songId is required")
		return
	}

	// 歌曲必须存在才能入单
	song, err := h.songRepo.GetSongByID(req.SongID)
	if err != nil {
		logger.Error("[Playlist] 查询歌曲失败", logger.String("songId", req.SongID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if song == nil {
		writeError(w, http.StatusNotFound, "Song not found")
		return
	}

	if err := h.playlistRepo.AddSongToPlaylist(userID, playlistID, req.SongID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Playlist not found")
		case errors.Is(err, repository.ErrPermissionDenied):
			writeError(w, http.StatusForbidden, "Only the owner can modify this playlist")
		default:
			logger.Error("[Playlist] 添加歌曲失败",
				logger.String("playlistId", playlistID),
				logger.String("songId", req.SongID),
				logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to add song to playlist")
		}
		return
	}

	h.refreshPlayers()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Song added to playlist"})
}
