package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"harmonyhub/logger"
	"harmonyhub/repository"
)

// GetSongsHandler 返回全部可见歌曲，虚拟曲库即由它推导
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("[Songs] 查询歌曲失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load songs")
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetMySongsHandler 返回当前用户上传的歌曲
func (h *APIHandler) GetMySongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	songs, err := h.songRepo.GetSongsByUserID(userID)
	if err != nil {
		logger.Error("[Songs] 查询用户歌曲失败", logger.Int64("userId", userID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load songs")
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// UpdateSongHandler 更新歌曲元数据，仅允许上传者本人
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	songID := mux.Vars(r)["id"]

	song, err := h.songRepo.GetSongByID(songID)
	if err != nil {
		logger.Error("[Songs] 查询歌曲失败", logger.String("songId", songID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if song == nil {
		writeError(w, http.StatusNotFound, "Song not found")
		return
	}

	var req struct {
		Title  *string `json:"title"`
		Artist *string `json:"artist"`
		Genre  *string `json:"genre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title != nil {
		song.Title = *req.Title
	}
	if req.Artist != nil {
		song.Artist = *req.Artist
	}
	if req.Genre != nil {
		song.Genre = *req.Genre
	}
	if song.Title == "" {
		writeError(w, http.StatusBadRequest, "Title must not be empty")
		return
	}

	if err := h.songRepo.UpdateSong(userID, song); err != nil {
		switch {
		case errors.Is(err, repository.ErrPermissionDenied):
			writeError(w, http.StatusForbidden, "Only the uploader can edit this song")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Song not found")
		default:
			logger.Error("[Songs] 更新歌曲失败", logger.String("songId", songID), logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to update song")
		}
		return
	}

	h.refreshPlayers()
	writeJSON(w, http.StatusOK, song)
}

// DeleteSongHandler 删除歌曲，仅允许上传者本人
// 删除后歌单里的悬空引用在解析时被静默丢弃，无需级联清理
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	songID := mux.Vars(r)["id"]

	if err := h.songRepo.DeleteSong(userID, songID); err != nil {
		switch {
		case errors.Is(err, repository.ErrPermissionDenied):
			writeError(w, http.StatusForbidden, "Only the uploader can delete this song")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Song not found")
		default:
			logger.Error("[Songs] 删除歌曲失败", logger.String("songId", songID), logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete song")
		}
		return
	}

	h.refreshPlayers()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Song deleted"})
}
