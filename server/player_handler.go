package server

import (
	"encoding/json"
	"net/http"

	"harmonyhub/core/player"
	"harmonyhub/logger"
)

// PlayerCommand 播放器控制指令
type PlayerCommand struct {
	Action   string              `json:"action"`
	Index    int                 `json:"index"`
	Seconds  float64             `json:"seconds"`
	Volume   float64             `json:"volume"`
	Mode     string              `json:"mode"`
	Query    string              `json:"query"`
	Playlist *player.PlaylistRef `json:"playlist"`
}

// GetPlayerStateHandler 返回当前用户的播放器状态快照
func (h *APIHandler) GetPlayerStateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	p := h.players.Get(userID)
	h.refreshPlayer(p)
	writeJSON(w, http.StatusOK, p.State())
}

// PlayerCommandHandler 执行一条播放器控制指令
// 指令作用于服务端的权威状态，输出端通过 websocket 收到对应的传输指令
func (h *APIHandler) PlayerCommandHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var cmd PlayerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := h.players.Get(userID)
	h.refreshPlayer(p)

	switch cmd.Action {
	case "playTrack":
		p.PlayTrack(cmd.Index, cmd.Playlist)
	case "toggle":
		p.TogglePlayPause()
	case "next":
		p.PlayNext()
	case "previous":
		p.PlayPrevious()
	case "seek":
		p.Seek(cmd.Seconds)
	case "volume":
		p.SetVolume(cmd.Volume)
	case "mute":
		p.ToggleMute()
	case "shuffle":
		p.ToggleShuffle()
	case "repeat":
		p.SetRepeatMode(player.RepeatMode(cmd.Mode))
	case "setPlaylist":
		if cmd.Playlist == nil {
			writeError(w, http.StatusBadRequest, "playlist is required for setPlaylist")
			return
		}
		p.SetActivePlaylist(*cmd.Playlist)
	case "search":
		p.SetSearchQuery(cmd.Query)
	default:
		writeError(w, http.StatusBadRequest, "Unknown player action: "+cmd.Action)
		return
	}

	writeJSON(w, http.StatusOK, p.State())
}

// PlayerReportHandler 输出端上报播放进度与播完事件
func (h *APIHandler) PlayerReportHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		CurrentTime float64 `json:"currentTime"`
		Duration    float64 `json:"duration"`
		Ended       bool    `json:"ended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := h.players.Get(userID)
	p.ReportProgress(req.CurrentTime, req.Duration)
	if req.Ended {
		h.refreshPlayer(p)
		p.ReportEnded()
	}
	w.WriteHeader(http.StatusNoContent)
}

// refreshPlayer 用最新的读模型刷新单个播放器
func (h *APIHandler) refreshPlayer(p *player.Player) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("[Player] 刷新歌曲读模型失败", logger.ErrorField(err))
		return
	}
	playlists, err := h.playlistRepo.GetPlaylistsByUserID(p.UserID())
	if err != nil {
		logger.Error("[Player] 刷新歌单读模型失败", logger.ErrorField(err))
		return
	}
	p.SetCollection(songs, playlists)
}

// refreshPlayers 曲库或歌单变化后刷新全部在线播放器
func (h *APIHandler) refreshPlayers() {
	for _, p := range h.players.All() {
		h.refreshPlayer(p)
	}
}
