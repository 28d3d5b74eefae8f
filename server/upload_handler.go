package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"harmonyhub/core/ingest"
	"harmonyhub/logger"
)

// UploadHandler 提交一次音频摄取
// 二选一：multipart 的 file 字段，或 JSON 体里的 url 字段
// 同步校验失败立即返回错误且不创建任务，通过则返回任务ID供轮询
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var src ingest.Source
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/json") {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		src.URL = req.URL
	} else {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing 'file' in form")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("[Upload] 读取上传文件失败", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to read uploaded file")
			return
		}
		src.FileName = header.Filename
		src.Data = data
		src.ContentType = header.Header.Get("Content-Type")
	}

	taskID, err := h.pipeline.Submit(src, userID)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "Authentication required")
		case errors.Is(err, ingest.ErrNoSource):
			writeError(w, http.StatusBadRequest, "Either a file or a url must be provided")
		case errors.Is(err, ingest.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "File exceeds the 100MB upload limit")
		default:
			logger.Error("[Upload] 提交摄取失败", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to submit upload")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}

// GetTasksHandler 返回全部上传任务
func (h *APIHandler) GetTasksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pipeline.Tasks().List())
}

// DismissTaskHandler 移除单个终态任务，进行中的任务不可移除
func (h *APIHandler) DismissTaskHandler(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]
	if !h.pipeline.Tasks().Dismiss(taskID) {
		writeError(w, http.StatusConflict, "Task does not exist or is still in progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task dismissed"})
}

// ClearCompletedTasksHandler 批量移除全部终态任务
func (h *APIHandler) ClearCompletedTasksHandler(w http.ResponseWriter, r *http.Request) {
	cleared := h.pipeline.Tasks().ClearCompleted()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}
