package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"harmonyhub/logger"
	"harmonyhub/model"
	"harmonyhub/repository"
)

const defaultPostLimit = 50

// CreatePostHandler 发布一条动态，可附带一首歌
func (h *APIHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	username, _ := r.Context().Value("username").(string)

	var req struct {
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	now := time.Now()
	post := &model.Post{
		ID:        uuid.New().String(),
		UserID:    userID,
		Username:  username,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.postRepo.CreatePost(post); err != nil {
		logger.Error("[Post] 发布动态失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// ListPostsHandler 返回动态流，按发布时间倒序
func (h *APIHandler) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultPostLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	posts, err := h.postRepo.ListPosts(limit)
	if err != nil {
		logger.Error("[Post] 查询动态失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// DeletePostHandler 删除动态及其全部评论，仅作者本人可删
func (h *APIHandler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	postID := mux.Vars(r)["id"]

	if err := h.postRepo.DeletePost(userID, postID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, repository.ErrPermissionDenied):
			writeError(w, http.StatusForbidden, "Only the author can delete this post")
		default:
			logger.Error("[Post] 删除动态失败", logger.String("postId", postID), logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete post")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// CreateCommentHandler 发表评论，评论计数与评论写入在同一事务内更新
func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	username, _ := r.Context().Value("username").(string)
	postID := mux.Vars(r)["id"]

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	now := time.Now()
	comment := &model.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Username:  username,
		Content:   req.Content,
		CreatedAt: now,
	}
	if err := h.postRepo.CreateComment(comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		logger.Error("[Post] 发表评论失败", logger.String("postId", postID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ListCommentsHandler 返回动态下的全部评论，按时间正序
func (h *APIHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]
	comments, err := h.postRepo.ListComments(postID)
	if err != nil {
		logger.Error("[Post] 查询评论失败", logger.String("postId", postID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
