package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"harmonyhub/cache"
	"harmonyhub/core/auth"
	"harmonyhub/logger"
	"harmonyhub/model"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Username, password and email are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	// 用户名与邮箱都要求唯一
	if existing, err := h.userRepo.GetUserByUsername(req.Username); err != nil {
		logger.Error("[Register] 查询用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}
	if existing, err := h.userRepo.GetUserByEmail(req.Email); err != nil {
		logger.Error("[Register] 查询邮箱失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Register] 密码哈希失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	id, err := h.userRepo.CreateUser(user)
	if err != nil {
		logger.Error("[Register] 创建用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID = id

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("[Register] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Register] 注册成功", logger.String("username", user.Username))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"` // 可以是用户名或邮箱
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username/Email and password are required")
		return
	}

	// 支持用户名或邮箱登录
	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}
	if err != nil {
		logger.Error("[Login] 查询用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] 登录凭证无效", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid username/email or password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] 登录成功", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RequestPasswordResetHandler 签发密码重置令牌
// 为避免泄露邮箱是否注册，无论邮箱是否存在都返回成功
func (h *APIHandler) RequestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("[PasswordReset] 查询邮箱失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := map[string]string{"message": "If the email is registered, a reset token has been issued"}
	if user != nil {
		token, err := cache.CreateResetToken(r.Context(), user.ID)
		if err != nil {
			logger.Error("[PasswordReset] 签发令牌失败", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		logger.Info("[PasswordReset] 已签发重置令牌", logger.Int64("userId", user.ID))
		// 没有接入邮件通道，令牌直接返回给调用方
		resp["resetToken"] = token
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetPasswordHandler 消费重置令牌并更新密码
func (h *APIHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" || len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "Token and a password of at least 6 characters are required")
		return
	}

	userID, err := cache.ConsumeResetToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Reset token is invalid or expired")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("[PasswordReset] 密码哈希失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := h.userRepo.UpdatePasswordHash(userID, hash); err != nil {
		logger.Error("[PasswordReset] 更新密码失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	logger.Info("[PasswordReset] 密码已重置", logger.Int64("userId", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}
