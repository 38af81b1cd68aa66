package server

import (
	"context"
	"net/http"
	"strings"

	"Chordbook/core/auth"
	"Chordbook/logger"

	json "github.com/goccy/go-json"
)

type contextKey string

const usernameKey contextKey = "username"

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler 管理员登录，账号来自配置
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("[Login] 解析请求体失败", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if req.Username != h.cfg.AdminUsername || !auth.VerifyPassword(req.Password, h.cfg.AdminPasswordHash) {
		logger.Warn("[Login] 用户名或密码错误", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.tokens.GenerateToken(req.Username)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] 登录成功", logger.String("username", req.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  map[string]string{"username": req.Username},
	})
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := h.tokens.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// usernameFromContext AuthMiddleware 写入的用户名，匿名请求返回 ""
func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}
