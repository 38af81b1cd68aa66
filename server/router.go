package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter 注册所有路由
func NewRouter(h *APIHandler) http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, accessLogMiddleware)

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)

	// 曲目
	router.HandleFunc("/api/tracks", h.AuthMiddleware(h.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", h.AuthMiddleware(h.UpdateTrackHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/tracks/{id}/similar-key", h.SimilarKeyHandler).Methods(http.MethodGet)

	// 乐谱
	router.HandleFunc("/api/tracks/{id}/scores", h.GetScoreHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/scores", h.AuthMiddleware(h.UploadScoreHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}/sections", h.GetSectionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}/analysis", h.GetAnalysisHandler).Methods(http.MethodGet)

	router.HandleFunc("/ws/tracks/{id}", h.WebSocketHandler).Methods(http.MethodGet)

	return corsHandler(router)
}
