package server

import (
	"context"
	"errors"
	"net/http"

	"Chordbook/config"
	"Chordbook/core/auth"
	"Chordbook/core/catalog"
	"Chordbook/logger"
	"Chordbook/model"

	json "github.com/goccy/go-json"
)

// CatalogService 处理器依赖的业务接口
type CatalogService interface {
	GetTrack(ctx context.Context, spotifyID string) (*model.Track, error)
	CreateTrack(ctx context.Context, track *model.Track) error
	UpdateTrack(ctx context.Context, track *model.Track) (*model.Track, error)
	SimilarKeyTracks(ctx context.Context, spotifyID string, limit int) ([]*model.Track, error)
	GetScore(ctx context.Context, trackID string) (*model.Score, error)
	GetSectionBlocks(ctx context.Context, trackID string) ([]model.SectionBlock, error)
	GetAnalysis(ctx context.Context, trackID string) (*model.ScoreAnalysis, error)
	UploadScore(ctx context.Context, trackID string, data []byte) (*catalog.UploadResult, error)
}

// Subscriber 处理 WebSocket 订阅
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, trackID string)
}

// APIHandler 处理所有API请求
type APIHandler struct {
	svc    CatalogService
	tokens *auth.TokenManager
	live   Subscriber
	cfg    *config.Config
}

// NewAPIHandler 创建新的API处理器，live 可以为 nil
func NewAPIHandler(svc CatalogService, tokens *auth.TokenManager, live Subscriber, cfg *config.Config) *APIHandler {
	return &APIHandler{svc: svc, tokens: tokens, live: live, cfg: cfg}
}

// HealthHandler GET /healthz
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[HTTP] 写入响应失败", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor 把业务错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrTrackExists):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidTrack),
		errors.Is(err, catalog.ErrInvalidScore),
		errors.Is(err, catalog.ErrSectionsOutOfOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError 500 只返回通用信息，原因写日志
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("[HTTP] 请求处理失败",
			logger.String("path", r.URL.Path),
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.ErrorField(err))
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}
