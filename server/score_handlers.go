package server

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"Chordbook/logger"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// maxScoreSize 单份乐谱上限
const maxScoreSize = 10 << 20

type scoreResponse struct {
	ID        int64           `json:"id"`
	TrackID   string          `json:"trackId"`
	ScoreData json.RawMessage `json:"scoreData"`
	CreatedAt time.Time       `json:"createdAt"`
}

// GetScoreHandler GET /api/tracks/{id}/scores，没有乐谱时返回 {"scoreData":{}}
func (h *APIHandler) GetScoreHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]
	sc, err := h.svc.GetScore(r.Context(), trackID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sc == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"scoreData": struct{}{}})
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		ID:        sc.ID,
		TrackID:   sc.TrackID,
		ScoreData: json.RawMessage(sc.ScoreData),
		CreatedAt: sc.CreatedAt,
	})
}

// UploadScoreHandler POST /api/tracks/{id}/scores
// 支持 multipart 的 file 字段（必须是 .json）或直接发送 JSON 请求体
func (h *APIHandler) UploadScoreHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]
	r.Body = http.MaxBytesReader(w, r.Body, maxScoreSize)

	var data []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxScoreSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file part")
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
			writeError(w, http.StatusBadRequest, "Invalid file type")
			return
		}
		if data, err = io.ReadAll(file); err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read file")
			return
		}
	} else {
		var err error
		if data, err = io.ReadAll(r.Body); err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
	}

	res, err := h.svc.UploadScore(r.Context(), trackID, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger.Info("[Score] 上传成功",
		logger.String("trackId", trackID),
		logger.String("user", usernameFromContext(r.Context())),
		logger.String("requestId", RequestIDFromContext(r.Context())))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Score uploaded",
		"track":    res.Track,
		"sections": res.Sections,
	})
}

// GetSectionsHandler GET /api/tracks/{id}/sections
func (h *APIHandler) GetSectionsHandler(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.svc.GetSectionBlocks(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

// GetAnalysisHandler GET /api/tracks/{id}/analysis
func (h *APIHandler) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.svc.GetAnalysis(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// WebSocketHandler GET /ws/tracks/{id}
func (h *APIHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		writeError(w, http.StatusServiceUnavailable, "Live updates are not enabled")
		return
	}
	h.live.ServeWS(w, r, mux.Vars(r)["id"])
}
