package server

import (
	"net/http"
	"strconv"

	"Chordbook/logger"
	"Chordbook/model"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// GetTrackHandler GET /api/tracks/{id}
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.svc.GetTrack(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// CreateTrackHandler POST /api/tracks
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	track.ID = 0

	if err := h.svc.CreateTrack(r.Context(), &track); err != nil {
		writeServiceError(w, r, err)
		return
	}
	created, err := h.svc.GetTrack(r.Context(), track.SpotifyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	logger.Info("[Track] 创建曲目",
		logger.String("trackId", created.SpotifyID),
		logger.String("user", usernameFromContext(r.Context())))
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTrackHandler PUT /api/tracks/{id}，路径里的 id 优先于请求体
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	track.SpotifyID = mux.Vars(r)["id"]

	updated, err := h.svc.UpdateTrack(r.Context(), &track)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// SimilarKeyHandler GET /api/tracks/{id}/similar-key?limit=N
func (h *APIHandler) SimilarKeyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	tracks, err := h.svc.SimilarKeyTracks(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}
