package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"siostam-backend/domain/snapshot"
)

// GraphHandler serves the published snapshot. Every endpoint is a read
// of prebuilt bytes; nothing here ever triggers work.
type GraphHandler struct {
	store  *snapshot.Store
	logger *zap.Logger
}

func NewGraphHandler(store *snapshot.Store, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		store:  store,
		logger: logger,
	}
}

// GetJSON handles GET /graph/json
func (h *GraphHandler) GetJSON(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Read()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(snap.JSON); err != nil {
		h.logger.Debug("Failed to write response", zap.Error(err))
	}
}

// GetSVG handles GET /graph/svg
func (h *GraphHandler) GetSVG(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Read()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(snap.SVG); err != nil {
		h.logger.Debug("Failed to write response", zap.Error(err))
	}
}

// GetDOT handles GET /graph/dot
func (h *GraphHandler) GetDOT(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Read()

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(snap.DOT)); err != nil {
		h.logger.Debug("Failed to write response", zap.Error(err))
	}
}

type statusResponse struct {
	Version    uint64    `json:"version"`
	Checksum   string    `json:"checksum"`
	BuiltAt    time.Time `json:"built_at"`
	LastCheck  time.Time `json:"last_check"`
	Systems    int       `json:"systems"`
	Subsystems int       `json:"subsystems"`
}

// GetStatus handles GET /graph/status. It is the cheap poll endpoint
// for clients that cannot hold a websocket open.
func (h *GraphHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Read()

	h.respondJSON(w, http.StatusOK, statusResponse{
		Version:    snap.Version,
		Checksum:   snap.Checksum,
		BuiltAt:    snap.BuiltAt,
		LastCheck:  snap.LastCheck,
		Systems:    len(snap.Graph.Systems),
		Subsystems: len(snap.Graph.Subsystems),
	})
}

func (h *GraphHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
