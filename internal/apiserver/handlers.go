package apiserver

import (
	"net/http"
	"time"
)

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	InstanceID    string    `json:"instance_id"`
	PID           int       `json:"pid"`
	Port          int       `json:"port"`
	Tag           string    `json:"tag"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, HealthResponse{Status: "ok"}, http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, StatusResponse{
		InstanceID:    s.info.InstanceID,
		PID:           s.info.PID,
		Port:          s.Port(),
		Tag:           s.info.Tag,
		StartedAt:     s.info.StartedAt.UTC(),
		UptimeSeconds: int64(s.now().Sub(s.info.StartedAt).Seconds()),
	}, http.StatusOK)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSONError(r.Context(), w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}
