package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nhle/carereminder/internal/engine"
	"github.com/nhle/carereminder/internal/model"
)

// snapshotResponse is the JSON form of an engine.Snapshot.
type snapshotResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Loading       bool                 `json:"loading"`
	Error         *string              `json:"error"`
	State         string               `json:"state"`
	UnreadCount   int                  `json:"unreadCount"`
	LastRefresh   *time.Time           `json:"lastRefresh,omitempty"`
}

func toSnapshotResponse(s engine.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Notifications: s.Notifications,
		Loading:       s.Loading,
		State:         s.State.String(),
		UnreadCount:   s.UnreadCount,
	}
	if resp.Notifications == nil {
		resp.Notifications = []model.Notification{}
	}
	if s.Error != "" {
		msg := s.Error
		resp.Error = &msg
	}
	if !s.LastRefresh.IsZero() {
		t := s.LastRefresh
		resp.LastRefresh = &t
	}
	return resp
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
