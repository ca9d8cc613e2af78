package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jujucrew/jubot/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool `json:"ready"`
	Gateway bool `json:"gateway"`
}

// Readyz reports readiness. The bot is ready only while the chat gateway
// link is up; the store is local and always available.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up := d.GatewayUp == nil || d.GatewayUp()

		w.Header().Set("Content-Type", "application/json")
		if !up {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:   up,
			Gateway: up,
		})
	}
}
