package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Handle implements GET /healthz. The method is enforced by the route
// pattern.
func (HealthHandler) Handle(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]string{
		"service": "vidstream",
		"status":  "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
