package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vidstream/backend/internal/logging"
)

// envelope is the uniform response wrapper. Success responses carry data,
// error responses omit it.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// page wraps a listing plus the cursor for the next request. A next of -1
// means the listing is exhausted.
type page struct {
	Items any `json:"items"`
	Next  int `json:"next"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(ctx, w, envelope{StatusCode: status, Data: data, Message: message, Success: true})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeEnvelope(ctx, w, envelope{StatusCode: status, Message: message, Success: false})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", body.StatusCode, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case body.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", body.StatusCode, "message", body.Message)
	case body.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", body.StatusCode, "message", body.Message)
	}
}

// startParam parses the start query parameter driving cursor pagination.
// Absent means the first page; malformed or negative values are rejected.
func startParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("start")
	if raw == "" {
		return 0, true
	}
	start, err := strconv.Atoi(raw)
	if err != nil || start < 0 {
		return 0, false
	}
	return start, true
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
