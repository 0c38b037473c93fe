package handlers

import (
	"net/http"
	"strings"

	"github.com/vidstream/backend/internal/auth"
)

// FeedHandler serves the public home feed and video search.
type FeedHandler struct {
	Videos VideoStore
}

// Home handles GET /api/v1/feed/home-page: every public video, newest first.
func (h FeedHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cards, err := h.Videos.ListPublic(ctx, auth.UserID(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "feed unavailable")
		return
	}

	respondData(ctx, w, http.StatusOK, "feed fetched", cards)
}

// Search handles GET /api/v1/feed/search-query: public videos whose title or
// description contains the query.
func (h FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		respondError(ctx, w, http.StatusBadRequest, "query is required")
		return
	}

	cards, err := h.Videos.Search(ctx, query, auth.UserID(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "feed unavailable")
		return
	}

	respondData(ctx, w, http.StatusOK, "search results fetched", cards)
}
