package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidstream/backend/internal/models"
)

func TestFeedHandlerHome(t *testing.T) {
	var gotViewer string
	videos := &stubVideoStore{listPublic: func(viewerID string) ([]models.VideoCard, error) {
		gotViewer = viewerID
		return makeVideoCards(4), nil
	}}
	handler := FeedHandler{Videos: videos}

	rec := httptest.NewRecorder()
	handler.Home(rec, asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/feed/home-page", nil), "viewer-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotViewer != "viewer-1" {
		t.Fatalf("expected viewer forwarded for like state, got %q", gotViewer)
	}

	env := decodeEnvelope(t, rec)
	var cards []models.VideoCard
	if err := json.Unmarshal(env.Data, &cards); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards, got %d", len(cards))
	}

	// Anonymous viewers still get the feed.
	rec = httptest.NewRecorder()
	handler.Home(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed/home-page", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for anonymous viewer, got %d", rec.Code)
	}
	if gotViewer != "" {
		t.Fatalf("expected empty viewer id, got %q", gotViewer)
	}
}

func TestFeedHandlerSearch(t *testing.T) {
	var gotQuery string
	videos := &stubVideoStore{search: func(query, viewerID string) ([]models.VideoCard, error) {
		gotQuery = query
		return makeVideoCards(1), nil
	}}
	handler := FeedHandler{Videos: videos}

	rec := httptest.NewRecorder()
	handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed/search-query?query=gophers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotQuery != "gophers" {
		t.Fatalf("expected query forwarded, got %q", gotQuery)
	}

	rec = httptest.NewRecorder()
	handler.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed/search-query", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without a query, got %d", rec.Code)
	}
}
