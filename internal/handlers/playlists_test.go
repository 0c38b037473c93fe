package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
)

func ownedPlaylistStore(playlist models.Playlist) *stubPlaylistStore {
	return &stubPlaylistStore{
		findByID: func(id string) (models.Playlist, error) {
			if id != playlist.ID {
				return models.Playlist{}, repositories.ErrNotFound
			}
			return playlist, nil
		},
		updateName:  func(string, string) error { return nil },
		updateDesc:  func(string, string) error { return nil },
		setVis:      func(string, bool) error { return nil },
		deleteList:  func(string) error { return nil },
		addVideos:   func(string, []string) error { return nil },
		removeVideo: func(string, string) error { return nil },
	}
}

func TestPlaylistHandlerCreate(t *testing.T) {
	var created models.Playlist
	playlists := &stubPlaylistStore{create: func(p models.Playlist) error {
		created = p
		return nil
	}}
	handler := PlaylistHandler{Playlists: playlists}

	private := false
	body, _ := json.Marshal(createPlaylistRequest{Name: " watch later ", Description: "queue", IsPublic: &private})
	req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/playlists/create-playlist", bytes.NewReader(body)), "owner-1")
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if created.Name != "watch later" || created.OwnerID != "owner-1" || created.IsPublic {
		t.Fatalf("unexpected playlist: %+v", created)
	}

	// Name is mandatory.
	body, _ = json.Marshal(createPlaylistRequest{Description: "no name"})
	rec = httptest.NewRecorder()
	handler.Create(rec, asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/playlists/create-playlist", bytes.NewReader(body)), "owner-1"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestPlaylistHandlerGet(t *testing.T) {
	playlists := &stubPlaylistStore{
		getCard: func(id, viewerID string) (models.PlaylistCard, error) {
			if id != "pl-1" {
				return models.PlaylistCard{}, repositories.ErrNotFound
			}
			return models.PlaylistCard{
				ID:          id,
				Name:        "favorites",
				TotalVideos: 5,
				Videos:      makeVideoCards(3),
			}, nil
		},
	}
	handler := PlaylistHandler{Playlists: playlists}

	rec := httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/playlists/get-playlist?playlistId=pl-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var card models.PlaylistCard
	if err := json.Unmarshal(env.Data, &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	// Hidden members stay counted even though they are filtered from the listing.
	if card.TotalVideos != 5 || len(card.Videos) != 3 {
		t.Fatalf("unexpected card: total %d visible %d", card.TotalVideos, len(card.Videos))
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/playlists/get-playlist?playlistId=ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/playlists/get-playlist", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestPlaylistHandlerListByChannel(t *testing.T) {
	var gotIncludePrivate bool
	playlists := &stubPlaylistStore{
		listByOwner: func(ownerID string, includePrivate bool) ([]models.Playlist, error) {
			gotIncludePrivate = includePrivate
			return []models.Playlist{{ID: "pl-1", OwnerID: ownerID}}, nil
		},
	}
	handler := PlaylistHandler{Playlists: playlists}

	req := asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/playlists/get-all-playlists/owner-1", nil), "someone-else")
	req.SetPathValue("channelId", "owner-1")
	rec := httptest.NewRecorder()
	handler.ListByChannel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotIncludePrivate {
		t.Fatal("strangers must not see private playlists")
	}

	req = asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/playlists/get-all-playlists/owner-1", nil), "owner-1")
	req.SetPathValue("channelId", "owner-1")
	rec = httptest.NewRecorder()
	handler.ListByChannel(rec, req)
	if !gotIncludePrivate {
		t.Fatal("owners see their private playlists")
	}
}

func TestPlaylistHandlerVisibilityToggleConflict(t *testing.T) {
	playlists := ownedPlaylistStore(models.Playlist{ID: "pl-1", OwnerID: "owner-1", IsPublic: false})
	handler := PlaylistHandler{Playlists: playlists}

	req := asViewer(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/private-playlist/pl-1", nil), "owner-1")
	req.SetPathValue("playlistId", "pl-1")
	rec := httptest.NewRecorder()
	handler.MakePrivate(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}

	req = asViewer(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/public-playlist/pl-1", nil), "owner-1")
	req.SetPathValue("playlistId", "pl-1")
	rec = httptest.NewRecorder()
	handler.MakePublic(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestPlaylistHandlerOwnershipGuard(t *testing.T) {
	playlists := ownedPlaylistStore(models.Playlist{ID: "pl-1", OwnerID: "owner-1", IsPublic: true})
	handler := PlaylistHandler{Playlists: playlists}

	body, _ := json.Marshal(updateTextRequest{Name: "renamed"})
	req := asViewer(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/update-name/pl-1", bytes.NewReader(body)), "intruder")
	req.SetPathValue("playlistId", "pl-1")
	rec := httptest.NewRecorder()
	handler.UpdateName(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}

	req = asViewer(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/delete-playlist/pl-1", nil), "intruder")
	req.SetPathValue("playlistId", "pl-1")
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestPlaylistHandlerAddVideos(t *testing.T) {
	playlists := ownedPlaylistStore(models.Playlist{ID: "pl-1", OwnerID: "owner-1", IsPublic: true})
	var added []string
	playlists.addVideos = func(id string, videoIDs []string) error {
		added = videoIDs
		return nil
	}

	accessible := map[string]bool{"vid-1": true, "vid-2": true}
	videos := &stubVideoStore{
		filterAccessible: func(ids []string, viewerID string) ([]string, error) {
			var out []string
			seen := map[string]bool{}
			for _, id := range ids {
				if accessible[id] && !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
			return out, nil
		},
	}
	handler := PlaylistHandler{Playlists: playlists, Videos: videos}

	send := func(ids []string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(addVideosRequest{VideoIDs: ids})
		req := asViewer(httptest.NewRequest(http.MethodPatch, "/api/v1/playlists/add-videos/pl-1", bytes.NewReader(body)), "owner-1")
		req.SetPathValue("playlistId", "pl-1")
		rec := httptest.NewRecorder()
		handler.AddVideos(rec, req)
		return rec
	}

	// Duplicates in the request are tolerated; the store dedupes on insert.
	rec := send([]string{"vid-1", "vid-2", "vid-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(added) != 3 {
		t.Fatalf("expected raw ids forwarded, got %v", added)
	}

	// Any inaccessible video fails the whole request.
	rec = send([]string{"vid-1", "vid-private"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	rec = send(nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty list, got %d", rec.Code)
	}
}

func TestPlaylistHandlerRemoveVideo(t *testing.T) {
	playlists := ownedPlaylistStore(models.Playlist{ID: "pl-1", OwnerID: "owner-1", IsPublic: true})
	playlists.removeVideo = func(id, videoID string) error {
		if videoID != "vid-1" {
			return repositories.ErrNotFound
		}
		return nil
	}
	handler := PlaylistHandler{Playlists: playlists}

	req := asViewer(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/remove-video/pl-1?videoId=vid-1", nil), "owner-1")
	req.SetPathValue("playlistId", "pl-1")
	rec := httptest.NewRecorder()
	handler.RemoveVideo(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	req = asViewer(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/remove-video/pl-1?videoId=vid-9", nil), "owner-1")
	req.SetPathValue("playlistId", "pl-1")
	rec = httptest.NewRecorder()
	handler.RemoveVideo(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for absent member, got %d", rec.Code)
	}
}
