package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/models"
)

// PlaylistHandler implements ordered, deduplicated video playlists.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	NowFunc   func() time.Time
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"isPublic"`
}

// Create handles POST /api/v1/playlists/create-playlist.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req createPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     viewerID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		IsPublic:    isPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "playlist created", map[string]string{"id": playlist.ID})
}

// Get handles GET /api/v1/playlists/get-playlist. Member videos the viewer
// may not see are filtered out; totalVideos still counts them.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	playlistID := strings.TrimSpace(r.URL.Query().Get("playlistId"))
	if playlistID == "" {
		respondError(ctx, w, http.StatusBadRequest, "playlistId is required")
		return
	}

	card, err := h.Playlists.GetCard(ctx, playlistID, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist fetched", card)
}

// ListByChannel handles GET /api/v1/playlists/get-all-playlists/{channelId}.
func (h PlaylistHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	channelID := strings.TrimSpace(r.PathValue("channelId"))
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "a channel id is required")
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, channelID, channelID == viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlists fetched", playlists)
}

func (h PlaylistHandler) fetchOwned(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return models.Playlist{}, false
	}

	if !requireOwner(ctx, w, playlist.OwnerID, auth.UserID(ctx)) {
		return models.Playlist{}, false
	}

	return playlist, true
}

// UpdateName handles PATCH /api/v1/playlists/update-name/{playlistId}.
func (h PlaylistHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateTextRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	playlist, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.UpdateName(ctx, playlist.ID, req.Name); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "name updated", nil)
}

// UpdateDescription handles PATCH /api/v1/playlists/update-description/{playlistId}.
func (h PlaylistHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateTextRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "description is required")
		return
	}

	playlist, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.UpdateDescription(ctx, playlist.ID, req.Description); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "description updated", nil)
}

// MakePrivate handles PATCH /api/v1/playlists/private-playlist/{playlistId}.
func (h PlaylistHandler) MakePrivate(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

// MakePublic handles PATCH /api/v1/playlists/public-playlist/{playlistId}.
func (h PlaylistHandler) MakePublic(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h PlaylistHandler) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	ctx := r.Context()

	playlist, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if playlist.IsPublic == public {
		state := "private"
		if public {
			state = "public"
		}
		respondError(ctx, w, http.StatusConflict, "playlist is already "+state)
		return
	}

	if err := h.Playlists.SetVisibility(ctx, playlist.ID, public); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "visibility updated", nil)
}

// Delete handles DELETE /api/v1/playlists/delete-playlist/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist deleted", nil)
}

type addVideosRequest struct {
	VideoIDs []string `json:"videoIds"`
}

// AddVideos handles PATCH /api/v1/playlists/add-videos/{playlistId}. Every
// requested video must be visible to the viewer; videos already in the
// playlist are skipped.
func (h PlaylistHandler) AddVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req addVideosRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.VideoIDs) == 0 {
		respondError(ctx, w, http.StatusBadRequest, "videoIds must not be empty")
		return
	}

	playlist, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	accessible, err := h.Videos.FilterAccessible(ctx, req.VideoIDs, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if len(accessible) != len(dedupe(req.VideoIDs)) {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	if err := h.Playlists.AddVideos(ctx, playlist.ID, req.VideoIDs); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "videos added", nil)
}

// RemoveVideo handles DELETE /api/v1/playlists/remove-video/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	playlist, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not in playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, "video removed", nil)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
