package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pagination"
	"github.com/vidstream/backend/internal/repositories"
)

// VideoHandler implements the video endpoints: detail and channel listings,
// upload metadata, engagement, ownership-guarded mutations and watch
// tracking.
type VideoHandler struct {
	Videos   VideoStore
	Comments CommentStore
	Likes    LikeStore
	Users    UserStore
	Media    MediaStore
	NowFunc  func() time.Time
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// videoDetail is the Get response: the enriched card plus the first page of
// top-level comments.
type videoDetail struct {
	Video    models.VideoCard `json:"video"`
	Comments page             `json:"comments"`
}

// Get handles GET /api/v1/videos/get-video. Anonymous viewers see public
// videos with likedByUser always false.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.detail")
	defer span.End()
	viewerID := auth.UserID(ctx)

	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if videoID == "" {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	card, err := h.Videos.GetCard(ctx, videoID, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	// private videos are invisible to everyone but their owner
	if !card.IsPublic && card.Author.ID != viewerID {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	parent, err := models.NewParentRef(models.ParentVideo, videoID)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "videoId is required")
		return
	}

	comments, err := h.Comments.ListForParent(ctx, parent, viewerID, 0, pagination.FetchLimit(pagination.DefaultPageSize))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	pageItems, next := pagination.Page(comments, 0, pagination.DefaultPageSize)
	respondData(ctx, w, http.StatusOK, "video fetched", videoDetail{
		Video:    card,
		Comments: page{Items: pageItems, Next: next},
	})
}

// ListByChannel handles GET /api/v1/videos/get-all-videos/{username}.
func (h VideoHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	start, ok := startParam(r)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "start must be a non-negative integer")
		return
	}

	owner, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	includePrivate := owner.ID == viewerID
	cards, err := h.Videos.ListByOwner(ctx, owner.ID, viewerID, includePrivate, start, pagination.FetchLimit(pagination.DefaultPageSize))
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	items, next := pagination.Page(cards, start, pagination.DefaultPageSize)
	respondData(ctx, w, http.StatusOK, "videos fetched", page{Items: items, Next: next})
}

type createVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoFile   string `json:"videoFile"`
	Thumbnail   string `json:"thumbnail"`
	Duration    int64  `json:"duration"`
	IsPublic    *bool  `json:"isPublic"`
}

// Create handles POST /api/v1/videos/create-video. The media and thumbnail
// locations are already-resolved upload URLs.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req createVideoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.VideoFile = strings.TrimSpace(req.VideoFile)
	if req.Title == "" || req.VideoFile == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and videoFile are required")
		return
	}
	if req.Duration < 0 {
		respondError(ctx, w, http.StatusBadRequest, "duration must not be negative")
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      viewerID,
		MediaURL:     req.VideoFile,
		ThumbnailURL: strings.TrimSpace(req.Thumbnail),
		Title:        req.Title,
		Description:  strings.TrimSpace(req.Description),
		Duration:     req.Duration,
		IsPublic:     isPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	card, err := h.Videos.GetCard(ctx, video.ID, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "video created", card)
}

// Like handles POST /api/v1/videos/like-video/{videoId}.
func (h VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	likeTarget(ctx, w, h.Likes, models.ParentVideo, r.PathValue("videoId"), auth.UserID(ctx), h.now())
}

// Unlike handles DELETE /api/v1/videos/unlike-video/{videoId}.
func (h VideoHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unlikeTarget(ctx, w, h.Likes, models.ParentVideo, r.PathValue("videoId"), auth.UserID(ctx))
}

// fetchOwned resolves the video and enforces the ownership guard. The bool
// reports whether the caller may continue.
func (h VideoHandler) fetchOwned(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return models.Video{}, false
	}

	if !requireOwner(ctx, w, video.OwnerID, auth.UserID(ctx)) {
		return models.Video{}, false
	}

	return video, true
}

type updateTextRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Name        string `json:"name"`
}

// UpdateTitle handles PATCH /api/v1/videos/update-video-title/{videoId}.
func (h VideoHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateTextRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	video, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Videos.UpdateTitle(ctx, video.ID, req.Title); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "title updated", nil)
}

// UpdateDescription handles PATCH /api/v1/videos/update-video-description/{videoId}.
func (h VideoHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
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

	video, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Videos.UpdateDescription(ctx, video.ID, req.Description); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "description updated", nil)
}

// MakePrivate handles PATCH /api/v1/videos/private-video/{videoId}.
func (h VideoHandler) MakePrivate(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

// MakePublic handles PATCH /api/v1/videos/public-video/{videoId}.
func (h VideoHandler) MakePublic(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h VideoHandler) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	ctx := r.Context()

	video, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	// toggling to the state the video is already in is a conflict
	if video.IsPublic == public {
		state := "private"
		if public {
			state = "public"
		}
		respondError(ctx, w, http.StatusConflict, "video is already "+state)
		return
	}

	if err := h.Videos.SetVisibility(ctx, video.ID, public); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "visibility updated", nil)
}

// Delete handles DELETE /api/v1/videos/delete-video/{videoId}. Dependent
// likes, comments and playlist entries are removed with the video.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	if h.Media != nil {
		// best effort: the record is gone either way
		logger := logging.FromContext(ctx)
		if err := h.Media.Remove(ctx, video.MediaURL); err != nil {
			logger.Warn("remove video media failed", "videoId", video.ID, "error", err)
		}
		if video.ThumbnailURL != "" {
			if err := h.Media.Remove(ctx, video.ThumbnailURL); err != nil {
				logger.Warn("remove video thumbnail failed", "videoId", video.ID, "error", err)
			}
		}
	}

	respondData(ctx, w, http.StatusOK, "video deleted", nil)
}

// Watch handles POST /api/v1/videos/watch-video/{videoId}: bumps the view
// counter and appends the video to the viewer's watch history.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	if !video.IsPublic && video.OwnerID != viewerID {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	err = h.Users.RecordWatch(ctx, models.WatchEntry{
		UserID:    viewerID,
		VideoID:   video.ID,
		WatchedAt: h.now(),
	})
	if err != nil && !errors.Is(err, repositories.ErrConflict) {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "watch recorded", nil)
}
