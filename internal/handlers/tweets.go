package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pagination"
)

// TweetHandler implements the tweet endpoints.
type TweetHandler struct {
	Tweets   TweetStore
	Comments CommentStore
	Likes    LikeStore
	Users    UserStore
	NowFunc  func() time.Time
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type tweetDetail struct {
	Tweet    models.TweetCard `json:"tweet"`
	Comments page             `json:"comments"`
}

// Get handles GET /api/v1/tweets/get-tweet.
func (h TweetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "tweet.detail")
	defer span.End()
	viewerID := auth.UserID(ctx)

	tweetID := strings.TrimSpace(r.URL.Query().Get("tweetId"))
	if tweetID == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweetId is required")
		return
	}

	card, err := h.Tweets.GetCard(ctx, tweetID, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	if !card.IsPublic && card.Author.ID != viewerID {
		respondError(ctx, w, http.StatusNotFound, "tweet not found")
		return
	}

	parent, err := models.NewParentRef(models.ParentTweet, tweetID)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "tweetId is required")
		return
	}

	comments, err := h.Comments.ListForParent(ctx, parent, viewerID, 0, pagination.FetchLimit(pagination.DefaultPageSize))
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	items, next := pagination.Page(comments, 0, pagination.DefaultPageSize)
	respondData(ctx, w, http.StatusOK, "tweet fetched", tweetDetail{
		Tweet:    card,
		Comments: page{Items: items, Next: next},
	})
}

// ListByChannel handles GET /api/v1/tweets/get-all-tweets/{username}.
func (h TweetHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
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
	cards, err := h.Tweets.ListByOwner(ctx, owner.ID, viewerID, includePrivate, start, pagination.FetchLimit(pagination.DefaultPageSize))
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	items, next := pagination.Page(cards, start, pagination.DefaultPageSize)
	respondData(ctx, w, http.StatusOK, "tweets fetched", page{Items: items, Next: next})
}

type createTweetRequest struct {
	Content  string `json:"content"`
	IsPublic *bool  `json:"isPublic"`
}

// Create handles POST /api/v1/tweets/create-tweet.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req createTweetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   viewerID,
		Content:   req.Content,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	card, err := h.Tweets.GetCard(ctx, tweet.ID, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "tweet created", card)
}

func (h TweetHandler) fetchOwned(w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	ctx := r.Context()

	tweet, err := h.Tweets.FindByID(ctx, r.PathValue("tweetId"))
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return models.Tweet{}, false
	}

	if !requireOwner(ctx, w, tweet.OwnerID, auth.UserID(ctx)) {
		return models.Tweet{}, false
	}

	return tweet, true
}

// Update handles PATCH /api/v1/tweets/update-tweet/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateTextRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	tweet, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.UpdateContent(ctx, tweet.ID, req.Content); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "tweet updated", nil)
}

// MakePrivate handles PATCH /api/v1/tweets/private-tweet/{tweetId}.
func (h TweetHandler) MakePrivate(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

// MakePublic handles PATCH /api/v1/tweets/public-tweet/{tweetId}.
func (h TweetHandler) MakePublic(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h TweetHandler) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	ctx := r.Context()

	tweet, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if tweet.IsPublic == public {
		state := "private"
		if public {
			state = "public"
		}
		respondError(ctx, w, http.StatusConflict, "tweet is already "+state)
		return
	}

	if err := h.Tweets.SetVisibility(ctx, tweet.ID, public); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "visibility updated", nil)
}

// Delete handles DELETE /api/v1/tweets/delete-tweet/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.fetchOwned(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "tweet deleted", nil)
}

// Like handles POST /api/v1/tweets/like-tweet/{tweetId}.
func (h TweetHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	likeTarget(ctx, w, h.Likes, models.ParentTweet, r.PathValue("tweetId"), auth.UserID(ctx), h.now())
}

// Unlike handles DELETE /api/v1/tweets/unlike-tweet/{tweetId}.
func (h TweetHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unlikeTarget(ctx, w, h.Likes, models.ParentTweet, r.PathValue("tweetId"), auth.UserID(ctx))
}
