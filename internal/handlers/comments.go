package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/pagination"
)

// CommentHandler implements commenting on videos and tweets plus threaded
// replies. Reply threads are paginated separately, never nested inside their
// parent comment.
type CommentHandler struct {
	Comments CommentStore
	Likes    LikeStore
	NowFunc  func() time.Time
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type commentRequest struct {
	Content string `json:"content"`
}

// CommentVideo handles POST /api/v1/comments/comment-video/{videoId}.
func (h CommentHandler) CommentVideo(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.ParentVideo, r.PathValue("videoId"))
}

// CommentTweet handles POST /api/v1/comments/comment-tweet/{tweetId}.
func (h CommentHandler) CommentTweet(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.ParentTweet, r.PathValue("tweetId"))
}

// ReplyComment handles POST /api/v1/comments/reply-comment/{commentId}.
func (h CommentHandler) ReplyComment(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.ParentComment, r.PathValue("commentId"))
}

func (h CommentHandler) create(w http.ResponseWriter, r *http.Request, kind models.ParentKind, parentID string) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	parent, err := models.NewParentRef(kind, parentID)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "a parent id is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   viewerID,
		Content:   req.Content,
		Parent:    parent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, string(kind)+" not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "comment created", map[string]string{"id": comment.ID})
}

// Update handles PATCH /api/v1/comments/update-comment/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentId"))
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	if !requireOwner(ctx, w, comment.OwnerID, auth.UserID(ctx)) {
		return
	}

	if err := h.Comments.UpdateContent(ctx, comment.ID, req.Content); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "comment updated", nil)
}

// Delete handles DELETE /api/v1/comments/delete-comment/{commentId}. Replies
// and likes on the comment go with it.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentId"))
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	if !requireOwner(ctx, w, comment.OwnerID, auth.UserID(ctx)) {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "comment deleted", nil)
}

// Like handles POST /api/v1/comments/like-comment/{commentId}.
func (h CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	likeTarget(ctx, w, h.Likes, models.ParentComment, r.PathValue("commentId"), auth.UserID(ctx), h.now())
}

// Unlike handles DELETE /api/v1/comments/unlike-comment/{commentId}.
func (h CommentHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unlikeTarget(ctx, w, h.Likes, models.ParentComment, r.PathValue("commentId"), auth.UserID(ctx))
}

// List handles GET /api/v1/comments/get-comments: one page of top-level
// comments under a video or tweet.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var kind models.ParentKind
	switch r.URL.Query().Get("type") {
	case "video":
		kind = models.ParentVideo
	case "tweet":
		kind = models.ParentTweet
	default:
		respondError(ctx, w, http.StatusBadRequest, "type must be video or tweet")
		return
	}

	h.listPage(w, r, kind, r.URL.Query().Get("key"), viewerID)
}

// ListReplies handles GET /api/v1/comments/get-replies: one page of the reply
// thread under a comment.
func (h CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.listPage(w, r, models.ParentComment, r.URL.Query().Get("key"), auth.UserID(ctx))
}

func (h CommentHandler) listPage(w http.ResponseWriter, r *http.Request, kind models.ParentKind, key, viewerID string) {
	ctx := r.Context()

	parent, err := models.NewParentRef(kind, key)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "key is required")
		return
	}

	start, ok := startParam(r)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "start must be a non-negative integer")
		return
	}

	cards, err := h.Comments.ListForParent(ctx, parent, viewerID, start, pagination.FetchLimit(pagination.DefaultPageSize))
	if err != nil {
		respondStoreError(ctx, w, err, string(kind)+" not found")
		return
	}

	items, next := pagination.Page(cards, start, pagination.DefaultPageSize)
	respondData(ctx, w, http.StatusOK, "comments fetched", page{Items: items, Next: next})
}
