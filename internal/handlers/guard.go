package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
)

// requireOwner enforces the mutation guard: the entity was already resolved,
// so the only remaining question is whether the viewer owns it. Responds with
// Forbidden and returns false on a mismatch.
func requireOwner(ctx context.Context, w http.ResponseWriter, ownerID, viewerID string) bool {
	if ownerID != viewerID {
		logging.FromContext(ctx).Warn("ownership check failed", "ownerId", ownerID, "viewerId", viewerID)
		respondError(ctx, w, http.StatusForbidden, "you do not own this resource")
		return false
	}
	return true
}

// respondStoreError maps repository sentinels onto the HTTP taxonomy. The
// notFound message is caller-supplied so clients learn which entity was
// missing; conflicts and internal failures use fixed phrasing.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, notFound)
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "resource already exists")
	default:
		logging.FromContext(ctx).Error("store operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

// likeTarget records an engagement mark for the viewer on the given target.
// Duplicate likes surface as Conflict, a missing target as NotFound.
func likeTarget(ctx context.Context, w http.ResponseWriter, likes LikeStore, kind models.ParentKind, targetID, viewerID string, now time.Time) {
	target, err := models.NewParentRef(kind, targetID)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "a target id is required")
		return
	}

	err = likes.Create(ctx, models.Like{
		ID:        uuid.NewString(),
		LikedBy:   viewerID,
		Target:    target,
		CreatedAt: now,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "already liked")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, string(kind)+" not found")
		default:
			logging.FromContext(ctx).Error("record like failed", "target", target.String(), "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondData(ctx, w, http.StatusCreated, "liked", nil)
}

// unlikeTarget removes the viewer's engagement mark. A mark that never
// existed surfaces as NotFound.
func unlikeTarget(ctx context.Context, w http.ResponseWriter, likes LikeStore, kind models.ParentKind, targetID, viewerID string) {
	target, err := models.NewParentRef(kind, targetID)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "a target id is required")
		return
	}

	if err := likes.DeleteMatching(ctx, target, viewerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "like not found")
			return
		}
		logging.FromContext(ctx).Error("remove like failed", "target", target.String(), "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	respondData(ctx, w, http.StatusOK, "unliked", nil)
}
