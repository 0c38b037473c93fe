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

// SubscriptionHandler implements subscribing to channels and listing a
// channel's subscribers.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	NowFunc       func() time.Time
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// Subscribe handles POST /api/v1/subscriptions/subscribe/{channelUserId}.
func (h SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	channelID := strings.TrimSpace(r.PathValue("channelUserId"))
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "a channel id is required")
		return
	}

	if channelID == viewerID {
		respondError(ctx, w, http.StatusBadRequest, "you cannot subscribe to your own channel")
		return
	}

	err := h.Subscriptions.Create(ctx, models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    channelID,
		SubscriberID: viewerID,
		CreatedAt:    h.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "already subscribed")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "channel not found")
		default:
			logging.FromContext(ctx).Error("create subscription failed", "channelId", channelID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondData(ctx, w, http.StatusCreated, "subscribed", nil)
}

// Unsubscribe handles DELETE /api/v1/subscriptions/unsubscribe/{channelUserId}.
func (h SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	channelID := strings.TrimSpace(r.PathValue("channelUserId"))
	if channelID == "" {
		respondError(ctx, w, http.StatusBadRequest, "a channel id is required")
		return
	}

	if err := h.Subscriptions.DeleteMatching(ctx, channelID, viewerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "subscription not found")
			return
		}
		logging.FromContext(ctx).Error("delete subscription failed", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	respondData(ctx, w, http.StatusOK, "unsubscribed", nil)
}

// Subscribers handles GET /api/v1/subscriptions/get-subscribers: one page of
// the viewer's own subscribers, twenty per page.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	start, ok := startParam(r)
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "start must be a non-negative integer")
		return
	}

	cards, err := h.Subscriptions.ListSubscribers(ctx, viewerID, start, pagination.FetchLimit(pagination.SubscriberPageSize))
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	items, next := pagination.Page(cards, start, pagination.SubscriberPageSize)
	respondData(ctx, w, http.StatusOK, "subscribers fetched", page{Items: items, Next: next})
}
