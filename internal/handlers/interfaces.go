package handlers

import (
	"context"
	"io"

	"github.com/vidstream/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdateEmail(ctx context.Context, id, email string) error
	UpdateFullName(ctx context.Context, id, fullName string) error
	UpdateAvatar(ctx context.Context, id, url string) error
	UpdateCover(ctx context.Context, id, url string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ChannelCard(ctx context.Context, username, viewerID string) (models.ChannelCard, error)
	RecordWatch(ctx context.Context, entry models.WatchEntry) error
	WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error)
}

// SessionManager issues, refreshes and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	GetCard(ctx context.Context, id, viewerID string) (models.VideoCard, error)
	ListByOwner(ctx context.Context, ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.VideoCard, error)
	ListPublic(ctx context.Context, viewerID string) ([]models.VideoCard, error)
	Search(ctx context.Context, query, viewerID string) ([]models.VideoCard, error)
	UpdateTitle(ctx context.Context, id, title string) error
	UpdateDescription(ctx context.Context, id, description string) error
	SetVisibility(ctx context.Context, id string, public bool) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	FilterAccessible(ctx context.Context, ids []string, viewerID string) ([]string, error)
}

// TweetStore captures persistence for tweet workflows.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	GetCard(ctx context.Context, id, viewerID string) (models.TweetCard, error)
	ListByOwner(ctx context.Context, ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.TweetCard, error)
	UpdateContent(ctx context.Context, id, content string) error
	SetVisibility(ctx context.Context, id string, public bool) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments and threaded replies.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForParent(ctx context.Context, parent models.ParentRef, viewerID string, offset, limit int) ([]models.CommentCard, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// LikeStore records and removes engagement marks.
type LikeStore interface {
	Create(ctx context.Context, like models.Like) error
	DeleteMatching(ctx context.Context, target models.ParentRef, likedBy string) error
}

// SubscriptionStore records channel subscriptions.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	DeleteMatching(ctx context.Context, channelID, subscriberID string) error
	ListSubscribers(ctx context.Context, channelID string, offset, limit int) ([]models.SubscriberCard, error)
}

// PlaylistStore captures persistence for playlist workflows.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	GetCard(ctx context.Context, id, viewerID string) (models.PlaylistCard, error)
	ListByOwner(ctx context.Context, ownerID string, includePrivate bool) ([]models.Playlist, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdateDescription(ctx context.Context, id, description string) error
	SetVisibility(ctx context.Context, id string, public bool) error
	Delete(ctx context.Context, id string) error
	AddVideos(ctx context.Context, id string, videoIDs []string) error
	RemoveVideo(ctx context.Context, id, videoID string) error
}

// MediaStore persists uploaded media and returns public locations.
type MediaStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, location string) error
}

// EmailVerifier issues and checks one-time email verification codes.
type EmailVerifier interface {
	Issue(ctx context.Context, userID, email string) error
	Confirm(userID, code string) error
}
