package models

import "time"

// User represents an account within the VidStream platform. Usernames and
// emails are stored lowercased and must be unique.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	AvatarURL    string
	CoverURL     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Video is an uploaded video owned by a channel. The media and thumbnail URLs
// are already-resolved blob-store locations.
type Video struct {
	ID           string
	OwnerID      string
	MediaURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Duration     int64
	Views        int64
	IsPublic     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Tweet is a short text post owned by a channel.
type Tweet struct {
	ID        string
	OwnerID   string
	Content   string
	IsPublic  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment attaches to exactly one parent: a video, a tweet, or another
// comment when it is a threaded reply.
type Comment struct {
	ID        string
	OwnerID   string
	Content   string
	Parent    ParentRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Like records that a user liked exactly one target. The (target, likedBy)
// pair is unique.
type Like struct {
	ID        string
	LikedBy   string
	Target    ParentRef
	CreatedAt time.Time
}

// Subscription links a subscriber to a channel. The (channel, subscriber)
// pair is unique.
type Subscription struct {
	ID           string
	ChannelID    string
	SubscriberID string
	CreatedAt    time.Time
}

// Playlist is an ordered, deduplicated list of video references.
type Playlist struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	IsPublic    bool
	VideoIDs    []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WatchEntry is one item of a user's ordered watch history.
type WatchEntry struct {
	UserID    string
	VideoID   string
	WatchedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// AuthorInfo is the trimmed author projection joined into card views. Only
// the display name and avatar are ever exposed, never the full user record.
type AuthorInfo struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// VideoCard is the denormalized feed/detail view of a video.
type VideoCard struct {
	ID            string     `json:"id"`
	MediaURL      string     `json:"videoFile"`
	ThumbnailURL  string     `json:"thumbnail"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Duration      int64      `json:"duration"`
	Views         int64      `json:"views"`
	IsPublic      bool       `json:"isPublic"`
	Author        AuthorInfo `json:"user"`
	LikesCount    int64      `json:"likesCount"`
	LikedByUser   bool       `json:"likedByUser"`
	CommentsCount int64      `json:"commentsCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// TweetCard is the denormalized feed/detail view of a tweet.
type TweetCard struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	IsPublic      bool       `json:"isPublic"`
	Author        AuthorInfo `json:"user"`
	LikesCount    int64      `json:"likesCount"`
	LikedByUser   bool       `json:"likedByUser"`
	CommentsCount int64      `json:"commentsCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CommentCard is a comment enriched with its author, like state and reply
// count. Reply threads are paginated separately, never nested.
type CommentCard struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Author       AuthorInfo `json:"user"`
	LikesCount   int64      `json:"likesCount"`
	LikedByUser  bool       `json:"likedByUser"`
	RepliesCount int64      `json:"repliesCount"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// ChannelCard is the public profile view of a user channel.
type ChannelCard struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullname"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// SubscriberCard is one row of a channel's subscriber listing.
type SubscriberCard struct {
	SubscriptionID string     `json:"subscriptionId"`
	Subscriber     AuthorInfo `json:"subscriberUser"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// PlaylistCard is the detail view of a playlist with its visible videos.
type PlaylistCard struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	IsPublic    bool        `json:"isPublic"`
	Owner       AuthorInfo  `json:"user"`
	Videos      []VideoCard `json:"videosInfo"`
	TotalVideos int64       `json:"totalVideos"`
}
