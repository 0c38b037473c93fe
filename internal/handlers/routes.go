package handlers

import (
	"net/http"
	"time"

	"github.com/vidstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Tweets        TweetStore
	Comments      CommentStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Media         MediaStore
	Verifier      EmailVerifier
	Verify        middleware.TokenVerifier
	Limiter       RateLimiter
	NowFunc       func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Read
// endpoints accept anonymous viewers; mutations require a valid access token.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, Verifier: deps.Verifier, Limiter: deps.Limiter, NowFunc: deps.NowFunc}
	videos := VideoHandler{Videos: deps.Videos, Comments: deps.Comments, Likes: deps.Likes, Users: deps.Users, Media: deps.Media, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, Comments: deps.Comments, Likes: deps.Likes, Users: deps.Users, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Likes: deps.Likes, NowFunc: deps.NowFunc}
	subs := SubscriptionHandler{Subscriptions: deps.Subscriptions, NowFunc: deps.NowFunc}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, NowFunc: deps.NowFunc}
	feed := FeedHandler{Videos: deps.Videos}

	strict := middleware.RequireUser(deps.Verify)
	lenient := middleware.OptionalUser(deps.Verify)

	open := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, lenient(fn))
	}
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, strict(fn))
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	open("GET /api/v1/videos/get-video", videos.Get)
	open("GET /api/v1/videos/get-all-videos/{username}", videos.ListByChannel)
	protected("POST /api/v1/videos/create-video", videos.Create)
	protected("POST /api/v1/videos/like-video/{videoId}", videos.Like)
	protected("DELETE /api/v1/videos/unlike-video/{videoId}", videos.Unlike)
	protected("PATCH /api/v1/videos/update-video-title/{videoId}", videos.UpdateTitle)
	protected("PATCH /api/v1/videos/update-video-description/{videoId}", videos.UpdateDescription)
	protected("PATCH /api/v1/videos/private-video/{videoId}", videos.MakePrivate)
	protected("PATCH /api/v1/videos/public-video/{videoId}", videos.MakePublic)
	protected("DELETE /api/v1/videos/delete-video/{videoId}", videos.Delete)
	protected("POST /api/v1/videos/watch-video/{videoId}", videos.Watch)

	open("GET /api/v1/tweets/get-tweet", tweets.Get)
	open("GET /api/v1/tweets/get-all-tweets/{username}", tweets.ListByChannel)
	protected("POST /api/v1/tweets/create-tweet", tweets.Create)
	protected("PATCH /api/v1/tweets/update-tweet/{tweetId}", tweets.Update)
	protected("PATCH /api/v1/tweets/private-tweet/{tweetId}", tweets.MakePrivate)
	protected("PATCH /api/v1/tweets/public-tweet/{tweetId}", tweets.MakePublic)
	protected("DELETE /api/v1/tweets/delete-tweet/{tweetId}", tweets.Delete)
	protected("POST /api/v1/tweets/like-tweet/{tweetId}", tweets.Like)
	protected("DELETE /api/v1/tweets/unlike-tweet/{tweetId}", tweets.Unlike)

	open("GET /api/v1/comments/get-comments", comments.List)
	open("GET /api/v1/comments/get-replies", comments.ListReplies)
	protected("POST /api/v1/comments/comment-video/{videoId}", comments.CommentVideo)
	protected("POST /api/v1/comments/comment-tweet/{tweetId}", comments.CommentTweet)
	protected("POST /api/v1/comments/reply-comment/{commentId}", comments.ReplyComment)
	protected("PATCH /api/v1/comments/update-comment/{commentId}", comments.Update)
	protected("DELETE /api/v1/comments/delete-comment/{commentId}", comments.Delete)
	protected("POST /api/v1/comments/like-comment/{commentId}", comments.Like)
	protected("DELETE /api/v1/comments/unlike-comment/{commentId}", comments.Unlike)

	protected("POST /api/v1/subscriptions/subscribe/{channelUserId}", subs.Subscribe)
	protected("DELETE /api/v1/subscriptions/unsubscribe/{channelUserId}", subs.Unsubscribe)
	protected("GET /api/v1/subscriptions/get-subscribers", subs.Subscribers)

	protected("POST /api/v1/playlists/create-playlist", playlists.Create)
	open("GET /api/v1/playlists/get-playlist", playlists.Get)
	open("GET /api/v1/playlists/get-all-playlists/{channelId}", playlists.ListByChannel)
	protected("PATCH /api/v1/playlists/update-name/{playlistId}", playlists.UpdateName)
	protected("PATCH /api/v1/playlists/update-description/{playlistId}", playlists.UpdateDescription)
	protected("PATCH /api/v1/playlists/private-playlist/{playlistId}", playlists.MakePrivate)
	protected("PATCH /api/v1/playlists/public-playlist/{playlistId}", playlists.MakePublic)
	protected("DELETE /api/v1/playlists/delete-playlist/{playlistId}", playlists.Delete)
	protected("PATCH /api/v1/playlists/add-videos/{playlistId}", playlists.AddVideos)
	protected("DELETE /api/v1/playlists/remove-video/{playlistId}", playlists.RemoveVideo)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh", users.Refresh)
	protected("POST /api/v1/users/logout", users.Logout)
	protected("POST /api/v1/users/change-password", users.ChangePassword)
	protected("GET /api/v1/users/current-user", users.CurrentUser)
	protected("PATCH /api/v1/users/update-email", users.UpdateEmail)
	protected("PATCH /api/v1/users/update-fullname", users.UpdateFullName)
	protected("PATCH /api/v1/users/update-avatar", users.UpdateAvatar)
	protected("PATCH /api/v1/users/update-cover", users.UpdateCover)
	open("GET /api/v1/users/channel/{username}", users.Channel)
	protected("GET /api/v1/users/watch-history", users.WatchHistory)
	protected("POST /api/v1/users/request-verification", users.RequestVerification)
	protected("POST /api/v1/users/verify-email", users.VerifyEmail)

	open("GET /api/v1/feed/home-page", feed.Home)
	open("GET /api/v1/feed/search-query", feed.Search)
}
