package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate username, got %v", err)
	}

	dup.Username = "someone-else"
	dup.Email = user.Email
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}

	byName, err := repo.FindByLogin(ctx, user.Username)
	if err != nil {
		t.Fatalf("find by username login: %v", err)
	}
	byEmail, err := repo.FindByLogin(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email login: %v", err)
	}
	if byName.ID != user.ID || byEmail.ID != user.ID {
		t.Fatalf("login lookup returned wrong users: %s %s", byName.ID, byEmail.ID)
	}

	if err := repo.UpdateFullName(ctx, user.ID, "Alice Renamed"); err != nil {
		t.Fatalf("update fullname: %v", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, "rotated-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.FullName != "Alice Renamed" || fetched.PasswordHash != "rotated-hash" {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	other := createTestUser(t, repo, "bob")
	if err := repo.UpdateEmail(ctx, other.ID, user.Email); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict taking another account's email, got %v", err)
	}

	if err := repo.UpdateFullName(ctx, uuid.NewString(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_ChannelCard(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subRepo := NewPostgresSubscriptionRepository(testPool)

	channel := createTestUser(t, userRepo, "channel")
	fan := createTestUser(t, userRepo, "fan")
	lurker := createTestUser(t, userRepo, "lurker")

	for _, subscriber := range []models.User{fan, lurker} {
		err := subRepo.Create(ctx, models.Subscription{
			ID:           uuid.NewString(),
			ChannelID:    channel.ID,
			SubscriberID: subscriber.ID,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("subscribe %s: %v", subscriber.Username, err)
		}
	}
	err := subRepo.Create(ctx, models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    fan.ID,
		SubscriberID: channel.ID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("subscribe back: %v", err)
	}

	card, err := userRepo.ChannelCard(ctx, channel.Username, fan.ID)
	if err != nil {
		t.Fatalf("channel card: %v", err)
	}
	if card.SubscriberCount != 2 {
		t.Fatalf("expected 2 subscribers, got %d", card.SubscriberCount)
	}
	if card.SubscribedToCount != 1 {
		t.Fatalf("expected 1 outgoing subscription, got %d", card.SubscribedToCount)
	}
	if !card.IsSubscribed {
		t.Fatal("expected viewer's subscription to be reflected")
	}

	card, err = userRepo.ChannelCard(ctx, channel.Username, "")
	if err != nil {
		t.Fatalf("channel card for anonymous viewer: %v", err)
	}
	if card.IsSubscribed {
		t.Fatal("anonymous viewers are never subscribed")
	}

	if _, err := userRepo.ChannelCard(ctx, "ghost", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}

func TestPostgresVideoRepository_CardsAndListings(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	likeRepo := NewPostgresLikeRepository(testPool)
	commentRepo := NewPostgresCommentRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	viewer := createTestUser(t, userRepo, "viewer")

	base := time.Now().UTC().Add(-time.Hour)
	public1 := createTestVideo(t, videoRepo, owner.ID, "gopher tutorial", true, base)
	public2 := createTestVideo(t, videoRepo, owner.ID, "rustlang rant", true, base.Add(time.Minute))
	private := createTestVideo(t, videoRepo, owner.ID, "unlisted cut", false, base.Add(2*time.Minute))

	for _, likedBy := range []string{owner.ID, viewer.ID} {
		target, _ := models.NewParentRef(models.ParentVideo, public1.ID)
		err := likeRepo.Create(ctx, models.Like{
			ID:        uuid.NewString(),
			LikedBy:   likedBy,
			Target:    target,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("like video: %v", err)
		}
	}

	parent, _ := models.NewParentRef(models.ParentVideo, public1.ID)
	comment := createTestComment(t, commentRepo, viewer.ID, parent, "first", base.Add(3*time.Minute))
	replyParent, _ := models.NewParentRef(models.ParentComment, comment.ID)
	createTestComment(t, commentRepo, owner.ID, replyParent, "thanks", base.Add(4*time.Minute))

	card, err := videoRepo.GetCard(ctx, public1.ID, viewer.ID)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if card.LikesCount != 2 || !card.LikedByUser {
		t.Fatalf("expected 2 likes with viewer marked, got %+v", card)
	}
	// replies hang off the comment, not the video
	if card.CommentsCount != 1 {
		t.Fatalf("expected 1 top-level comment, got %d", card.CommentsCount)
	}
	if card.Author.ID != owner.ID {
		t.Fatalf("expected author projection, got %+v", card.Author)
	}

	card, err = videoRepo.GetCard(ctx, public1.ID, "")
	if err != nil {
		t.Fatalf("get card anonymously: %v", err)
	}
	if card.LikedByUser {
		t.Fatal("anonymous viewers never appear as likers")
	}

	cards, err := videoRepo.ListByOwner(ctx, owner.ID, viewer.ID, false, 0, 10)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected private video hidden, got %d cards", len(cards))
	}
	if cards[0].ID != public1.ID || cards[1].ID != public2.ID {
		t.Fatalf("expected oldest-first channel order, got %s %s", cards[0].ID, cards[1].ID)
	}

	cards, err = videoRepo.ListByOwner(ctx, owner.ID, owner.ID, true, 0, 10)
	if err != nil {
		t.Fatalf("list by owner with private: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected all 3 videos for the owner, got %d", len(cards))
	}

	feed, err := videoRepo.ListPublic(ctx, "")
	if err != nil {
		t.Fatalf("list public: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 public videos, got %d", len(feed))
	}
	if feed[0].ID != public2.ID {
		t.Fatalf("expected newest-first feed, got %s first", feed[0].ID)
	}

	results, err := videoRepo.Search(ctx, "GOPHER", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != public1.ID {
		t.Fatalf("expected case-insensitive title match, got %+v", results)
	}

	accessible, err := videoRepo.FilterAccessible(ctx, []string{public1.ID, private.ID, uuid.NewString()}, viewer.ID)
	if err != nil {
		t.Fatalf("filter accessible: %v", err)
	}
	if len(accessible) != 1 || accessible[0] != public1.ID {
		t.Fatalf("expected only the public video accessible to the viewer, got %v", accessible)
	}

	accessible, err = videoRepo.FilterAccessible(ctx, []string{public1.ID, private.ID}, owner.ID)
	if err != nil {
		t.Fatalf("filter accessible as owner: %v", err)
	}
	if len(accessible) != 2 {
		t.Fatalf("expected the owner to reach their private video, got %v", accessible)
	}

	if err := videoRepo.IncrementViews(ctx, public1.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	fetched, err := videoRepo.FindByID(ctx, public1.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.Views != 1 {
		t.Fatalf("expected 1 view, got %d", fetched.Views)
	}

	if err := videoRepo.Delete(ctx, public1.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if _, err := videoRepo.FindByID(ctx, public1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// likes and comments went with the video
	if _, err := commentRepo.FindByID(ctx, comment.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected comment cascade, got %v", err)
	}
}

func TestPostgresTweetRepository_CardsAndListing(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	tweetRepo := NewPostgresTweetRepository(testPool)
	likeRepo := NewPostgresLikeRepository(testPool)
	commentRepo := NewPostgresCommentRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	viewer := createTestUser(t, userRepo, "viewer")

	base := time.Now().UTC().Add(-time.Hour)
	first := models.Tweet{
		ID: uuid.NewString(), OwnerID: owner.ID, Content: "hello", IsPublic: true,
		CreatedAt: base, UpdatedAt: base,
	}
	second := models.Tweet{
		ID: uuid.NewString(), OwnerID: owner.ID, Content: "again", IsPublic: true,
		CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	draft := models.Tweet{
		ID: uuid.NewString(), OwnerID: owner.ID, Content: "draft", IsPublic: false,
		CreatedAt: base.Add(2 * time.Minute), UpdatedAt: base.Add(2 * time.Minute),
	}
	for _, tweet := range []models.Tweet{first, second, draft} {
		if err := tweetRepo.Create(ctx, tweet); err != nil {
			t.Fatalf("create tweet: %v", err)
		}
	}

	tweetRef, _ := models.NewParentRef(models.ParentTweet, first.ID)
	err := likeRepo.Create(ctx, models.Like{
		ID: uuid.NewString(), LikedBy: viewer.ID, Target: tweetRef, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("like tweet: %v", err)
	}
	createTestComment(t, commentRepo, viewer.ID, tweetRef, "nice", time.Now().UTC())

	card, err := tweetRepo.GetCard(ctx, first.ID, viewer.ID)
	if err != nil {
		t.Fatalf("get tweet card: %v", err)
	}
	if card.LikesCount != 1 || !card.LikedByUser || card.CommentsCount != 1 {
		t.Fatalf("unexpected tweet aggregates: %+v", card)
	}

	cards, err := tweetRepo.ListByOwner(ctx, owner.ID, viewer.ID, false, 0, 10)
	if err != nil {
		t.Fatalf("list tweets: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != first.ID {
		t.Fatalf("expected 2 public tweets oldest first, got %+v", cards)
	}

	cards, err = tweetRepo.ListByOwner(ctx, owner.ID, owner.ID, true, 0, 10)
	if err != nil {
		t.Fatalf("list tweets with private: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 tweets for the owner, got %d", len(cards))
	}

	if err := tweetRepo.UpdateContent(ctx, first.ID, "edited"); err != nil {
		t.Fatalf("update tweet: %v", err)
	}
	fetched, err := tweetRepo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("find tweet: %v", err)
	}
	if fetched.Content != "edited" {
		t.Fatalf("expected edited content, got %q", fetched.Content)
	}

	if err := tweetRepo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete tweet: %v", err)
	}
	if _, err := tweetRepo.FindByID(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresLikeRepository_TargetsAndConflicts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	commentRepo := NewPostgresCommentRepository(testPool)
	likeRepo := NewPostgresLikeRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	video := createTestVideo(t, videoRepo, owner.ID, "a clip", true, time.Now().UTC())
	videoRef, _ := models.NewParentRef(models.ParentVideo, video.ID)
	comment := createTestComment(t, commentRepo, owner.ID, videoRef, "self reply", time.Now().UTC())
	commentRef, _ := models.NewParentRef(models.ParentComment, comment.ID)

	like := models.Like{ID: uuid.NewString(), LikedBy: owner.ID, Target: videoRef, CreatedAt: time.Now().UTC()}
	if err := likeRepo.Create(ctx, like); err != nil {
		t.Fatalf("like video: %v", err)
	}

	dup := like
	dup.ID = uuid.NewString()
	if err := likeRepo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate like, got %v", err)
	}

	// Same user, different target kind: a distinct engagement mark.
	commentLike := models.Like{ID: uuid.NewString(), LikedBy: owner.ID, Target: commentRef, CreatedAt: time.Now().UTC()}
	if err := likeRepo.Create(ctx, commentLike); err != nil {
		t.Fatalf("like comment: %v", err)
	}

	missingRef, _ := models.NewParentRef(models.ParentVideo, uuid.NewString())
	missing := models.Like{ID: uuid.NewString(), LikedBy: owner.ID, Target: missingRef, CreatedAt: time.Now().UTC()}
	if err := likeRepo.Create(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound liking a missing video, got %v", err)
	}

	if err := likeRepo.DeleteMatching(ctx, videoRef, owner.ID); err != nil {
		t.Fatalf("unlike video: %v", err)
	}
	if err := likeRepo.DeleteMatching(ctx, videoRef, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound unliking twice, got %v", err)
	}

	// The comment like was untouched by the video unlike.
	card, err := commentRepo.ListForParent(ctx, videoRef, owner.ID, 0, 10)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(card) != 1 || card[0].LikesCount != 1 || !card[0].LikedByUser {
		t.Fatalf("expected the comment like to survive, got %+v", card)
	}
}

func TestPostgresCommentRepository_ThreadsAndCounts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	commentRepo := NewPostgresCommentRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	video := createTestVideo(t, videoRepo, owner.ID, "threaded", true, time.Now().UTC())
	videoRef, _ := models.NewParentRef(models.ParentVideo, video.ID)

	base := time.Now().UTC().Add(-time.Minute)
	top := createTestComment(t, commentRepo, owner.ID, videoRef, "top level", base)
	topRef, _ := models.NewParentRef(models.ParentComment, top.ID)
	createTestComment(t, commentRepo, owner.ID, topRef, "reply one", base.Add(time.Second))
	createTestComment(t, commentRepo, owner.ID, topRef, "reply two", base.Add(2*time.Second))

	cards, err := commentRepo.ListForParent(ctx, videoRef, "", 0, 10)
	if err != nil {
		t.Fatalf("list video comments: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected replies excluded from the top-level listing, got %d", len(cards))
	}
	if cards[0].RepliesCount != 2 {
		t.Fatalf("expected 2 replies counted, got %d", cards[0].RepliesCount)
	}

	replies, err := commentRepo.ListForParent(ctx, topRef, "", 0, 10)
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(replies) != 2 || replies[0].Content != "reply one" {
		t.Fatalf("expected oldest-first replies, got %+v", replies)
	}

	orphanRef, _ := models.NewParentRef(models.ParentVideo, uuid.NewString())
	orphan := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Content:   "into the void",
		Parent:    orphanRef,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := commentRepo.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound commenting on a missing video, got %v", err)
	}

	if err := commentRepo.UpdateContent(ctx, top.ID, "edited"); err != nil {
		t.Fatalf("update comment: %v", err)
	}
	fetched, err := commentRepo.FindByID(ctx, top.ID)
	if err != nil {
		t.Fatalf("find comment: %v", err)
	}
	if fetched.Content != "edited" {
		t.Fatalf("expected edited content, got %q", fetched.Content)
	}

	if err := commentRepo.Delete(ctx, top.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	replies, err = commentRepo.ListForParent(ctx, topRef, "", 0, 10)
	if err != nil {
		t.Fatalf("list replies after delete: %v", err)
	}
	if len(replies) != 0 {
		t.Fatalf("expected replies to cascade, got %d", len(replies))
	}
}

func TestPostgresSubscriptionRepository_CreateListAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subRepo := NewPostgresSubscriptionRepository(testPool)

	channel := createTestUser(t, userRepo, "channel")
	first := createTestUser(t, userRepo, "first")
	second := createTestUser(t, userRepo, "second")

	base := time.Now().UTC().Add(-time.Minute)
	sub := models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    channel.ID,
		SubscriberID: first.ID,
		CreatedAt:    base,
	}
	if err := subRepo.Create(ctx, sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := subRepo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on double subscribe, got %v", err)
	}

	ghost := models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    uuid.NewString(),
		SubscriberID: first.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := subRepo.Create(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound subscribing to a missing channel, got %v", err)
	}

	err := subRepo.Create(ctx, models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    channel.ID,
		SubscriberID: second.ID,
		CreatedAt:    base.Add(time.Second),
	})
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}

	cards, err := subRepo.ListSubscribers(ctx, channel.ID, 0, 10)
	if err != nil {
		t.Fatalf("list subscribers: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 subscribers, got %d", len(cards))
	}
	if cards[0].Subscriber.ID != first.ID || cards[1].Subscriber.ID != second.ID {
		t.Fatalf("unexpected subscriber order: %+v", cards)
	}

	if err := subRepo.DeleteMatching(ctx, channel.ID, first.ID); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := subRepo.DeleteMatching(ctx, channel.ID, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound unsubscribing twice, got %v", err)
	}
}

func TestPostgresPlaylistRepository_OrderDedupeAndVisibility(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	playlistRepo := NewPostgresPlaylistRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	stranger := createTestUser(t, userRepo, "stranger")

	base := time.Now().UTC().Add(-time.Hour)
	v1 := createTestVideo(t, videoRepo, owner.ID, "one", true, base)
	v2 := createTestVideo(t, videoRepo, owner.ID, "two", true, base.Add(time.Minute))
	hidden := createTestVideo(t, videoRepo, owner.ID, "hidden", false, base.Add(2*time.Minute))

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		Name:      "mix",
		IsPublic:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := playlistRepo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if err := playlistRepo.AddVideos(ctx, playlist.ID, []string{v1.ID, v2.ID}); err != nil {
		t.Fatalf("add videos: %v", err)
	}
	// Re-adding an existing member keeps its original position.
	if err := playlistRepo.AddVideos(ctx, playlist.ID, []string{v2.ID, hidden.ID}); err != nil {
		t.Fatalf("add more videos: %v", err)
	}

	fetched, err := playlistRepo.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	want := []string{v1.ID, v2.ID, hidden.ID}
	if len(fetched.VideoIDs) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(fetched.VideoIDs))
	}
	for i, id := range want {
		if fetched.VideoIDs[i] != id {
			t.Fatalf("expected insertion order %v, got %v", want, fetched.VideoIDs)
		}
	}

	if err := playlistRepo.AddVideos(ctx, playlist.ID, []string{uuid.NewString()}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound adding a missing video, got %v", err)
	}

	// A stranger sees the playlist but not its private member; the total
	// still counts every member.
	card, err := playlistRepo.GetCard(ctx, playlist.ID, stranger.ID)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if card.TotalVideos != 3 {
		t.Fatalf("expected 3 total members, got %d", card.TotalVideos)
	}
	if len(card.Videos) != 2 {
		t.Fatalf("expected the private member filtered, got %d visible", len(card.Videos))
	}

	card, err = playlistRepo.GetCard(ctx, playlist.ID, owner.ID)
	if err != nil {
		t.Fatalf("get card as owner: %v", err)
	}
	if len(card.Videos) != 3 {
		t.Fatalf("expected the owner to see all members, got %d", len(card.Videos))
	}

	if err := playlistRepo.RemoveVideo(ctx, playlist.ID, v1.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}
	if err := playlistRepo.RemoveVideo(ctx, playlist.ID, v1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing twice, got %v", err)
	}

	if err := playlistRepo.SetVisibility(ctx, playlist.ID, false); err != nil {
		t.Fatalf("make private: %v", err)
	}
	if _, err := playlistRepo.GetCard(ctx, playlist.ID, stranger.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected private playlist hidden from strangers, got %v", err)
	}
	if _, err := playlistRepo.GetCard(ctx, playlist.ID, owner.ID); err != nil {
		t.Fatalf("expected owner access to private playlist: %v", err)
	}

	lists, err := playlistRepo.ListByOwner(ctx, owner.ID, false)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(lists) != 0 {
		t.Fatalf("expected private playlist excluded, got %d", len(lists))
	}
	lists, err = playlistRepo.ListByOwner(ctx, owner.ID, true)
	if err != nil {
		t.Fatalf("list by owner with private: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(lists))
	}

	if err := playlistRepo.Delete(ctx, playlist.ID); err != nil {
		t.Fatalf("delete playlist: %v", err)
	}
	if _, err := playlistRepo.FindByID(ctx, playlist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		RefreshToken: uuid.NewString(),
		UserID:       user.ID,
		ExpiresAt:    expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.UserID != session.UserID || !timesClose(loaded.ExpiresAt, expires, time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	updated := session
	updated.ExpiresAt = expires.Add(48 * time.Hour)
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("update session: %v", err)
	}
	loaded, err = store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session after update: %v", err)
	}
	if !timesClose(loaded.ExpiresAt, updated.ExpiresAt, time.Millisecond) {
		t.Fatalf("expected updated expiry, got %v", loaded.ExpiresAt)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.Find(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}

	for i := 0; i < 3; i++ {
		err := store.Save(ctx, auth.Session{
			RefreshToken: uuid.NewString(),
			UserID:       user.ID,
			ExpiresAt:    expires,
		})
		if err != nil {
			t.Fatalf("save session %d: %v", i, err)
		}
	}
	if err := store.DeleteForUser(ctx, user.ID); err != nil {
		t.Fatalf("delete sessions for user: %v", err)
	}
	var remaining int
	if err := testPool.QueryRow(ctx, "SELECT count(*) FROM sessions WHERE user_id = $1", user.ID).Scan(&remaining); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected all sessions revoked, got %d", remaining)
	}
}

func TestPostgresUserRepository_WatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	watcher := createTestUser(t, userRepo, "watcher")

	base := time.Now().UTC().Add(-time.Hour)
	first := createTestVideo(t, videoRepo, owner.ID, "first", true, base)
	second := createTestVideo(t, videoRepo, owner.ID, "second", true, base.Add(time.Minute))

	entries := []models.WatchEntry{
		{UserID: watcher.ID, VideoID: first.ID, WatchedAt: base.Add(10 * time.Minute)},
		{UserID: watcher.ID, VideoID: second.ID, WatchedAt: base.Add(20 * time.Minute)},
	}
	for _, entry := range entries {
		if err := userRepo.RecordWatch(ctx, entry); err != nil {
			t.Fatalf("record watch: %v", err)
		}
	}

	history, err := userRepo.WatchHistory(ctx, watcher.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].ID != second.ID {
		t.Fatalf("expected most recent watch first, got %s", history[0].ID)
	}

	// Rewatching bumps the entry to the front instead of duplicating it.
	rewatch := models.WatchEntry{UserID: watcher.ID, VideoID: first.ID, WatchedAt: base.Add(30 * time.Minute)}
	if err := userRepo.RecordWatch(ctx, rewatch); err != nil {
		t.Fatalf("rewatch: %v", err)
	}
	history, err = userRepo.WatchHistory(ctx, watcher.ID)
	if err != nil {
		t.Fatalf("watch history after rewatch: %v", err)
	}
	if len(history) != 2 || history[0].ID != first.ID {
		t.Fatalf("expected the rewatched video first, got %+v", history)
	}

	ghost := models.WatchEntry{UserID: watcher.ID, VideoID: uuid.NewString(), WatchedAt: time.Now().UTC()}
	if err := userRepo.RecordWatch(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound watching a missing video, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	const stmt = "TRUNCATE TABLE playlist_videos, playlists, watch_history, subscriptions, likes, comments, tweets, videos, sessions, users CASCADE"
	if _, err := conn.Exec(ctx, stmt); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		PasswordHash: "password-hash",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, public bool, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		MediaURL:  "https://cdn.example.com/" + uuid.NewString() + ".mp4",
		Title:     title,
		Duration:  60,
		IsPublic:  public,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}

func createTestComment(t *testing.T, repo *PostgresCommentRepository, ownerID string, parent models.ParentRef, content string, createdAt time.Time) models.Comment {
	t.Helper()
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   content,
		Parent:    parent,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := repo.Create(context.Background(), comment); err != nil {
		t.Fatalf("create test comment: %v", err)
	}
	return comment
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
