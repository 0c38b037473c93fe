package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
)

// testEnvelope mirrors the wire envelope with the data left raw so each test
// can decode the shape it expects.
type testEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response status %d", env.StatusCode, rec.Code)
	}
	return env
}

func asViewer(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByLogin(_ context.Context, login string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == login || user.Email == login {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) update(id string, apply func(*models.User)) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	apply(&user)
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) UpdateEmail(_ context.Context, id, email string) error {
	for _, existing := range s.users {
		if existing.ID != id && existing.Email == email {
			return repositories.ErrConflict
		}
	}
	return s.update(id, func(u *models.User) { u.Email = email })
}

func (s *inMemoryUserStore) UpdateFullName(_ context.Context, id, fullName string) error {
	return s.update(id, func(u *models.User) { u.FullName = fullName })
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, id, url string) error {
	return s.update(id, func(u *models.User) { u.AvatarURL = url })
}

func (s *inMemoryUserStore) UpdateCover(_ context.Context, id, url string) error {
	return s.update(id, func(u *models.User) { u.CoverURL = url })
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, id, hash string) error {
	return s.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (s *inMemoryUserStore) ChannelCard(_ context.Context, username, _ string) (models.ChannelCard, error) {
	for _, user := range s.users {
		if user.Username == username {
			return models.ChannelCard{ID: user.ID, Username: user.Username, FullName: user.FullName}, nil
		}
	}
	return models.ChannelCard{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) RecordWatch(_ context.Context, _ models.WatchEntry) error {
	return nil
}

func (s *inMemoryUserStore) WatchHistory(_ context.Context, _ string) ([]models.VideoCard, error) {
	return nil, nil
}

// stubVideoStore lets each test supply only the calls it expects.
type stubVideoStore struct {
	create           func(models.Video) error
	findByID         func(string) (models.Video, error)
	getCard          func(id, viewerID string) (models.VideoCard, error)
	listByOwner      func(ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.VideoCard, error)
	listPublic       func(viewerID string) ([]models.VideoCard, error)
	search           func(query, viewerID string) ([]models.VideoCard, error)
	updateTitle      func(id, title string) error
	updateDesc       func(id, description string) error
	setVisibility    func(id string, public bool) error
	incrementViews   func(id string) error
	deleteVideo      func(id string) error
	filterAccessible func(ids []string, viewerID string) ([]string, error)
}

func (s *stubVideoStore) Create(_ context.Context, v models.Video) error { return s.create(v) }
func (s *stubVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	return s.findByID(id)
}
func (s *stubVideoStore) GetCard(_ context.Context, id, viewerID string) (models.VideoCard, error) {
	return s.getCard(id, viewerID)
}
func (s *stubVideoStore) ListByOwner(_ context.Context, ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.VideoCard, error) {
	return s.listByOwner(ownerID, viewerID, includePrivate, offset, limit)
}
func (s *stubVideoStore) ListPublic(_ context.Context, viewerID string) ([]models.VideoCard, error) {
	return s.listPublic(viewerID)
}
func (s *stubVideoStore) Search(_ context.Context, query, viewerID string) ([]models.VideoCard, error) {
	return s.search(query, viewerID)
}
func (s *stubVideoStore) UpdateTitle(_ context.Context, id, title string) error {
	return s.updateTitle(id, title)
}
func (s *stubVideoStore) UpdateDescription(_ context.Context, id, description string) error {
	return s.updateDesc(id, description)
}
func (s *stubVideoStore) SetVisibility(_ context.Context, id string, public bool) error {
	return s.setVisibility(id, public)
}
func (s *stubVideoStore) IncrementViews(_ context.Context, id string) error {
	return s.incrementViews(id)
}
func (s *stubVideoStore) Delete(_ context.Context, id string) error { return s.deleteVideo(id) }
func (s *stubVideoStore) FilterAccessible(_ context.Context, ids []string, viewerID string) ([]string, error) {
	return s.filterAccessible(ids, viewerID)
}

type stubCommentStore struct {
	create        func(models.Comment) error
	findByID      func(string) (models.Comment, error)
	listForParent func(parent models.ParentRef, viewerID string, offset, limit int) ([]models.CommentCard, error)
	updateContent func(id, content string) error
	deleteComment func(id string) error
}

func (s *stubCommentStore) Create(_ context.Context, c models.Comment) error { return s.create(c) }
func (s *stubCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	return s.findByID(id)
}
func (s *stubCommentStore) ListForParent(_ context.Context, parent models.ParentRef, viewerID string, offset, limit int) ([]models.CommentCard, error) {
	return s.listForParent(parent, viewerID, offset, limit)
}
func (s *stubCommentStore) UpdateContent(_ context.Context, id, content string) error {
	return s.updateContent(id, content)
}
func (s *stubCommentStore) Delete(_ context.Context, id string) error { return s.deleteComment(id) }

type stubLikeStore struct {
	create         func(models.Like) error
	deleteMatching func(target models.ParentRef, likedBy string) error
}

func (s *stubLikeStore) Create(_ context.Context, like models.Like) error { return s.create(like) }
func (s *stubLikeStore) DeleteMatching(_ context.Context, target models.ParentRef, likedBy string) error {
	return s.deleteMatching(target, likedBy)
}

type stubSubscriptionStore struct {
	create          func(models.Subscription) error
	deleteMatching  func(channelID, subscriberID string) error
	listSubscribers func(channelID string, offset, limit int) ([]models.SubscriberCard, error)
}

func (s *stubSubscriptionStore) Create(_ context.Context, sub models.Subscription) error {
	return s.create(sub)
}
func (s *stubSubscriptionStore) DeleteMatching(_ context.Context, channelID, subscriberID string) error {
	return s.deleteMatching(channelID, subscriberID)
}
func (s *stubSubscriptionStore) ListSubscribers(_ context.Context, channelID string, offset, limit int) ([]models.SubscriberCard, error) {
	return s.listSubscribers(channelID, offset, limit)
}

type stubPlaylistStore struct {
	create      func(models.Playlist) error
	findByID    func(string) (models.Playlist, error)
	getCard     func(id, viewerID string) (models.PlaylistCard, error)
	listByOwner func(ownerID string, includePrivate bool) ([]models.Playlist, error)
	updateName  func(id, name string) error
	updateDesc  func(id, description string) error
	setVis      func(id string, public bool) error
	deleteList  func(id string) error
	addVideos   func(id string, videoIDs []string) error
	removeVideo func(id, videoID string) error
}

func (s *stubPlaylistStore) Create(_ context.Context, p models.Playlist) error { return s.create(p) }
func (s *stubPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	return s.findByID(id)
}
func (s *stubPlaylistStore) GetCard(_ context.Context, id, viewerID string) (models.PlaylistCard, error) {
	return s.getCard(id, viewerID)
}
func (s *stubPlaylistStore) ListByOwner(_ context.Context, ownerID string, includePrivate bool) ([]models.Playlist, error) {
	return s.listByOwner(ownerID, includePrivate)
}
func (s *stubPlaylistStore) UpdateName(_ context.Context, id, name string) error {
	return s.updateName(id, name)
}
func (s *stubPlaylistStore) UpdateDescription(_ context.Context, id, description string) error {
	return s.updateDesc(id, description)
}
func (s *stubPlaylistStore) SetVisibility(_ context.Context, id string, public bool) error {
	return s.setVis(id, public)
}
func (s *stubPlaylistStore) Delete(_ context.Context, id string) error { return s.deleteList(id) }
func (s *stubPlaylistStore) AddVideos(_ context.Context, id string, videoIDs []string) error {
	return s.addVideos(id, videoIDs)
}
func (s *stubPlaylistStore) RemoveVideo(_ context.Context, id, videoID string) error {
	return s.removeVideo(id, videoID)
}

type stubTweetStore struct {
	create        func(models.Tweet) error
	findByID      func(string) (models.Tweet, error)
	getCard       func(id, viewerID string) (models.TweetCard, error)
	listByOwner   func(ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.TweetCard, error)
	updateContent func(id, content string) error
	setVisibility func(id string, public bool) error
	deleteTweet   func(id string) error
}

func (s *stubTweetStore) Create(_ context.Context, tw models.Tweet) error { return s.create(tw) }
func (s *stubTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	return s.findByID(id)
}
func (s *stubTweetStore) GetCard(_ context.Context, id, viewerID string) (models.TweetCard, error) {
	return s.getCard(id, viewerID)
}
func (s *stubTweetStore) ListByOwner(_ context.Context, ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.TweetCard, error) {
	return s.listByOwner(ownerID, viewerID, includePrivate, offset, limit)
}
func (s *stubTweetStore) UpdateContent(_ context.Context, id, content string) error {
	return s.updateContent(id, content)
}
func (s *stubTweetStore) SetVisibility(_ context.Context, id string, public bool) error {
	return s.setVisibility(id, public)
}
func (s *stubTweetStore) Delete(_ context.Context, id string) error { return s.deleteTweet(id) }
