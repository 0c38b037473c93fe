package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/internal/models"
	"github.com/vidstream/backend/internal/repositories"
	"github.com/vidstream/backend/internal/verification"
)

// UserHandler implements account lifecycle, profile management, channel
// views and watch history.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Media    MediaStore
	Verifier EmailVerifier
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// userProfile is the account view returned to its owner. The password hash
// never leaves the handler layer.
type userProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullname"`
	Avatar    string    `json:"avatar"`
	Cover     string    `json:"coverImage"`
	CreatedAt time.Time `json:"createdAt"`
}

func profileOf(user models.User) userProfile {
	return userProfile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Avatar:    user.AvatarURL,
		Cover:     user.CoverURL,
		CreatedAt: user.CreatedAt,
	}
}

type authResponse struct {
	User   userProfile          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullname"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if strings.ContainsAny(req.Username, " \t@") {
		respondError(ctx, w, http.StatusBadRequest, "username must not contain spaces or @")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("hash password failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email already taken")
			return
		}
		logger.Error("create user failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("issue session failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondData(ctx, w, http.StatusCreated, "account created", authResponse{
		User:   profileOf(user),
		Tokens: tokens,
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/users/login. The login field accepts either a
// username or an email address.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Login = strings.ToLower(strings.TrimSpace(req.Login))
	if req.Login == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "login and password are required")
		return
	}

	user, err := h.Users.FindByLogin(ctx, req.Login)
	if err != nil {
		logger.Warn("login lookup failed", "login", req.Login, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("issue session failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondData(ctx, w, http.StatusOK, "logged in", authResponse{
		User:   profileOf(user),
		Tokens: tokens,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /api/v1/users/refresh.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(ctx, w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		logging.FromContext(ctx).Error("refresh session failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	respondData(ctx, w, http.StatusOK, "session refreshed", tokens)
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Sessions.Revoke(ctx, strings.TrimSpace(req.RefreshToken))
	respondData(ctx, w, http.StatusOK, "logged out", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := h.Users.FindByID(ctx, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logging.FromContext(ctx).Error("hash password failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "password changed", nil)
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.FindByID(ctx, auth.UserID(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "user fetched", profileOf(user))
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

// UpdateEmail handles PATCH /api/v1/users/update-email.
func (h UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req updateEmailRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if err := h.Users.UpdateEmail(ctx, viewerID, req.Email); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already taken")
			return
		}
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "email updated", nil)
}

type updateFullNameRequest struct {
	FullName string `json:"fullname"`
}

// UpdateFullName handles PATCH /api/v1/users/update-fullname.
func (h UserHandler) UpdateFullName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req updateFullNameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname is required")
		return
	}

	if err := h.Users.UpdateFullName(ctx, viewerID, req.FullName); err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "fullname updated", nil)
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar. The image arrives
// as the avatar field of a multipart form and lands in the media store.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar")
}

// UpdateCover handles PATCH /api/v1/users/update-cover.
func (h UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage")
}

const maxImageBytes = 8 << 20

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)
	logger := logging.FromContext(ctx)

	if h.Media == nil {
		logger.Error("media store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media storage unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "a multipart "+field+" upload is required")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}
	defer file.Close()

	user, err := h.Users.FindByID(ctx, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	name := fmt.Sprintf("%s/%s%s", field, uuid.NewString(), path.Ext(header.Filename))
	location, err := h.Media.Save(ctx, name, header.Header.Get("Content-Type"), file)
	if err != nil {
		logger.Error("store image failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}

	var previous string
	var update func() error
	if field == "avatar" {
		previous = user.AvatarURL
		update = func() error { return h.Users.UpdateAvatar(ctx, viewerID, location) }
	} else {
		previous = user.CoverURL
		update = func() error { return h.Users.UpdateCover(ctx, viewerID, location) }
	}

	if err := update(); err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	if previous != "" {
		// best effort: the profile already points at the new image
		if err := h.Media.Remove(ctx, previous); err != nil {
			logger.Warn("remove previous image failed", "field", field, "error", err)
		}
	}

	respondData(ctx, w, http.StatusOK, field+" updated", map[string]string{"url": location})
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	card, err := h.Users.ChannelCard(ctx, username, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "channel fetched", card)
}

// WatchHistory handles GET /api/v1/users/watch-history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cards, err := h.Users.WatchHistory(ctx, auth.UserID(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "watch history fetched", cards)
}

// RequestVerification handles POST /api/v1/users/request-verification: issues
// a one-time code against the account's email address.
func (h UserHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	if !allowRequest(h.Limiter, r, "verify") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many verification requests")
		return
	}

	user, err := h.Users.FindByID(ctx, viewerID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	if err := h.Verifier.Issue(ctx, user.ID, user.Email); err != nil {
		logging.FromContext(ctx).Error("issue verification code failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to issue verification code")
		return
	}

	respondData(ctx, w, http.StatusAccepted, "verification code sent", nil)
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

// VerifyEmail handles POST /api/v1/users/verify-email.
func (h UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := auth.UserID(ctx)

	var req verifyEmailRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		respondError(ctx, w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.Verifier.Confirm(viewerID, req.Code); err != nil {
		switch {
		case errors.Is(err, verification.ErrCodeNotFound):
			respondError(ctx, w, http.StatusNotFound, "no pending verification code")
		case errors.Is(err, verification.ErrCodeExpired):
			respondError(ctx, w, http.StatusBadRequest, "verification code expired")
		case errors.Is(err, verification.ErrCodeMismatch):
			respondError(ctx, w, http.StatusBadRequest, "verification code mismatch")
		case errors.Is(err, verification.ErrTooManyAttempts):
			respondError(ctx, w, http.StatusTooManyRequests, "too many verification attempts")
		default:
			logging.FromContext(ctx).Error("confirm verification code failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondData(ctx, w, http.StatusOK, "email verified", nil)
}
