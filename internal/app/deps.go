package app

import (
	"context"
	"log/slog"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/config"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/handlers"
	"github.com/vidstream/backend/internal/middleware"
	"github.com/vidstream/backend/internal/repositories"
	"github.com/vidstream/backend/internal/storage"
	"github.com/vidstream/backend/internal/verification"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	sessionStore := repositories.NewPostgresSessionStore(pool)
	sessions := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL, sessionStore)

	var media handlers.MediaStore
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := storage.NewS3MediaStore(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, err
		}
		media = s3Store
	} else {
		logger.Warn("object store not configured, image uploads disabled")
	}

	verifier := verification.NewVerifier(verification.LogSender{Logger: logger}, cfg.VerificationTTL)

	limiter := middleware.NewIPRateLimiter(
		cfg.LoginRateLimit.Requests,
		cfg.LoginRateLimit.Window,
		cfg.LoginRateLimit.Burst,
		cfg.LoginRateLimit.TTL,
	)

	return handlers.Dependencies{
		Users:         repositories.NewPostgresUserRepository(pool),
		Sessions:      sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Media:         media,
		Verifier:      verifier,
		Verify:        sessions,
		Limiter:       limiter,
	}, nil
}
