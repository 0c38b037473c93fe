package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

// likeTargetColumn maps a tagged target reference onto the likes table
// column holding that kind of target.
func likeTargetColumn(kind models.ParentKind) (string, error) {
	switch kind {
	case models.ParentVideo:
		return "video_id", nil
	case models.ParentTweet:
		return "tweet_id", nil
	case models.ParentComment:
		return "comment_id", nil
	default:
		return "", models.ErrInvalidParentRef
	}
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
// The partial unique indexes on (target, liked_by) are the concurrency
// control for the like toggle: a racing duplicate insert is rejected by the
// store, not by application-level locking.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Create inserts a like for exactly one target. A duplicate (target, viewer)
// pair surfaces as ErrConflict, which callers treat as "already liked"; a
// target that does not exist surfaces as ErrNotFound.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	if !like.Target.Valid() {
		return models.ErrInvalidParentRef
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var videoID, tweetID, commentID sql.NullString
	switch like.Target.Kind {
	case models.ParentVideo:
		videoID = sql.NullString{String: like.Target.ID, Valid: true}
	case models.ParentTweet:
		tweetID = sql.NullString{String: like.Target.ID, Valid: true}
	case models.ParentComment:
		commentID = sql.NullString{String: like.Target.ID, Valid: true}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, video_id, tweet_id, comment_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, like.ID, like.LikedBy, videoID, tweetID, commentID, like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// DeleteMatching removes the like for (target, viewer) in one delete-if-
// matches statement. Zero affected rows means the user had not liked the
// target (or a concurrent unlike won) and surfaces as ErrNotFound.
func (r *PostgresLikeRepository) DeleteMatching(ctx context.Context, target models.ParentRef, likedBy string) error {
	column, err := likeTargetColumn(target.Kind)
	if err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        DELETE FROM likes
        WHERE %s = $1 AND liked_by = $2
    `, column), target.ID, likedBy)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
