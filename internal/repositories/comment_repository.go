package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

// commentParentColumn maps a tagged parent reference onto the comments table
// column holding that kind of parent. The returned name is only ever one of
// the three fixed columns.
func commentParentColumn(kind models.ParentKind) (string, error) {
	switch kind {
	case models.ParentVideo:
		return "video_id", nil
	case models.ParentTweet:
		return "tweet_id", nil
	case models.ParentComment:
		return "reply_to", nil
	default:
		return "", models.ErrInvalidParentRef
	}
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for
// comments and threaded replies.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a comment attached to exactly one parent. An invalid parent
// reference is rejected before touching the store; a parent that no longer
// exists surfaces as ErrNotFound through the foreign-key check.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	if !comment.Parent.Valid() {
		return models.ErrInvalidParentRef
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var videoID, tweetID, replyTo sql.NullString
	switch comment.Parent.Kind {
	case models.ParentVideo:
		videoID = sql.NullString{String: comment.Parent.ID, Valid: true}
	case models.ParentTweet:
		tweetID = sql.NullString{String: comment.Parent.ID, Valid: true}
	case models.ParentComment:
		replyTo = sql.NullString{String: comment.Parent.ID, Valid: true}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, owner_id, content, video_id, tweet_id, reply_to, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, comment.ID, comment.OwnerID, comment.Content, videoID, tweetID, replyTo,
		comment.CreatedAt, comment.UpdatedAt)
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
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a single comment row without aggregates.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, content, video_id, tweet_id, reply_to, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id)

	var (
		c                        models.Comment
		videoID, tweetID, replyTo sql.NullString
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Content, &videoID, &tweetID, &replyTo, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	switch {
	case videoID.Valid:
		c.Parent = models.ParentRef{Kind: models.ParentVideo, ID: videoID.String}
	case tweetID.Valid:
		c.Parent = models.ParentRef{Kind: models.ParentTweet, ID: tweetID.String}
	case replyTo.Valid:
		c.Parent = models.ParentRef{Kind: models.ParentComment, ID: replyTo.String}
	}

	return c, nil
}

// ListForParent returns enriched comment cards attached to the given parent
// in posting order starting at the provided offset: each card carries its
// author projection, like count, the viewer's like state and its reply
// count. Reply threads themselves are fetched through a separate call with a
// comment-kind parent, never nested. Callers pass a limit of pageSize+1 to
// drive the cursor pager.
func (r *PostgresCommentRepository) ListForParent(ctx context.Context, parent models.ParentRef, viewerID string, offset, limit int) ([]models.CommentCard, error) {
	column, err := commentParentColumn(parent.Kind)
	if err != nil {
		return nil, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT c.id, c.content, c.created_at,
               u.id, u.fullname, u.avatar_url,
               (SELECT count(*) FROM likes l WHERE l.comment_id = c.id) AS likes_count,
               EXISTS (SELECT 1 FROM likes l WHERE l.comment_id = c.id AND l.liked_by = $2) AS liked_by_user,
               (SELECT count(*) FROM comments r WHERE r.reply_to = c.id) AS replies_count
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.%s = $1
        ORDER BY c.created_at, c.id
        OFFSET $3
        LIMIT $4
    `, column), parent.ID, viewerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var cards []models.CommentCard
	for rows.Next() {
		var card models.CommentCard
		if err := rows.Scan(&card.ID, &card.Content, &card.CreatedAt,
			&card.Author.ID, &card.Author.FullName, &card.Author.Avatar,
			&card.LikesCount, &card.LikedByUser, &card.RepliesCount); err != nil {
			return nil, fmt.Errorf("scan comment card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return cards, nil
}

// UpdateContent replaces the comment text.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE comments
        SET content = $2, updated_at = now()
        WHERE id = $1
    `, id, content)
	if err != nil {
		return fmt.Errorf("update comment content: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the comment; nested replies and likes cascade.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
