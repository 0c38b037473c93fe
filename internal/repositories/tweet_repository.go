package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// tweetCardQuery is the shared card projection: tweet fields, trimmed author,
// then the derived like/comment aggregates relative to $2 (the viewer).
const tweetCardQuery = `
    SELECT t.id, t.content, t.is_public, t.created_at,
           u.id, u.fullname, u.avatar_url,
           (SELECT count(*) FROM likes l WHERE l.tweet_id = t.id) AS likes_count,
           EXISTS (SELECT 1 FROM likes l WHERE l.tweet_id = t.id AND l.liked_by = $2) AS liked_by_user,
           (SELECT count(*) FROM comments c WHERE c.tweet_id = t.id) AS comments_count
    FROM tweets t
    JOIN users u ON u.id = t.owner_id`

func scanTweetCard(row pgx.Row) (models.TweetCard, error) {
	var card models.TweetCard
	err := row.Scan(&card.ID, &card.Content, &card.IsPublic, &card.CreatedAt,
		&card.Author.ID, &card.Author.FullName, &card.Author.Avatar,
		&card.LikesCount, &card.LikedByUser, &card.CommentsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TweetCard{}, ErrNotFound
		}
		return models.TweetCard{}, fmt.Errorf("scan tweet card: %w", err)
	}
	return card, nil
}

// Create stores a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.IsPublic, tweet.CreatedAt, tweet.UpdatedAt)
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
		return fmt.Errorf("insert tweet: %w", err)
	}

	return nil
}

// FindByID fetches a single tweet row without aggregates.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, content, is_public, created_at, updated_at
        FROM tweets
        WHERE id = $1
    `, id)

	var t models.Tweet
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.IsPublic, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, fmt.Errorf("select tweet: %w", err)
	}

	return t, nil
}

// GetCard assembles the denormalized detail view of one tweet. An empty
// viewerID marks an anonymous read and always yields likedByUser = false.
func (r *PostgresTweetRepository) GetCard(ctx context.Context, id, viewerID string) (models.TweetCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.TweetCard{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanTweetCard(conn.QueryRow(ctx, tweetCardQuery+` WHERE t.id = $1`, id, viewerID))
}

// ListByOwner returns a channel's tweet cards in post order starting at the
// provided offset. Callers pass a limit of pageSize+1 to drive the cursor
// pager.
func (r *PostgresTweetRepository) ListByOwner(ctx context.Context, ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.TweetCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, tweetCardQuery+`
        WHERE t.owner_id = $1 AND (t.is_public OR $3)
        ORDER BY t.created_at, t.id
        OFFSET $4
        LIMIT $5
    `, ownerID, viewerID, includePrivate, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query channel tweets: %w", err)
	}
	defer rows.Close()

	var cards []models.TweetCard
	for rows.Next() {
		card, err := scanTweetCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel tweets: %w", err)
	}

	return cards, nil
}

// UpdateContent replaces the tweet text.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tweets
        SET content = $2, updated_at = now()
        WHERE id = $1
    `, id, content)
	if err != nil {
		return fmt.Errorf("update tweet content: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetVisibility flips the public flag.
func (r *PostgresTweetRepository) SetVisibility(ctx context.Context, id string, public bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE tweets
        SET is_public = $2, updated_at = now()
        WHERE id = $1
    `, id, public)
	if err != nil {
		return fmt.Errorf("update tweet visibility: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the tweet along with its likes and comments via cascade.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
