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

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, fullname, avatar_url, cover_url, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverURL, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

// Create persists a new user record. Duplicate usernames or emails surface
// as ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, fullname, avatar_url, cover_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverURL,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// FindByUsername fetches a user by their unique, case-folded username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// FindByLogin fetches a user matching the provided username or email.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username = $1 OR email = $1
    `, login))
}

// profile field updates form a closed set; arbitrary field-name writes are
// deliberately not supported.

// UpdateEmail changes the account email, enforcing uniqueness.
func (r *PostgresUserRepository) UpdateEmail(ctx context.Context, id, email string) error {
	return r.updateColumn(ctx, id, "email", email)
}

// UpdateFullName changes the display name.
func (r *PostgresUserRepository) UpdateFullName(ctx context.Context, id, fullName string) error {
	return r.updateColumn(ctx, id, "fullname", fullName)
}

// UpdateAvatar swaps the avatar image location.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	return r.updateColumn(ctx, id, "avatar_url", url)
}

// UpdateCover swaps the cover image location.
func (r *PostgresUserRepository) UpdateCover(ctx context.Context, id, url string) error {
	return r.updateColumn(ctx, id, "cover_url", url)
}

// UpdatePassword replaces the stored credential hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumn(ctx, id, "password_hash", passwordHash)
}

func (r *PostgresUserRepository) updateColumn(ctx context.Context, id, column, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column comes from the fixed set of update methods above, never from
	// request input.
	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        UPDATE users
        SET %s = $2, updated_at = now()
        WHERE id = $1
    `, column), id, value)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ChannelCard assembles the public channel profile for a username, including
// subscriber counts and whether the viewer is subscribed. An empty viewer id
// always yields isSubscribed = false.
func (r *PostgresUserRepository) ChannelCard(ctx context.Context, username, viewerID string) (models.ChannelCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelCard{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.fullname, u.avatar_url, u.cover_url,
               (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
               (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
               EXISTS (
                   SELECT 1 FROM subscriptions s
                   WHERE s.channel_id = u.id AND s.subscriber_id = $2
               ) AS is_subscribed
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var card models.ChannelCard
	if err := row.Scan(&card.ID, &card.Username, &card.FullName, &card.Avatar, &card.CoverImage,
		&card.SubscriberCount, &card.SubscribedToCount, &card.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelCard{}, ErrNotFound
		}
		return models.ChannelCard{}, fmt.Errorf("select channel card: %w", err)
	}

	return card, nil
}

// RecordWatch upserts a watch-history entry and bumps the watched timestamp
// on rewatch so the history stays ordered by recency.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, entry models.WatchEntry) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, entry.UserID, entry.VideoID, entry.WatchedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("upsert watch entry: %w", err)
	}

	return nil
}

// WatchHistory returns the viewer's watched videos, most recent first, each
// joined with its owner's display info.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.media_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.views, v.is_public, v.created_at,
               u.id, u.fullname, u.avatar_url,
               (SELECT count(*) FROM likes l WHERE l.video_id = v.id) AS likes_count,
               EXISTS (SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.liked_by = $1) AS liked_by_user,
               (SELECT count(*) FROM comments c WHERE c.video_id = v.id) AS comments_count
        FROM watch_history w
        JOIN videos v ON v.id = w.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE w.user_id = $1
        ORDER BY w.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var cards []models.VideoCard
	for rows.Next() {
		card, err := scanVideoCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return cards, nil
}
