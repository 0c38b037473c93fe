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

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, media_url, thumbnail_url, title, description, duration_seconds, views, is_public, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.MediaURL, &v.ThumbnailURL, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublic, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	return v, nil
}

// scanVideoCard reads the card projection produced by the joined video
// queries: video fields, trimmed author, then the three derived aggregates.
func scanVideoCard(row pgx.Row) (models.VideoCard, error) {
	var card models.VideoCard
	err := row.Scan(&card.ID, &card.MediaURL, &card.ThumbnailURL, &card.Title, &card.Description,
		&card.Duration, &card.Views, &card.IsPublic, &card.CreatedAt,
		&card.Author.ID, &card.Author.FullName, &card.Author.Avatar,
		&card.LikesCount, &card.LikedByUser, &card.CommentsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoCard{}, ErrNotFound
		}
		return models.VideoCard{}, fmt.Errorf("scan video card: %w", err)
	}
	return card, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, media_url, thumbnail_url, title, description, duration_seconds, views, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.MediaURL, video.ThumbnailURL, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublic, video.CreatedAt, video.UpdatedAt)
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
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video row without aggregates.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
}

// GetCard assembles the denormalized detail view of one video: its own
// fields, the trimmed author projection, the like count, whether the viewer
// liked it, and the total comment count. Counts are derived on read; zero is
// a valid value. An empty viewerID marks an anonymous read and always yields
// likedByUser = false.
func (r *PostgresVideoRepository) GetCard(ctx context.Context, id, viewerID string) (models.VideoCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoCard{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanVideoCard(conn.QueryRow(ctx, `
        SELECT v.id, v.media_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.views, v.is_public, v.created_at,
               u.id, u.fullname, u.avatar_url,
               (SELECT count(*) FROM likes l WHERE l.video_id = v.id) AS likes_count,
               EXISTS (SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.liked_by = $2) AS liked_by_user,
               (SELECT count(*) FROM comments c WHERE c.video_id = v.id) AS comments_count
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id, viewerID))
}

// videoCardSelect is the joined card projection shared by the listing
// queries. $1 is the viewer id driving likedByUser.
const videoCardSelect = `
        SELECT v.id, v.media_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.views, v.is_public, v.created_at,
               u.id, u.fullname, u.avatar_url,
               (SELECT count(*) FROM likes l WHERE l.video_id = v.id) AS likes_count,
               EXISTS (SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.liked_by = $1) AS liked_by_user,
               (SELECT count(*) FROM comments c WHERE c.video_id = v.id) AS comments_count
        FROM videos v
        JOIN users u ON u.id = v.owner_id`

// ListByOwner returns a channel's video cards in upload order starting at the
// provided offset. When includePrivate is false only public videos are
// visible. Callers pass a limit of pageSize+1 to drive the cursor pager.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID, viewerID string, includePrivate bool, offset, limit int) ([]models.VideoCard, error) {
	return r.queryVideoCards(ctx, videoCardSelect+`
        WHERE v.owner_id = $2 AND (v.is_public OR $3)
        ORDER BY v.created_at, v.id
        OFFSET $4
        LIMIT $5
    `, viewerID, ownerID, includePrivate, offset, limit)
}

// ListPublic returns a card for every public video, newest first. Used by the
// home feed.
func (r *PostgresVideoRepository) ListPublic(ctx context.Context, viewerID string) ([]models.VideoCard, error) {
	return r.queryVideoCards(ctx, videoCardSelect+`
        WHERE v.is_public
        ORDER BY v.created_at DESC, v.id
    `, viewerID)
}

// Search matches public videos whose title or description contains the query,
// case-insensitively, newest first.
func (r *PostgresVideoRepository) Search(ctx context.Context, query, viewerID string) ([]models.VideoCard, error) {
	return r.queryVideoCards(ctx, videoCardSelect+`
        WHERE v.is_public AND (v.title ILIKE '%' || $2 || '%' OR v.description ILIKE '%' || $2 || '%')
        ORDER BY v.created_at DESC, v.id
    `, viewerID, query)
}

func (r *PostgresVideoRepository) queryVideoCards(ctx context.Context, sql string, args ...any) ([]models.VideoCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query video cards: %w", err)
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
		return nil, fmt.Errorf("iterate video cards: %w", err)
	}

	return cards, nil
}

// UpdateTitle replaces the video title.
func (r *PostgresVideoRepository) UpdateTitle(ctx context.Context, id, title string) error {
	return r.updateColumn(ctx, id, "title", title)
}

// UpdateDescription replaces the video description.
func (r *PostgresVideoRepository) UpdateDescription(ctx context.Context, id, description string) error {
	return r.updateColumn(ctx, id, "description", description)
}

func (r *PostgresVideoRepository) updateColumn(ctx context.Context, id, column, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column names come from the closed set of update methods above.
	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        UPDATE videos
        SET %s = $2, updated_at = now()
        WHERE id = $1
    `, column), id, value)
	if err != nil {
		return fmt.Errorf("update video %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetVisibility flips the public flag.
func (r *PostgresVideoRepository) SetVisibility(ctx context.Context, id string, public bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET is_public = $2, updated_at = now()
        WHERE id = $1
    `, id, public)
	if err != nil {
		return fmt.Errorf("update video visibility: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the video. Dependent likes, comments and playlist entries
// go with it through the store's foreign-key cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// FilterAccessible returns the subset of the provided video ids the viewer
// may reference: public videos plus the viewer's own.
func (r *PostgresVideoRepository) FilterAccessible(ctx context.Context, ids []string, viewerID string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id
        FROM videos
        WHERE id = ANY($1) AND (is_public OR owner_id = $2)
    `, ids, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query accessible videos: %w", err)
	}
	defer rows.Close()

	var accessible []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan video id: %w", err)
		}
		accessible = append(accessible, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accessible videos: %w", err)
	}

	return accessible, nil
}
