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

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for
// playlists and their ordered video memberships.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new, initially empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.IsPublic,
		playlist.CreatedAt, playlist.UpdatedAt)
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
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist row along with its ordered video ids.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, name, description, is_public, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id)

	var p models.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT video_id
        FROM playlist_videos
        WHERE playlist_id = $1
        ORDER BY position
    `, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return models.Playlist{}, fmt.Errorf("scan playlist video: %w", err)
		}
		p.VideoIDs = append(p.VideoIDs, videoID)
	}

	if err := rows.Err(); err != nil {
		return models.Playlist{}, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return p, nil
}

// GetCard assembles the playlist detail view. The playlist itself must be
// public or owned by the viewer; member videos the viewer may not see are
// filtered out while totalVideos still reports the full membership size.
func (r *PostgresPlaylistRepository) GetCard(ctx context.Context, id, viewerID string) (models.PlaylistCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PlaylistCard{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT p.id, p.name, p.description, p.is_public,
               u.id, u.fullname, u.avatar_url,
               (SELECT count(*) FROM playlist_videos pv WHERE pv.playlist_id = p.id) AS total_videos
        FROM playlists p
        JOIN users u ON u.id = p.owner_id
        WHERE p.id = $1 AND (p.is_public OR p.owner_id = $2)
    `, id, viewerID)

	var card models.PlaylistCard
	if err := row.Scan(&card.ID, &card.Name, &card.Description, &card.IsPublic,
		&card.Owner.ID, &card.Owner.FullName, &card.Owner.Avatar, &card.TotalVideos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PlaylistCard{}, ErrNotFound
		}
		return models.PlaylistCard{}, fmt.Errorf("select playlist card: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.media_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.views, v.is_public, v.created_at,
               u.id, u.fullname, u.avatar_url,
               (SELECT count(*) FROM likes l WHERE l.video_id = v.id) AS likes_count,
               EXISTS (SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.liked_by = $2) AS liked_by_user,
               (SELECT count(*) FROM comments c WHERE c.video_id = v.id) AS comments_count
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE pv.playlist_id = $1 AND (v.is_public OR v.owner_id = $2)
        ORDER BY pv.position
    `, id, viewerID)
	if err != nil {
		return models.PlaylistCard{}, fmt.Errorf("query playlist video cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		videoCard, err := scanVideoCard(rows)
		if err != nil {
			return models.PlaylistCard{}, err
		}
		card.Videos = append(card.Videos, videoCard)
	}

	if err := rows.Err(); err != nil {
		return models.PlaylistCard{}, fmt.Errorf("iterate playlist video cards: %w", err)
	}

	return card, nil
}

// ListByOwner returns a channel's playlists, restricted to public ones
// unless includePrivate is set.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string, includePrivate bool) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, name, description, is_public, created_at, updated_at
        FROM playlists
        WHERE owner_id = $1 AND (is_public OR $2)
        ORDER BY created_at, id
    `, ownerID, includePrivate)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

// UpdateName replaces the playlist name.
func (r *PostgresPlaylistRepository) UpdateName(ctx context.Context, id, name string) error {
	return r.updateColumn(ctx, id, "name", name)
}

// UpdateDescription replaces the playlist description.
func (r *PostgresPlaylistRepository) UpdateDescription(ctx context.Context, id, description string) error {
	return r.updateColumn(ctx, id, "description", description)
}

func (r *PostgresPlaylistRepository) updateColumn(ctx context.Context, id, column, value string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column names come from the closed set of update methods above.
	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        UPDATE playlists
        SET %s = $2, updated_at = now()
        WHERE id = $1
    `, column), id, value)
	if err != nil {
		return fmt.Errorf("update playlist %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetVisibility flips the public flag.
func (r *PostgresPlaylistRepository) SetVisibility(ctx context.Context, id string, public bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET is_public = $2, updated_at = now()
        WHERE id = $1
    `, id, public)
	if err != nil {
		return fmt.Errorf("update playlist visibility: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the playlist and its memberships via cascade.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddVideos appends videos to the end of the playlist in the given order.
// Videos already present are skipped rather than duplicated.
func (r *PostgresPlaylistRepository) AddVideos(ctx context.Context, id string, videoIDs []string) error {
	if len(videoIDs) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append videos: %w", err)
	}
	defer tx.Rollback(ctx)

	var next int64
	if err := tx.QueryRow(ctx, `
        SELECT coalesce(max(position), -1) + 1
        FROM playlist_videos
        WHERE playlist_id = $1
    `, id).Scan(&next); err != nil {
		return fmt.Errorf("select next playlist position: %w", err)
	}

	for _, videoID := range videoIDs {
		tag, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position)
            VALUES ($1, $2, $3)
            ON CONFLICT (playlist_id, video_id) DO NOTHING
        `, id, videoID, next)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrNotFound
			}
			return fmt.Errorf("insert playlist video: %w", err)
		}
		if tag.RowsAffected() > 0 {
			next++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append videos: %w", err)
	}

	return nil
}

// RemoveVideo drops one video from the playlist; zero affected rows
// surfaces as ErrNotFound.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, id, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos
        WHERE playlist_id = $1 AND video_id = $2
    `, id, videoID)
	if err != nil {
		return fmt.Errorf("delete playlist video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
