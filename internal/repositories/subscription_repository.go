package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions. The unique (channel, subscriber) constraint is the
// concurrency control for the subscribe toggle.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create inserts a subscription. A duplicate (channel, subscriber) pair
// surfaces as ErrConflict; an unknown channel or subscriber as ErrNotFound.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, channel_id, subscriber_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.ChannelID, sub.SubscriberID, sub.CreatedAt)
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
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// DeleteMatching removes the subscription for (channel, subscriber) in one
// delete-if-matches statement; zero affected rows surfaces as ErrNotFound.
func (r *PostgresSubscriptionRepository) DeleteMatching(ctx context.Context, channelID, subscriberID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE channel_id = $1 AND subscriber_id = $2
    `, channelID, subscriberID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListSubscribers returns a channel's subscribers joined with their display
// info, oldest subscription first, starting at the provided offset. Callers
// pass a limit of pageSize+1 to drive the cursor pager.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string, offset, limit int) ([]models.SubscriberCard, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT s.id, s.created_at, u.id, u.fullname, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at, s.id
        OFFSET $2
        LIMIT $3
    `, channelID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var cards []models.SubscriberCard
	for rows.Next() {
		var card models.SubscriberCard
		if err := rows.Scan(&card.SubscriptionID, &card.CreatedAt,
			&card.Subscriber.ID, &card.Subscriber.FullName, &card.Subscriber.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}

	return cards, nil
}
