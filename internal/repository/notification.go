package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/holohaven-api/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateMany(ctx context.Context, ns []model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*model.Notification, error)
}

type pgNotificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepo{pool: pool}
}

const insertNotification = `INSERT INTO notifications (id, user_id, title, body, type, data, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW()) RETURNING created_at`

func (r *pgNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	err := r.pool.QueryRow(ctx, insertNotification, n.ID, n.UserID, n.Title, n.Body, n.Type, n.Data).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateMany inserts all rows in one round trip inside a transaction, so a
// fan-out either persists its whole audience or nothing.
func (r *pgNotificationRepo) CreateMany(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range ns {
		n := &ns[i]
		n.ID = uuid.New()
		batch.Queue(insertNotification, n.ID, n.UserID, n.Title, n.Body, n.Type, n.Data).
			QueryRow(func(row pgx.Row) error { return row.Scan(&n.CreatedAt) })
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *pgNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, body, type, data, read, created_at FROM notifications
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *pgNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	err := r.pool.QueryRow(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, body, type, data, read, created_at`, id, userID,
	).Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &n.Data, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &n, nil
}
