package repository

import (
	"context"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
}

type PGNotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	err := r.db.QueryRow(ctx, `INSERT INTO notifications (id, user_id, booking_id, type, title, message, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		n.ID, n.UserID, n.BookingID, n.Type, n.Title, n.Message, n.IsRead).Scan(&n.CreatedAt)
	return wrapErr("create notification", err)
}

func (r *PGNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, booking_id, type, title, message, is_read, created_at
		FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, wrapErr("list notifications", err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, wrapErr("list notifications", err)
		}
		out = append(out, n)
	}
	return out, wrapErr("list notifications", rows.Err())
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
