package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsRepository interface {
	// RecordView adds one view to the (destination, day) row, creating it on first view.
	RecordView(ctx context.Context, destinationID string, day time.Time) error
	ViewsBetween(ctx context.Context, destinationID string, from, to time.Time) ([]domain.DestinationView, error)
}

type PGAnalyticsRepository struct {
	db *pgxpool.Pool
}

func NewAnalyticsRepository(db *pgxpool.Pool) AnalyticsRepository {
	return &PGAnalyticsRepository{db: db}
}

func (r *PGAnalyticsRepository) RecordView(ctx context.Context, destinationID string, day time.Time) error {
	_, err := r.db.Exec(ctx, `INSERT INTO destination_views (destination_id, date, views) VALUES ($1, $2, 1)
		ON CONFLICT (destination_id, date) DO UPDATE SET views = destination_views.views + 1`,
		destinationID, day.UTC().Truncate(24*time.Hour))
	return wrapErr("record destination view", err)
}

func (r *PGAnalyticsRepository) ViewsBetween(ctx context.Context, destinationID string, from, to time.Time) ([]domain.DestinationView, error) {
	rows, err := r.db.Query(ctx, `SELECT destination_id, date, views FROM destination_views
		WHERE destination_id=$1 AND date BETWEEN $2 AND $3 ORDER BY date`, destinationID, from, to)
	if err != nil {
		return nil, wrapErr("list destination views", err)
	}
	defer rows.Close()

	views := make([]domain.DestinationView, 0)
	for rows.Next() {
		var v domain.DestinationView
		if err := rows.Scan(&v.DestinationID, &v.Date, &v.Views); err != nil {
			return nil, wrapErr("list destination views", err)
		}
		views = append(views, v)
	}
	return views, wrapErr("list destination views", rows.Err())
}

var _ AnalyticsRepository = (*PGAnalyticsRepository)(nil)
