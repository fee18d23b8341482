package repository

import (
	"errors"
	"testing"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewDestinationRepository(pool))
	assert.NotNil(t, NewBookingRepository(pool))
	assert.NotNil(t, NewNotificationRepository(pool))
	assert.NotNil(t, NewAnalyticsRepository(pool))
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, wrapErr("op", nil))

	err := wrapErr("get booking", pgx.ErrNoRows)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = wrapErr("create booking", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_booking_number_key"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "bookings_booking_number_key")

	err = wrapErr("list", errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrDependency)
	var dep *domain.DependencyError
	assert.True(t, errors.As(err, &dep))
	assert.Equal(t, "postgres", dep.Dependency)
}
