package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DestinationRepository interface {
	GetActiveByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Destination, error)
	GetByID(ctx context.Context, id string) (*domain.Destination, error)
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	ListPackages(ctx context.Context, destinationID string, activeOnly bool) ([]domain.Package, error)
	Search(ctx context.Context, filter domain.DestinationFilter, sortBy domain.SortBy, order domain.SortOrder, limit, offset int) ([]domain.Destination, error)
	Count(ctx context.Context, filter domain.DestinationFilter) (int, error)
	ListFeatured(ctx context.Context, limit int) ([]domain.Destination, error)
	ListPopular(ctx context.Context, limit int) ([]domain.Destination, error)
	ListByCountry(ctx context.Context, country string) ([]domain.Destination, error)
	Create(ctx context.Context, d *domain.Destination) error
	Update(ctx context.Context, d *domain.Destination) error
	Deactivate(ctx context.Context, id string) error
	IncrementBookingCount(ctx context.Context, id string) error
}

const destinationColumns = `id, slug, name, country, city, description, short_desc, types, price_from, duration,
	rating, review_count, cover_image, is_active, is_featured, booking_count, created_at, updated_at`

const packageColumns = `id, destination_id, name, description, price, duration, is_active, created_at, updated_at`

type PGDestinationRepository struct {
	db *pgxpool.Pool
}

func NewDestinationRepository(db *pgxpool.Pool) DestinationRepository {
	return &PGDestinationRepository{db: db}
}

func scanDestination(row pgx.Row) (domain.Destination, error) {
	var d domain.Destination
	err := row.Scan(&d.ID, &d.Slug, &d.Name, &d.Country, &d.City, &d.Description, &d.ShortDesc, &d.Types,
		&d.PriceFrom, &d.Duration, &d.Rating, &d.ReviewCount, &d.CoverImage, &d.IsActive, &d.IsFeatured,
		&d.BookingCount, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func scanPackage(row pgx.Row) (domain.Package, error) {
	var p domain.Package
	err := row.Scan(&p.ID, &p.DestinationID, &p.Name, &p.Description, &p.Price, &p.Duration, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PGDestinationRepository) queryDestinations(ctx context.Context, op, query string, args ...any) ([]domain.Destination, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	destinations := make([]domain.Destination, 0)
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		destinations = append(destinations, d)
	}
	return destinations, wrapErr(op, rows.Err())
}

func (r *PGDestinationRepository) GetActiveByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Destination, error) {
	row := r.db.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE (id=$1 OR slug=$1) AND is_active = TRUE`, idOrSlug)
	d, err := scanDestination(row)
	if err != nil {
		return nil, wrapErr("get destination "+idOrSlug, err)
	}
	return &d, nil
}

func (r *PGDestinationRepository) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	row := r.db.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id=$1`, id)
	d, err := scanDestination(row)
	if err != nil {
		return nil, wrapErr("get destination "+id, err)
	}
	return &d, nil
}

func (r *PGDestinationRepository) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	row := r.db.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id=$1`, id)
	p, err := scanPackage(row)
	if err != nil {
		return nil, wrapErr("get package "+id, err)
	}
	return &p, nil
}

func (r *PGDestinationRepository) ListPackages(ctx context.Context, destinationID string, activeOnly bool) ([]domain.Package, error) {
	rows, err := r.db.Query(ctx, `SELECT `+packageColumns+` FROM packages
		WHERE destination_id=$1 AND (is_active OR NOT $2) ORDER BY price, id`, destinationID, activeOnly)
	if err != nil {
		return nil, wrapErr("list packages", err)
	}
	defer rows.Close()

	packages := make([]domain.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, wrapErr("list packages", err)
		}
		packages = append(packages, p)
	}
	return packages, wrapErr("list packages", rows.Err())
}

func (r *PGDestinationRepository) Search(ctx context.Context, filter domain.DestinationFilter, sortBy domain.SortBy, order domain.SortOrder, limit, offset int) ([]domain.Destination, error) {
	where, args := buildSearchWhere(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM destinations WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		destinationColumns, where, buildOrderBy(sortBy, order), len(args)-1, len(args))
	return r.queryDestinations(ctx, "search destinations", query, args...)
}

func (r *PGDestinationRepository) Count(ctx context.Context, filter domain.DestinationFilter) (int, error) {
	where, args := buildSearchWhere(filter)
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM destinations WHERE `+where, args...).Scan(&total); err != nil {
		return 0, wrapErr("count destinations", err)
	}
	return total, nil
}

func (r *PGDestinationRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Destination, error) {
	return r.queryDestinations(ctx, "list featured destinations", `SELECT `+destinationColumns+` FROM destinations
		WHERE is_active = TRUE AND is_featured = TRUE ORDER BY booking_count DESC, id LIMIT $1`, limit)
}

func (r *PGDestinationRepository) ListPopular(ctx context.Context, limit int) ([]domain.Destination, error) {
	return r.queryDestinations(ctx, "list popular destinations", `SELECT `+destinationColumns+` FROM destinations
		WHERE is_active = TRUE ORDER BY booking_count DESC, rating DESC, id LIMIT $1`, limit)
}

func (r *PGDestinationRepository) ListByCountry(ctx context.Context, country string) ([]domain.Destination, error) {
	return r.queryDestinations(ctx, "list destinations by country", `SELECT `+destinationColumns+` FROM destinations
		WHERE is_active = TRUE AND lower(country) = lower($1) ORDER BY rating DESC, id`, country)
}

// Create inserts a destination together with its packages.
func (r *PGDestinationRepository) Create(ctx context.Context, d *domain.Destination) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapErr("create destination", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO destinations (id, slug, name, country, city, description, short_desc, types,
		price_from, duration, rating, review_count, cover_image, is_active, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING booking_count, created_at, updated_at`,
		d.ID, d.Slug, d.Name, d.Country, d.City, d.Description, d.ShortDesc, d.Types, d.PriceFrom, d.Duration,
		d.Rating, d.ReviewCount, d.CoverImage, d.IsActive, d.IsFeatured).
		Scan(&d.BookingCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return wrapErr("create destination", err)
	}

	for i := range d.Packages {
		p := &d.Packages[i]
		p.DestinationID = d.ID
		if err := tx.QueryRow(ctx, `INSERT INTO packages (id, destination_id, name, description, price, duration, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`,
			p.ID, p.DestinationID, p.Name, p.Description, p.Price, p.Duration, p.IsActive).
			Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return wrapErr("create package", err)
		}
	}

	return wrapErr("create destination", tx.Commit(ctx))
}

// Update rewrites the mutable fields. The slug is never changed.
func (r *PGDestinationRepository) Update(ctx context.Context, d *domain.Destination) error {
	row := r.db.QueryRow(ctx, `UPDATE destinations SET name=$2, country=$3, city=$4, description=$5, short_desc=$6,
		types=$7, price_from=$8, duration=$9, rating=$10, review_count=$11, cover_image=$12, is_active=$13,
		is_featured=$14, updated_at=now()
		WHERE id=$1 RETURNING `+destinationColumns,
		d.ID, d.Name, d.Country, d.City, d.Description, d.ShortDesc, d.Types, d.PriceFrom, d.Duration, d.Rating,
		d.ReviewCount, d.CoverImage, d.IsActive, d.IsFeatured)
	updated, err := scanDestination(row)
	if err != nil {
		return wrapErr("update destination "+d.ID, err)
	}
	*d = updated
	return nil
}

// Deactivate hides a destination. Bookings keep their foreign key.
func (r *PGDestinationRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `UPDATE destinations SET is_active = FALSE, is_featured = FALSE, updated_at = now() WHERE id=$1`, id)
	if err != nil {
		return wrapErr("deactivate destination", err)
	}
	if res.RowsAffected() == 0 {
		return wrapErr("deactivate destination "+id, pgx.ErrNoRows)
	}
	return nil
}

func (r *PGDestinationRepository) IncrementBookingCount(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `UPDATE destinations SET booking_count = booking_count + 1, updated_at = now() WHERE id=$1`, id)
	if err != nil {
		return wrapErr("increment booking count", err)
	}
	if res.RowsAffected() == 0 {
		return wrapErr("increment booking count "+id, pgx.ErrNoRows)
	}
	return nil
}

var _ DestinationRepository = (*PGDestinationRepository)(nil)
