package destinations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelagent/internal/background"
	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/Domenick1991/travelagent/internal/repository"
	"github.com/Domenick1991/travelagent/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPage          = 1
	defaultLimit         = 12
	maxLimit             = 100
	featuredLimit        = 6
	defaultPopularLimit  = 6
	maxPopularLimit      = 50
	defaultFeaturedTTL   = time.Hour
	defaultPopularTTL    = 10 * time.Minute
	featuredKey          = "destinations:featured"
	popularKeyPrefix     = "destinations:popular:"
	invalidationPattern  = "destinations:*"
	defaultSortBy        = domain.SortByPopularity
	defaultSortDirection = domain.SortDesc
)

type DestinationUseCase interface {
	SearchDestinations(ctx context.Context, params SearchParams) (*domain.DestinationPage, error)
	GetFeaturedDestinations(ctx context.Context) ([]domain.Destination, error)
	GetDestination(ctx context.Context, idOrSlug string) (*domain.Destination, error)
	GetPopularDestinations(ctx context.Context, limit int) ([]domain.Destination, error)
	GetDestinationsByCountry(ctx context.Context, country string) ([]domain.Destination, error)
	CreateDestination(ctx context.Context, input CreateDestinationInput) (*domain.Destination, error)
	UpdateDestination(ctx context.Context, id string, input UpdateDestinationInput) (*domain.Destination, error)
	DeleteDestination(ctx context.Context, id string) error
}

// Cache is the read-through store for list endpoints. It is never the source of truth.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

// SearchParams are the raw query parameters. Prices are in major currency units.
type SearchParams struct {
	Query       string   `form:"query" json:"query" validate:"max=200"`
	Country     string   `form:"country" json:"country" validate:"max=100"`
	City        string   `form:"city" json:"city" validate:"max=100"`
	Types       []string `form:"types" json:"types" validate:"omitempty,dive,required"`
	PriceMin    *float64 `form:"price_min" json:"price_min" validate:"omitempty,gte=0"`
	PriceMax    *float64 `form:"price_max" json:"price_max" validate:"omitempty,gte=0"`
	DurationMin *int     `form:"duration_min" json:"duration_min" validate:"omitempty,gte=1"`
	DurationMax *int     `form:"duration_max" json:"duration_max" validate:"omitempty,gte=1"`
	RatingMin   *float64 `form:"rating_min" json:"rating_min" validate:"omitempty,gte=0,lte=5"`
	// Page and Limit fall back to their defaults when zero. Page is capped so the offset stays small.
	Page      int    `form:"page" json:"page" validate:"gte=0,lte=10000"`
	Limit     int    `form:"limit" json:"limit" validate:"gte=0,lte=100"`
	SortBy    string `form:"sort_by" json:"sort_by" validate:"omitempty,oneof=price rating newest popularity"`
	SortOrder string `form:"sort_order" json:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type PackageInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Duration    int     `json:"duration" validate:"gte=1"`
}

type CreateDestinationInput struct {
	Slug        string         `json:"slug" validate:"required,max=120,slug"`
	Name        string         `json:"name" validate:"required,max=200"`
	Country     string         `json:"country" validate:"required,max=100"`
	City        string         `json:"city" validate:"required,max=100"`
	Description string         `json:"description" validate:"required"`
	ShortDesc   string         `json:"short_desc" validate:"max=300"`
	Types       []string       `json:"types" validate:"omitempty,dive,required"`
	PriceFrom   float64        `json:"price_from" validate:"gte=0"`
	Duration    int            `json:"duration" validate:"gte=1"`
	Rating      float64        `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int            `json:"review_count" validate:"gte=0"`
	CoverImage  string         `json:"cover_image" validate:"max=500"`
	IsFeatured  bool           `json:"is_featured"`
	Packages    []PackageInput `json:"packages" validate:"omitempty,dive"`
}

// UpdateDestinationInput applies only the fields that are set. The slug cannot be changed.
type UpdateDestinationInput struct {
	Slug        *string  `json:"slug"`
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Country     *string  `json:"country" validate:"omitempty,min=1,max=100"`
	City        *string  `json:"city" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	ShortDesc   *string  `json:"short_desc" validate:"omitempty,max=300"`
	Types       []string `json:"types" validate:"omitempty,dive,required"`
	PriceFrom   *float64 `json:"price_from" validate:"omitempty,gte=0"`
	Duration    *int     `json:"duration" validate:"omitempty,gte=1"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	ReviewCount *int     `json:"review_count" validate:"omitempty,gte=0"`
	CoverImage  *string  `json:"cover_image" validate:"omitempty,max=500"`
	IsActive    *bool    `json:"is_active"`
	IsFeatured  *bool    `json:"is_featured"`
}

type DestinationService struct {
	repo   repository.DestinationRepository
	views  repository.AnalyticsRepository
	runner *background.Runner
	logger *zap.Logger

	cache       Cache
	featuredTTL time.Duration
	popularTTL  time.Duration
	now         func() time.Time
}

type DestinationServiceOption func(*DestinationService)

// WithCache enables cache-aside reads for the featured and popular lists. Zero TTLs keep the defaults.
func WithCache(cache Cache, featuredTTL, popularTTL time.Duration) DestinationServiceOption {
	return func(s *DestinationService) {
		s.cache = cache
		if featuredTTL > 0 {
			s.featuredTTL = featuredTTL
		}
		if popularTTL > 0 {
			s.popularTTL = popularTTL
		}
	}
}

func WithClock(now func() time.Time) DestinationServiceOption {
	return func(s *DestinationService) {
		s.now = now
	}
}

func NewDestinationService(
	repo repository.DestinationRepository,
	views repository.AnalyticsRepository,
	runner *background.Runner,
	logger *zap.Logger,
	opts ...DestinationServiceOption,
) *DestinationService {
	s := &DestinationService{
		repo:        repo,
		views:       views,
		runner:      runner,
		logger:      logger.Named("destinations"),
		featuredTTL: defaultFeaturedTTL,
		popularTTL:  defaultPopularTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DestinationService) SearchDestinations(ctx context.Context, params SearchParams) (*domain.DestinationPage, error) {
	filter, sortBy, order, page, limit, err := normalizeSearch(params)
	if err != nil {
		return nil, err
	}

	var (
		total        int
		destinations []domain.Destination
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		destinations, err = s.repo.Search(gctx, filter, sortBy, order, limit, (page-1)*limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &domain.DestinationPage{
		Destinations: destinations,
		Total:        total,
		Page:         page,
		TotalPages:   totalPages,
		HasMore:      page < totalPages,
	}, nil
}

// normalizeSearch validates params and fills in defaults.
func normalizeSearch(p SearchParams) (domain.DestinationFilter, domain.SortBy, domain.SortOrder, int, int, error) {
	var filter domain.DestinationFilter
	if err := validation.Struct(p); err != nil {
		return filter, "", "", 0, 0, err
	}

	verr := domain.NewValidationError()
	if p.PriceMin != nil && p.PriceMax != nil && *p.PriceMin > *p.PriceMax {
		verr.Add("price_max", "must be greater than or equal to price_min")
	}
	if p.DurationMin != nil && p.DurationMax != nil && *p.DurationMin > *p.DurationMax {
		verr.Add("duration_max", "must be greater than or equal to duration_min")
	}
	if err := verr.OrNil(); err != nil {
		return filter, "", "", 0, 0, err
	}

	filter = domain.DestinationFilter{
		Query:       strings.TrimSpace(p.Query),
		Country:     strings.TrimSpace(p.Country),
		City:        strings.TrimSpace(p.City),
		Types:       p.Types,
		PriceMin:    majorToMoney(p.PriceMin),
		PriceMax:    majorToMoney(p.PriceMax),
		DurationMin: p.DurationMin,
		DurationMax: p.DurationMax,
		RatingMin:   p.RatingMin,
	}

	sortBy := domain.SortBy(p.SortBy)
	if sortBy == "" {
		sortBy = defaultSortBy
	}
	order := domain.SortOrder(p.SortOrder)
	if order == "" {
		order = defaultSortDirection
	}
	page := p.Page
	if page == 0 {
		page = defaultPage
	}
	limit := p.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	return filter, sortBy, order, page, limit, nil
}

func majorToMoney(v *float64) *domain.Money {
	if v == nil {
		return nil
	}
	m := domain.MoneyFromMajor(decimal.NewFromFloat(*v))
	return &m
}

func (s *DestinationService) GetFeaturedDestinations(ctx context.Context) ([]domain.Destination, error) {
	return s.cachedList(ctx, featuredKey, s.featuredTTL, func() ([]domain.Destination, error) {
		return s.repo.ListFeatured(ctx, featuredLimit)
	})
}

func (s *DestinationService) GetPopularDestinations(ctx context.Context, limit int) ([]domain.Destination, error) {
	switch {
	case limit == 0:
		limit = defaultPopularLimit
	case limit < 0 || limit > maxPopularLimit:
		verr := domain.NewValidationError()
		verr.Add("limit", fmt.Sprintf("must be between 1 and %d", maxPopularLimit))
		return nil, verr
	}

	key := fmt.Sprintf("%s%d", popularKeyPrefix, limit)
	return s.cachedList(ctx, key, s.popularTTL, func() ([]domain.Destination, error) {
		return s.repo.ListPopular(ctx, limit)
	})
}

// cachedList reads key from the cache and falls back to load on a miss. Cache errors only cost latency.
func (s *DestinationService) cachedList(ctx context.Context, key string, ttl time.Duration, load func() ([]domain.Destination, error)) ([]domain.Destination, error) {
	if s.cache != nil {
		var cached []domain.Destination
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	list, err := load()
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Destination{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, list, ttl); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return list, nil
}

func (s *DestinationService) GetDestination(ctx context.Context, idOrSlug string) (*domain.Destination, error) {
	if strings.TrimSpace(idOrSlug) == "" {
		return nil, fmt.Errorf("destination: %w", domain.ErrNotFound)
	}
	d, err := s.repo.GetActiveByIDOrSlug(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	packages, err := s.repo.ListPackages(ctx, d.ID, true)
	if err != nil {
		return nil, err
	}
	d.Packages = packages

	destinationID := d.ID
	day := s.now()
	s.runner.Go(ctx, "record-view", func(ctx context.Context) error {
		return s.views.RecordView(ctx, destinationID, day)
	})
	return d, nil
}

func (s *DestinationService) GetDestinationsByCountry(ctx context.Context, country string) ([]domain.Destination, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		verr := domain.NewValidationError()
		verr.Add("country", "is required")
		return nil, verr
	}
	return s.repo.ListByCountry(ctx, country)
}

func (s *DestinationService) CreateDestination(ctx context.Context, input CreateDestinationInput) (*domain.Destination, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	d := &domain.Destination{
		ID:          uuid.NewString(),
		Slug:        input.Slug,
		Name:        strings.TrimSpace(input.Name),
		Country:     strings.TrimSpace(input.Country),
		City:        strings.TrimSpace(input.City),
		Description: input.Description,
		ShortDesc:   input.ShortDesc,
		Types:       input.Types,
		PriceFrom:   domain.MoneyFromMajor(decimal.NewFromFloat(input.PriceFrom)),
		Duration:    input.Duration,
		Rating:      input.Rating,
		ReviewCount: input.ReviewCount,
		CoverImage:  input.CoverImage,
		IsActive:    true,
		IsFeatured:  input.IsFeatured,
	}
	if d.Types == nil {
		d.Types = []string{}
	}
	for _, p := range input.Packages {
		d.Packages = append(d.Packages, domain.Package{
			ID:            uuid.NewString(),
			DestinationID: d.ID,
			Name:          strings.TrimSpace(p.Name),
			Description:   p.Description,
			Price:         domain.MoneyFromMajor(decimal.NewFromFloat(p.Price)),
			Duration:      p.Duration,
			IsActive:      true,
		})
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if isDuplicate(err) {
			verr := domain.NewValidationError()
			verr.Add("slug", "is already taken")
			return nil, verr
		}
		return nil, err
	}

	s.logger.Info("destination created", zap.String("destination_id", d.ID), zap.String("slug", d.Slug))
	s.invalidate(ctx)
	return d, nil
}

func (s *DestinationService) UpdateDestination(ctx context.Context, id string, input UpdateDestinationInput) (*domain.Destination, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Slug != nil && *input.Slug != d.Slug {
		verr := domain.NewValidationError()
		verr.Add("slug", "cannot be changed")
		return nil, verr
	}

	applyUpdate(d, input)
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("destination updated", zap.String("destination_id", d.ID))
	s.invalidate(ctx)
	return d, nil
}

func applyUpdate(d *domain.Destination, in UpdateDestinationInput) {
	if in.Name != nil {
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.Country != nil {
		d.Country = strings.TrimSpace(*in.Country)
	}
	if in.City != nil {
		d.City = strings.TrimSpace(*in.City)
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.ShortDesc != nil {
		d.ShortDesc = *in.ShortDesc
	}
	if in.Types != nil {
		d.Types = in.Types
	}
	if in.PriceFrom != nil {
		d.PriceFrom = domain.MoneyFromMajor(decimal.NewFromFloat(*in.PriceFrom))
	}
	if in.Duration != nil {
		d.Duration = *in.Duration
	}
	if in.Rating != nil {
		d.Rating = *in.Rating
	}
	if in.ReviewCount != nil {
		d.ReviewCount = *in.ReviewCount
	}
	if in.CoverImage != nil {
		d.CoverImage = *in.CoverImage
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		d.IsFeatured = *in.IsFeatured
	}
}

// DeleteDestination deactivates the destination. Bookings keep referencing it.
func (s *DestinationService) DeleteDestination(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("destination deactivated", zap.String("destination_id", id))
	s.invalidate(ctx)
	return nil
}

func (s *DestinationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, invalidationPattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", invalidationPattern), zap.Error(err))
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}

var _ DestinationUseCase = (*DestinationService)(nil)
