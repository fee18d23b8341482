package destinations

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/Domenick1991/travelagent/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockDestinationRepository struct {
	mock.Mock
}

func destinationResult(args mock.Arguments) (*domain.Destination, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Destination), args.Error(1)
}

func listResult(args mock.Arguments) ([]domain.Destination, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Destination), args.Error(1)
}

func (m *MockDestinationRepository) GetActiveByIDOrSlug(ctx context.Context, idOrSlug string) (*domain.Destination, error) {
	return destinationResult(m.Called(ctx, idOrSlug))
}

func (m *MockDestinationRepository) GetByID(ctx context.Context, id string) (*domain.Destination, error) {
	return destinationResult(m.Called(ctx, id))
}

func (m *MockDestinationRepository) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *MockDestinationRepository) ListPackages(ctx context.Context, destinationID string, activeOnly bool) ([]domain.Package, error) {
	args := m.Called(ctx, destinationID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Package), args.Error(1)
}

func (m *MockDestinationRepository) Search(ctx context.Context, filter domain.DestinationFilter, sortBy domain.SortBy, order domain.SortOrder, limit, offset int) ([]domain.Destination, error) {
	return listResult(m.Called(ctx, filter, sortBy, order, limit, offset))
}

func (m *MockDestinationRepository) Count(ctx context.Context, filter domain.DestinationFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockDestinationRepository) ListFeatured(ctx context.Context, limit int) ([]domain.Destination, error) {
	return listResult(m.Called(ctx, limit))
}

func (m *MockDestinationRepository) ListPopular(ctx context.Context, limit int) ([]domain.Destination, error) {
	return listResult(m.Called(ctx, limit))
}

func (m *MockDestinationRepository) ListByCountry(ctx context.Context, country string) ([]domain.Destination, error) {
	return listResult(m.Called(ctx, country))
}

func (m *MockDestinationRepository) Create(ctx context.Context, d *domain.Destination) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDestinationRepository) Update(ctx context.Context, d *domain.Destination) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDestinationRepository) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDestinationRepository) IncrementBookingCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) RecordView(ctx context.Context, destinationID string, day time.Time) error {
	return m.Called(ctx, destinationID, day).Error(0)
}

func (m *MockAnalyticsRepository) ViewsBetween(ctx context.Context, destinationID string, from, to time.Time) ([]domain.DestinationView, error) {
	args := m.Called(ctx, destinationID, from, to)
	return args.Get(0).([]domain.DestinationView), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCache) InvalidatePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

// memoryCache stores JSON like the redis cache does, so round-trips are realistic.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memoryCache) InvalidatePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.items, key)
		}
	}
	return nil
}
