package domain

import "time"

type Destination struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Description  string    `json:"description"`
	ShortDesc    string    `json:"short_desc"`
	Types        []string  `json:"types"`
	PriceFrom    Money     `json:"price_from"`
	Duration     int       `json:"duration"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	CoverImage   string    `json:"cover_image"`
	IsActive     bool      `json:"is_active"`
	IsFeatured   bool      `json:"is_featured"`
	BookingCount int       `json:"booking_count"`
	Packages     []Package `json:"packages,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Package is a priced offer attached to exactly one destination.
type Package struct {
	ID            string    `json:"id"`
	DestinationID string    `json:"destination_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         Money     `json:"price"`
	Duration      int       `json:"duration"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SortBy string

const (
	SortByPrice      SortBy = "price"
	SortByRating     SortBy = "rating"
	SortByNewest     SortBy = "newest"
	SortByPopularity SortBy = "popularity"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DestinationFilter is a validated search predicate. Nil/empty fields are not applied.
type DestinationFilter struct {
	Query       string
	Country     string
	City        string
	Types       []string
	PriceMin    *Money
	PriceMax    *Money
	DurationMin *int
	DurationMax *int
	RatingMin   *float64
}

type DestinationPage struct {
	Destinations []Destination `json:"destinations"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	HasMore      bool          `json:"has_more"`
}
