package repository

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/travelagent/internal/domain"
)

var sortColumns = map[domain.SortBy]string{
	domain.SortByPrice:      "price_from",
	domain.SortByRating:     "rating",
	domain.SortByNewest:     "created_at",
	domain.SortByPopularity: "booking_count",
}

// whereBuilder accumulates AND-ed predicates with numbered placeholders.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.clauses, " AND ")
}

// buildSearchWhere renders the destination predicate. Only active destinations ever match.
func buildSearchWhere(f domain.DestinationFilter) (string, []any) {
	w := &whereBuilder{}
	w.add("is_active = TRUE")

	if q := strings.TrimSpace(f.Query); q != "" {
		p := w.arg("%" + escapeLike(q) + "%")
		w.add(fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s OR country ILIKE %[1]s OR city ILIKE %[1]s)", p))
	}
	if c := strings.TrimSpace(f.Country); c != "" {
		w.add(fmt.Sprintf("lower(country) = lower(%s)", w.arg(c)))
	}
	if c := strings.TrimSpace(f.City); c != "" {
		w.add(fmt.Sprintf("lower(city) = lower(%s)", w.arg(c)))
	}
	if len(f.Types) > 0 {
		w.add(fmt.Sprintf("types && %s::text[]", w.arg(f.Types)))
	}
	if f.PriceMin != nil {
		w.add(fmt.Sprintf("price_from >= %s", w.arg(int64(*f.PriceMin))))
	}
	if f.PriceMax != nil {
		w.add(fmt.Sprintf("price_from <= %s", w.arg(int64(*f.PriceMax))))
	}
	if f.DurationMin != nil {
		w.add(fmt.Sprintf("duration >= %s", w.arg(*f.DurationMin)))
	}
	if f.DurationMax != nil {
		w.add(fmt.Sprintf("duration <= %s", w.arg(*f.DurationMax)))
	}
	if f.RatingMin != nil {
		w.add(fmt.Sprintf("rating >= %s", w.arg(*f.RatingMin)))
	}

	return w.sql(), w.args
}

// buildOrderBy maps a sort key to a whitelisted column, with id as the tie-breaker for stable paging.
func buildOrderBy(sortBy domain.SortBy, order domain.SortOrder) string {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = sortColumns[domain.SortByPopularity]
	}
	dir := "DESC"
	if order == domain.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
