package catalog

import (
	"slices"
	"sort"
	"strings"
)

// Result is a filtered, sorted, paginated view over a product set together
// with its pagination metadata.
type Result struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
	HasNext    bool      `json:"hasNext"`
	HasPrev    bool      `json:"hasPrev"`

	// Degenerate is set when the filter itself can never match (price range
	// with min > max). The result is empty rather than an error: the filter
	// values come straight from user input and the UI tolerates garbage.
	Degenerate bool `json:"-"`
}

// Apply runs the full query pipeline over products: free-text filter, field
// filters (ANDed), stable sort, pagination. It is a pure function: identical
// inputs produce identical output, with ties broken by original position.
// The input slice is never modified.
func Apply(products []Product, opts FilterOptions) *Result {
	opts = opts.normalized()

	if degenerateRange(opts) {
		return &Result{
			Items:      []Product{},
			Page:       opts.Page,
			Limit:      opts.Limit,
			Degenerate: true,
		}
	}

	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if matches(p, opts) {
			matched = append(matched, p)
		}
	}

	sortProducts(matched, opts.Sort)

	return paginate(matched, opts.Page, opts.Limit)
}

// degenerateRange reports whether the price range can never match.
func degenerateRange(opts FilterOptions) bool {
	return opts.PriceMin != nil && opts.PriceMax != nil && opts.PriceMin.GreaterThan(*opts.PriceMax)
}

// matches reports whether p satisfies every active filter in opts.
func matches(p Product, opts FilterOptions) bool {
	if opts.Query != "" && !matchesQuery(p, opts.Query) {
		return false
	}
	if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, p.Category) {
		return false
	}
	if opts.Subcategory != "" && p.Subcategory != opts.Subcategory {
		return false
	}
	if len(opts.Brands) > 0 && !slices.Contains(opts.Brands, p.Brand) {
		return false
	}
	if opts.PriceMin != nil && p.Price.LessThan(*opts.PriceMin) {
		return false
	}
	if opts.PriceMax != nil && p.Price.GreaterThan(*opts.PriceMax) {
		return false
	}
	if opts.RatingFloor > 0 && p.Rating < opts.RatingFloor {
		return false
	}
	if opts.InStock != nil && p.InStock != *opts.InStock {
		return false
	}
	if opts.Featured != nil && p.Featured != *opts.Featured {
		return false
	}
	if len(opts.Tags) > 0 && !anyTag(p.Tags, opts.Tags) {
		return false
	}
	return true
}

// matchesQuery performs a case-insensitive substring match against the
// product name, description and brand. This is deliberately not a tokenized
// search; it mirrors what the backend does for short queries.
func matchesQuery(p Product, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Brand), q)
}

// anyTag reports whether the product tags intersect the wanted tags.
// Any-intersection semantics: one shared tag is enough.
func anyTag(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// sortProducts orders products in place by the requested key. The sort is
// stable, so products that compare equal keep their original relative order
// and repeated runs produce identical output. SortRelevance leaves the
// source ordering untouched.
func sortProducts(products []Product, key Sort) {
	var less func(a, b Product) bool
	switch key {
	case SortPriceLow:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceHigh:
		less = func(a, b Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b Product) bool { return a.Rating > b.Rating }
	case SortNewest:
		less = func(a, b Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortPopularity:
		less = func(a, b Product) bool { return a.ReviewCount > b.ReviewCount }
	case SortRelevance:
		return
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		return less(products[i], products[j])
	})
}

// paginate slices the matched set into the requested page and fills in the
// pagination metadata.
func paginate(matched []Product, page, limit int) *Result {
	total := len(matched)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]Product, end-start)
	copy(items, matched[start:end])

	return &Result{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}
}
