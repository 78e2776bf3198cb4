package catalog

import (
	"github.com/shopspring/decimal"
)

// Sort enumerates the supported result orderings.
type Sort string

const (
	// SortRelevance keeps the source ordering (server ranking or insertion order).
	SortRelevance Sort = "relevance"
	// SortPriceLow orders by price ascending.
	SortPriceLow Sort = "price-low"
	// SortPriceHigh orders by price descending.
	SortPriceHigh Sort = "price-high"
	// SortRating orders by rating descending.
	SortRating Sort = "rating"
	// SortNewest orders by creation time descending.
	SortNewest Sort = "newest"
	// SortPopularity orders by review count descending.
	SortPopularity Sort = "popularity"
)

// DefaultLimit is the page size used when none is requested.
const DefaultLimit = 12

// FilterOptions describes the active catalog query: filters, sort order and
// pagination. It is a value object; modifying a copy does not affect the
// engine until the copy is applied.
//
// Categories and Brands are always slices. Call sites with a single value use
// a singleton slice; earlier revisions of the storefront mixed scalar and
// array shapes and this type settles on one representation.
type FilterOptions struct {
	// Query is a free-text search term matched case-insensitively against
	// product name, description and brand.
	Query string `json:"query,omitempty"`

	Categories  []string `json:"categories,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Brands      []string `json:"brands,omitempty"`

	// PriceMin and PriceMax bound the price range inclusively. A range with
	// min > max matches nothing.
	PriceMin *decimal.Decimal `json:"priceMin,omitempty"`
	PriceMax *decimal.Decimal `json:"priceMax,omitempty"`

	// RatingFloor keeps products with rating >= the floor. Zero disables it.
	RatingFloor float64 `json:"ratingFloor,omitempty"`

	InStock  *bool    `json:"inStock,omitempty"`
	Featured *bool    `json:"featured,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	Sort  Sort `json:"sortBy,omitempty"`
	Page  int  `json:"page,omitempty"`
	Limit int  `json:"limit,omitempty"`
}

// DefaultFilters returns the query state used before the user narrows
// anything down: first page, twelve per page, relevance ordering.
func DefaultFilters() FilterOptions {
	return FilterOptions{
		Sort:  SortRelevance,
		Page:  1,
		Limit: DefaultLimit,
	}
}

// FilterOption mutates a single key of a FilterOptions value. Options applied
// in sequence implement the shallow-merge update semantics: each option fully
// replaces the value of the key it names and leaves the rest alone.
type FilterOption func(*FilterOptions)

// WithQuery sets the free-text search term. An empty string clears it.
func WithQuery(q string) FilterOption {
	return func(o *FilterOptions) { o.Query = q }
}

// WithCategories replaces the category filter. No arguments clears it.
func WithCategories(categories ...string) FilterOption {
	return func(o *FilterOptions) { o.Categories = categories }
}

// WithSubcategory sets the subcategory filter. An empty string clears it.
func WithSubcategory(sub string) FilterOption {
	return func(o *FilterOptions) { o.Subcategory = sub }
}

// WithBrands replaces the brand filter. No arguments clears it.
func WithBrands(brands ...string) FilterOption {
	return func(o *FilterOptions) { o.Brands = brands }
}

// WithPriceRange sets the inclusive price bounds.
func WithPriceRange(min, max decimal.Decimal) FilterOption {
	return func(o *FilterOptions) {
		o.PriceMin = &min
		o.PriceMax = &max
	}
}

// WithoutPriceRange clears the price bounds.
func WithoutPriceRange() FilterOption {
	return func(o *FilterOptions) {
		o.PriceMin = nil
		o.PriceMax = nil
	}
}

// WithRatingFloor keeps products rated at or above floor. Zero clears it.
func WithRatingFloor(floor float64) FilterOption {
	return func(o *FilterOptions) { o.RatingFloor = floor }
}

// WithInStock filters on stock availability.
func WithInStock(inStock bool) FilterOption {
	return func(o *FilterOptions) { o.InStock = &inStock }
}

// WithAnyStock clears the stock filter.
func WithAnyStock() FilterOption {
	return func(o *FilterOptions) { o.InStock = nil }
}

// WithFeatured filters on the featured flag.
func WithFeatured(featured bool) FilterOption {
	return func(o *FilterOptions) { o.Featured = &featured }
}

// WithTags replaces the tag filter. A product matches when it carries at
// least one of the given tags. No arguments clears the filter.
func WithTags(tags ...string) FilterOption {
	return func(o *FilterOptions) { o.Tags = tags }
}

// WithSort sets the result ordering.
func WithSort(s Sort) FilterOption {
	return func(o *FilterOptions) { o.Sort = s }
}

// WithPage sets the page number (1-based).
func WithPage(page int) FilterOption {
	return func(o *FilterOptions) { o.Page = page }
}

// WithLimit sets the page size.
func WithLimit(limit int) FilterOption {
	return func(o *FilterOptions) { o.Limit = limit }
}

// Merge returns a copy of o with the given options applied on top.
func (o FilterOptions) Merge(opts ...FilterOption) FilterOptions {
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// normalized returns o with pagination fields clamped to sane values.
func (o FilterOptions) normalized() FilterOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.Sort == "" {
		o.Sort = SortRelevance
	}
	return o
}
