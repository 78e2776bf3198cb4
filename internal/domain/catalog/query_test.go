package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

func bp(v bool) *bool { return &v }

func testProducts() []Product {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Product{
		{
			ID: "p1", Name: "Wireless Headphones", Description: "Over-ear noise cancelling",
			Price: d("30"), Category: "electronics", Brand: "Aural",
			Rating: 4.5, ReviewCount: 320, InStock: true, Featured: true,
			Tags: []string{"audio", "wireless"}, CreatedAt: base.AddDate(0, 2, 0),
		},
		{
			ID: "p2", Name: "Running Shoes", Description: "Lightweight trail runners",
			Price: d("20"), Category: "sports", Brand: "Stride",
			Rating: 4.1, ReviewCount: 87, InStock: true,
			Tags: []string{"footwear"}, CreatedAt: base.AddDate(0, 1, 0),
		},
		{
			ID: "p3", Name: "Desk Lamp", Description: "Adjustable LED lamp",
			Price: d("10"), Category: "home", Brand: "Lumo",
			Rating: 3.8, ReviewCount: 12, InStock: false,
			Tags: []string{"lighting"}, CreatedAt: base,
		},
	}
}

func TestApplyPriceSort(t *testing.T) {
	products := testProducts()

	asc := Apply(products, FilterOptions{Sort: SortPriceLow})
	require.Len(t, asc.Items, 3)
	assert.Equal(t, "p3", asc.Items[0].ID)
	assert.Equal(t, "p2", asc.Items[1].ID)
	assert.Equal(t, "p1", asc.Items[2].ID)

	desc := Apply(products, FilterOptions{Sort: SortPriceHigh})
	require.Len(t, desc.Items, 3)
	assert.Equal(t, "p1", desc.Items[0].ID)
	assert.Equal(t, "p2", desc.Items[1].ID)
	assert.Equal(t, "p3", desc.Items[2].ID)
}

func TestApplyStableTies(t *testing.T) {
	// Same price everywhere: sorting by price must keep source order.
	products := []Product{
		{ID: "a", Price: d("10")},
		{ID: "b", Price: d("10")},
		{ID: "c", Price: d("10")},
	}

	res := Apply(products, FilterOptions{Sort: SortPriceLow})
	require.Len(t, res.Items, 3)
	assert.Equal(t, "a", res.Items[0].ID)
	assert.Equal(t, "b", res.Items[1].ID)
	assert.Equal(t, "c", res.Items[2].ID)
}

func TestApplyDeterministic(t *testing.T) {
	products := testProducts()
	opts := FilterOptions{Sort: SortRating, Limit: 2, Page: 1}

	first := Apply(products, opts)
	for range 10 {
		again := Apply(products, opts)
		assert.Equal(t, first, again)
	}
}

func TestApplyPagination(t *testing.T) {
	products := make([]Product, 25)
	for i := range products {
		products[i] = Product{ID: fmt.Sprintf("p%d", i+1), Price: d("10")}
	}

	tests := []struct {
		page      int
		wantLen   int
		wantFirst string
		hasNext   bool
		hasPrev   bool
	}{
		{page: 1, wantLen: 10, wantFirst: "p1", hasNext: true, hasPrev: false},
		{page: 2, wantLen: 10, wantFirst: "p11", hasNext: true, hasPrev: true},
		{page: 3, wantLen: 5, wantFirst: "p21", hasNext: false, hasPrev: true},
		{page: 4, wantLen: 0, hasNext: false, hasPrev: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			res := Apply(products, FilterOptions{Page: tt.page, Limit: 10})

			assert.Equal(t, 25, res.Total)
			assert.Equal(t, 3, res.TotalPages)
			assert.Equal(t, tt.hasNext, res.HasNext)
			assert.Equal(t, tt.hasPrev, res.HasPrev)
			require.Len(t, res.Items, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, res.Items[0].ID)
			}
		})
	}
}

func TestApplyEmptySet(t *testing.T) {
	res := Apply(nil, DefaultFilters())

	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.TotalPages)
	assert.False(t, res.HasNext)
	assert.False(t, res.HasPrev)
}

func TestApplyFiltersAreANDed(t *testing.T) {
	products := testProducts()

	tests := []struct {
		name    string
		opts    FilterOptions
		wantIDs []string
	}{
		{
			name:    "category only",
			opts:    FilterOptions{Categories: []string{"electronics"}},
			wantIDs: []string{"p1"},
		},
		{
			name:    "multiple categories",
			opts:    FilterOptions{Categories: []string{"electronics", "sports"}},
			wantIDs: []string{"p1", "p2"},
		},
		{
			name:    "category and price band",
			opts:    FilterOptions{Categories: []string{"electronics", "sports"}, PriceMax: dp("25")},
			wantIDs: []string{"p2"},
		},
		{
			name:    "in stock only",
			opts:    FilterOptions{InStock: bp(true)},
			wantIDs: []string{"p1", "p2"},
		},
		{
			name:    "out of stock only",
			opts:    FilterOptions{InStock: bp(false)},
			wantIDs: []string{"p3"},
		},
		{
			name:    "featured",
			opts:    FilterOptions{Featured: bp(true)},
			wantIDs: []string{"p1"},
		},
		{
			name:    "rating floor",
			opts:    FilterOptions{RatingFloor: 4.0},
			wantIDs: []string{"p1", "p2"},
		},
		{
			name:    "tags any-intersection",
			opts:    FilterOptions{Tags: []string{"wireless", "lighting"}},
			wantIDs: []string{"p1", "p3"},
		},
		{
			name:    "brand exact match is case sensitive",
			opts:    FilterOptions{Brands: []string{"aural"}},
			wantIDs: nil,
		},
		{
			name:    "no filter matches everything",
			opts:    FilterOptions{},
			wantIDs: []string{"p1", "p2", "p3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(products, tt.opts)

			var got []string
			for _, p := range res.Items {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestApplyTextSearch(t *testing.T) {
	products := testProducts()

	tests := []struct {
		query   string
		wantIDs []string
	}{
		{query: "headphones", wantIDs: []string{"p1"}},
		{query: "LAMP", wantIDs: []string{"p3"}},
		{query: "stride", wantIDs: []string{"p2"}},  // brand
		{query: "trail", wantIDs: []string{"p2"}},   // description
		{query: "zzz-nothing", wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := Apply(products, FilterOptions{Query: tt.query})

			var got []string
			for _, p := range res.Items {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestApplyDegeneratePriceRange(t *testing.T) {
	res := Apply(testProducts(), FilterOptions{PriceMin: dp("100"), PriceMax: dp("10")})

	assert.True(t, res.Degenerate)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Total)
}

func TestApplySortKeys(t *testing.T) {
	products := testProducts()

	rating := Apply(products, FilterOptions{Sort: SortRating})
	assert.Equal(t, "p1", rating.Items[0].ID)

	newest := Apply(products, FilterOptions{Sort: SortNewest})
	assert.Equal(t, "p1", newest.Items[0].ID)
	assert.Equal(t, "p3", newest.Items[2].ID)

	popular := Apply(products, FilterOptions{Sort: SortPopularity})
	assert.Equal(t, "p1", popular.Items[0].ID)
	assert.Equal(t, "p3", popular.Items[2].ID)

	relevance := Apply(products, FilterOptions{Sort: SortRelevance})
	assert.Equal(t, "p1", relevance.Items[0].ID)
	assert.Equal(t, "p2", relevance.Items[1].ID)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	products := testProducts()
	wantOrder := []string{products[0].ID, products[1].ID, products[2].ID}

	Apply(products, FilterOptions{Sort: SortPriceLow})

	for i, id := range wantOrder {
		assert.Equal(t, id, products[i].ID)
	}
}
