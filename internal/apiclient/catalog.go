package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/shopverse/storefront/internal/domain/catalog"
)

// Compile-time check: the client serves as a catalog source.
var _ catalog.Source = (*CatalogAPI)(nil)

// CatalogAPI exposes the /products and /categories REST surface as a
// catalog.Source. Filtering, sorting and pagination run server-side; the
// client just encodes the FilterOptions into query parameters.
type CatalogAPI struct {
	c *Client
}

// Catalog returns the catalog surface of the client.
func (c *Client) Catalog() *CatalogAPI {
	return &CatalogAPI{c: c}
}

// List fetches a filtered, sorted page of products.
func (a *CatalogAPI) List(ctx context.Context, opts catalog.FilterOptions) (*catalog.Result, error) {
	var res catalog.Result
	if err := a.c.get(ctx, "/products", filterQuery(opts), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Search fetches a page of products matching the free-text query.
func (a *CatalogAPI) Search(ctx context.Context, query string, opts catalog.FilterOptions) (*catalog.Result, error) {
	params := filterQuery(opts)
	params.Set("q", query)
	var res catalog.Result
	if err := a.c.get(ctx, "/products/search", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByID fetches a single product, mapping a 404 to catalog.ErrNotFound.
func (a *CatalogAPI) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	if err := a.c.get(ctx, "/products/"+id, nil, &p); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == 404 {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Featured fetches up to limit featured products.
func (a *CatalogAPI) Featured(ctx context.Context, limit int) ([]catalog.Product, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var products []catalog.Product
	if err := a.c.get(ctx, "/products/featured", params, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories fetches all product categories.
func (a *CatalogAPI) Categories(ctx context.Context) ([]catalog.Category, error) {
	var cats []catalog.Category
	if err := a.c.get(ctx, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Brands fetches the distinct brand list.
func (a *CatalogAPI) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	if err := a.c.get(ctx, "/products/brands", nil, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

// PriceRange fetches the price span, optionally scoped to one category.
func (a *CatalogAPI) PriceRange(ctx context.Context, category string) (*catalog.PriceRange, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	var pr catalog.PriceRange
	if err := a.c.get(ctx, "/products/price-range", params, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// filterQuery encodes FilterOptions into the backend's query parameters.
func filterQuery(opts catalog.FilterOptions) url.Values {
	params := url.Values{}
	for _, c := range opts.Categories {
		params.Add("category", c)
	}
	if opts.Subcategory != "" {
		params.Set("subcategory", opts.Subcategory)
	}
	for _, b := range opts.Brands {
		params.Add("brand", b)
	}
	if opts.PriceMin != nil {
		params.Set("minPrice", opts.PriceMin.String())
	}
	if opts.PriceMax != nil {
		params.Set("maxPrice", opts.PriceMax.String())
	}
	if opts.RatingFloor > 0 {
		params.Set("rating", strconv.FormatFloat(opts.RatingFloor, 'f', -1, 64))
	}
	if opts.InStock != nil {
		params.Set("inStock", strconv.FormatBool(*opts.InStock))
	}
	if opts.Featured != nil {
		params.Set("featured", strconv.FormatBool(*opts.Featured))
	}
	for _, t := range opts.Tags {
		params.Add("tags", t)
	}
	if opts.Sort != "" {
		params.Set("sortBy", string(opts.Sort))
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	return params
}
