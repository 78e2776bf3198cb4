package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/shopverse/storefront/internal/domain/catalog"
)

var _ catalog.Source = (*Catalog)(nil)

// Catalog is an in-memory catalog.Source over a fixed product set. All query
// behaviour goes through catalog.Apply, so it filters, sorts and paginates
// exactly like the engine expects a backend to.
type Catalog struct {
	products []catalog.Product
}

// NewCatalog returns a Catalog over the embedded dataset.
func NewCatalog() (*Catalog, error) {
	products, err := loadProducts(productsGz)
	if err != nil {
		return nil, errors.Wrap(err, "load embedded products")
	}
	return &Catalog{products: products}, nil
}

// NewCatalogWith returns a Catalog over the given products. Used by tests
// that need a controlled dataset.
func NewCatalogWith(products []catalog.Product) *Catalog {
	return &Catalog{products: append([]catalog.Product(nil), products...)}
}

// loadProducts decompresses and decodes a gzipped product JSON array.
func loadProducts(gz []byte) ([]catalog.Product, error) {
	r, err := pgzip.NewReader(bytes.NewReader(gz))
	if err != nil {
		return nil, errors.Wrap(err, "open gzip reader")
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// Products returns the full dataset in insertion order.
func (c *Catalog) Products() []catalog.Product {
	return append([]catalog.Product(nil), c.products...)
}

// List applies the filter pipeline over the full dataset.
func (c *Catalog) List(_ context.Context, opts catalog.FilterOptions) (*catalog.Result, error) {
	return catalog.Apply(c.products, opts), nil
}

// Search applies the filter pipeline with the free-text query set.
func (c *Catalog) Search(_ context.Context, query string, opts catalog.FilterOptions) (*catalog.Result, error) {
	return catalog.Apply(c.products, opts.Merge(catalog.WithQuery(query))), nil
}

// GetByID returns the product with the given id.
func (c *Catalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	for i := range c.products {
		if c.products[i].ID == id {
			p := c.products[i]
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

// Featured returns up to limit featured products in dataset order.
func (c *Catalog) Featured(_ context.Context, limit int) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range c.products {
		if !p.Featured {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Categories derives the category list from the dataset.
func (c *Catalog) Categories(_ context.Context) ([]catalog.Category, error) {
	seen := make(map[string]bool)
	var out []catalog.Category
	for _, p := range c.products {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, catalog.Category{
			ID:   p.Category,
			Name: p.Category,
			Slug: p.Category,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// Brands derives the sorted distinct brand list from the dataset.
func (c *Catalog) Brands(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if !seen[p.Brand] {
			seen[p.Brand] = true
			out = append(out, p.Brand)
		}
	}
	sort.Strings(out)
	return out, nil
}

// PriceRange computes the min/max price, optionally scoped to one category.
func (c *Catalog) PriceRange(_ context.Context, category string) (*catalog.PriceRange, error) {
	var pr *catalog.PriceRange
	for _, p := range c.products {
		if category != "" && p.Category != category {
			continue
		}
		if pr == nil {
			pr = &catalog.PriceRange{Min: p.Price, Max: p.Price}
			continue
		}
		if p.Price.LessThan(pr.Min) {
			pr.Min = p.Price
		}
		if p.Price.GreaterThan(pr.Max) {
			pr.Max = p.Price
		}
	}
	if pr == nil {
		pr = &catalog.PriceRange{Min: decimal.Zero, Max: decimal.Zero}
	}
	return pr, nil
}
