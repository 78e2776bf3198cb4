package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item. Products are fetched from the backend
// and never mutated locally; every field reflects server state at fetch time.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	// OriginalPrice, when set, is the pre-discount price and is >= Price.
	OriginalPrice  *decimal.Decimal  `json:"originalPrice,omitempty"`
	Category       string            `json:"category"`
	Subcategory    string            `json:"subcategory,omitempty"`
	Brand          string            `json:"brand"`
	Rating         float64           `json:"rating"`
	ReviewCount    int               `json:"reviewCount"`
	InStock        bool              `json:"inStock"`
	StockQuantity  int               `json:"stockQuantity"`
	Featured       bool              `json:"featured"`
	Tags           []string          `json:"tags,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Category describes a product grouping exposed by the backend.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PriceRange is the min/max price span of a product set.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Source provides read access to the product catalog. Two implementations
// exist: the remote REST backend and an in-memory fixture used when no
// backend is available.
type Source interface {
	List(ctx context.Context, opts FilterOptions) (*Result, error)
	Search(ctx context.Context, query string, opts FilterOptions) (*Result, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Brands(ctx context.Context) ([]string, error)
	PriceRange(ctx context.Context, category string) (*PriceRange, error)
}
