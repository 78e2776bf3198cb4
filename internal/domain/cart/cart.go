package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopverse/storefront/internal/domain/catalog"
)

// Item is a line in the shopping cart. The embedded Product is a snapshot
// taken at add time, so local price math keeps working when the backend is
// unreachable. Quantity is always >= 1: an item whose quantity would drop to
// zero is removed, never stored.
type Item struct {
	ID               string            `json:"id"`
	Product          catalog.Product   `json:"product"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
	AddedAt          time.Time         `json:"addedAt"`
}

// Subtotal returns price x quantity for this line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Summary is the cost breakdown for the current cart. When it comes from the
// backend it is authoritative; when computed locally in fallback mode the
// tax, shipping and discount are zero and Total equals Subtotal.
type Summary struct {
	ItemCount         int             `json:"itemCount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Tax               decimal.Decimal `json:"tax"`
	Shipping          decimal.Decimal `json:"shipping"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}

// AppliedCoupon records a server-accepted coupon and its discount.
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// CouponResult is the backend's response to applying a coupon.
type CouponResult struct {
	CouponID string          `json:"couponId"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// IssueKind classifies a pre-checkout validation problem.
type IssueKind string

const (
	IssueOutOfStock   IssueKind = "out_of_stock"
	IssuePriceChanged IssueKind = "price_changed"
	IssueUnavailable  IssueKind = "unavailable"
)

// ValidationIssue describes one problem found while validating the cart
// against current catalog state.
type ValidationIssue struct {
	ItemID            string           `json:"itemId"`
	ProductName       string           `json:"productName"`
	Issue             IssueKind        `json:"issue"`
	CurrentPrice      *decimal.Decimal `json:"currentPrice,omitempty"`
	AvailableQuantity *int             `json:"availableQuantity,omitempty"`
}

// ValidationReport is the result of a pre-checkout cart validation.
type ValidationReport struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
}

// Upstream is the remote cart backend. The Manager calls it first for every
// operation and falls back to its local mirror when a call fails.
type Upstream interface {
	Items(ctx context.Context) ([]Item, error)
	Summary(ctx context.Context) (*Summary, error)
	Add(ctx context.Context, productID string, quantity int, variants map[string]string) (*Item, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity int) (*Item, error)
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
	ApplyCoupon(ctx context.Context, code string) (*CouponResult, error)
	RemoveCoupon(ctx context.Context) error
	Validate(ctx context.Context) (*ValidationReport, error)
}

// Snapshot is the persisted cart state: what survives a restart when the
// backend is unreachable.
type Snapshot struct {
	Items         []Item         `json:"items"`
	AppliedCoupon *AppliedCoupon `json:"appliedCoupon,omitempty"`
}

// KV is the minimal key-value substrate the cart needs for persistence.
// *localstore.Store satisfies it.
type KV interface {
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
}

// SnapshotKey is the storage key the cart snapshot is kept under.
const SnapshotKey = "cart"
