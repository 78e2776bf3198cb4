package fixture

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopverse/storefront/internal/domain/cart"
)

// Sentinel errors the fixture cart shares with the real backend's behaviour.
var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrOutOfStock   = errors.New("product out of stock")
)

// Pricing constants applied by the fixture when computing summaries.
var (
	taxRate           = decimal.RequireFromString("0.08")
	shippingFlat      = decimal.RequireFromString("4.99")
	freeShippingAbove = decimal.NewFromInt(50)
)

const deliveryWindow = 5 * 24 * time.Hour

var _ cart.Upstream = (*Cart)(nil)

// Cart is an in-memory cart.Upstream. It mimics the real backend: lines are
// merged per (product, variants), summaries carry tax and shipping, coupons
// are validated against the embedded code list, and validation compares the
// cart against current catalog state.
type Cart struct {
	mu      sync.Mutex
	catalog *Catalog
	coupons *coupons
	items   []cart.Item
	applied *appliedCoupon
	now     func() time.Time
}

type appliedCoupon struct {
	code string
	rule couponRule
}

// NewCart returns an empty fixture cart backed by the given catalog.
func NewCart(c *Catalog) *Cart {
	return &Cart{
		catalog: c,
		coupons: newCoupons(),
		now:     time.Now,
	}
}

// Items returns the current lines.
func (c *Cart) Items(_ context.Context) ([]cart.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cart.Item(nil), c.items...), nil
}

// Summary computes the authoritative cost breakdown: 8% tax, flat shipping
// waived above the free-shipping threshold, coupon discount applied to the
// subtotal.
func (c *Cart) Summary(_ context.Context) (*cart.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked(), nil
}

func (c *Cart) summaryLocked() *cart.Summary {
	itemCount := 0
	subtotal := decimal.Zero
	for _, it := range c.items {
		itemCount += it.Quantity
		subtotal = subtotal.Add(it.Subtotal())
	}

	discount := decimal.Zero
	if c.applied != nil {
		discount = c.applied.rule.discount(subtotal)
	}

	shipping := decimal.Zero
	if itemCount > 0 && subtotal.LessThan(freeShippingAbove) {
		shipping = shippingFlat
	}

	tax := subtotal.Sub(discount).Mul(taxRate).Round(2)
	total := subtotal.Sub(discount).Add(tax).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &cart.Summary{
		ItemCount:         itemCount,
		Subtotal:          subtotal,
		Tax:               tax,
		Shipping:          shipping,
		Discount:          discount,
		Total:             total,
		EstimatedDelivery: c.now().Add(deliveryWindow),
	}
}

// Add creates or increments the line for the product, checking catalog
// existence and stock like the real backend does.
func (c *Cart) Add(ctx context.Context, productID string, quantity int, variants map[string]string) (*cart.Item, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}
	p, err := c.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock {
		return nil, ErrOutOfStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID && maps.Equal(c.items[i].SelectedVariants, variants) {
			c.items[i].Quantity += quantity
			it := c.items[i]
			return &it, nil
		}
	}

	it := cart.Item{
		ID:               uuid.New().String(),
		Product:          *p,
		Quantity:         quantity,
		SelectedVariants: variants,
		AddedAt:          c.now(),
	}
	c.items = append(c.items, it)
	return &it, nil
}

// UpdateQuantity sets a line's quantity directly.
func (c *Cart) UpdateQuantity(_ context.Context, itemID string, quantity int) (*cart.Item, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].Quantity = quantity
			it := c.items[i]
			return &it, nil
		}
	}
	return nil, ErrItemNotFound
}

// Remove deletes a line. Removing an unknown id succeeds: the end state is
// the same either way.
func (c *Cart) Remove(_ context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.items[:0]
	for _, it := range c.items {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	c.items = out
	if len(c.items) == 0 {
		c.applied = nil
	}
	return nil
}

// Clear empties the cart and drops any coupon.
func (c *Cart) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.applied = nil
	return nil
}

// ApplyCoupon validates the code and stores it for summary computation.
func (c *Cart) ApplyCoupon(_ context.Context, code string) (*cart.CouponResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemCount := 0
	subtotal := decimal.Zero
	for _, it := range c.items {
		itemCount += it.Quantity
		subtotal = subtotal.Add(it.Subtotal())
	}

	rule, err := c.coupons.rule(code, itemCount)
	if err != nil {
		return nil, err
	}

	c.applied = &appliedCoupon{code: code, rule: rule}
	return &cart.CouponResult{
		CouponID: uuid.New().String(),
		Discount: rule.discount(subtotal),
		Message:  rule.message,
	}, nil
}

// RemoveCoupon drops the applied coupon.
func (c *Cart) RemoveCoupon(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = nil
	return nil
}

// Validate compares every line's product snapshot against current catalog
// state and reports stock and price drift.
func (c *Cart) Validate(ctx context.Context) (*cart.ValidationReport, error) {
	c.mu.Lock()
	items := append([]cart.Item(nil), c.items...)
	c.mu.Unlock()

	rep := &cart.ValidationReport{Valid: true}
	for _, it := range items {
		current, err := c.catalog.GetByID(ctx, it.Product.ID)
		if err != nil {
			rep.Valid = false
			rep.Issues = append(rep.Issues, cart.ValidationIssue{
				ItemID:      it.ID,
				ProductName: it.Product.Name,
				Issue:       cart.IssueUnavailable,
			})
			continue
		}
		if !current.InStock || current.StockQuantity < it.Quantity {
			avail := current.StockQuantity
			rep.Valid = false
			rep.Issues = append(rep.Issues, cart.ValidationIssue{
				ItemID:            it.ID,
				ProductName:       it.Product.Name,
				Issue:             cart.IssueOutOfStock,
				AvailableQuantity: &avail,
			})
			continue
		}
		if !current.Price.Equal(it.Product.Price) {
			price := current.Price
			rep.Valid = false
			rep.Issues = append(rep.Issues, cart.ValidationIssue{
				ItemID:       it.ID,
				ProductName:  it.Product.Name,
				Issue:        cart.IssuePriceChanged,
				CurrentPrice: &price,
			})
		}
	}
	return rep, nil
}
