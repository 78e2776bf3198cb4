package apiclient

import (
	"context"

	"github.com/shopverse/storefront/internal/domain/cart"
)

// Compile-time check: the client serves as the cart's remote backend.
var _ cart.Upstream = (*CartAPI)(nil)

// CartAPI exposes the /cart REST surface as a cart.Upstream.
type CartAPI struct {
	c *Client
}

// Cart returns the cart surface of the client.
func (c *Client) Cart() *CartAPI {
	return &CartAPI{c: c}
}

// Items fetches the current cart lines.
func (a *CartAPI) Items(ctx context.Context) ([]cart.Item, error) {
	var items []cart.Item
	if err := a.c.get(ctx, "/cart", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Summary fetches the authoritative cost breakdown.
func (a *CartAPI) Summary(ctx context.Context) (*cart.Summary, error) {
	var sum cart.Summary
	if err := a.c.get(ctx, "/cart/summary", nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

type addItemRequest struct {
	ProductID        string            `json:"productId"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
}

// Add creates or increments a cart line for the product.
func (a *CartAPI) Add(ctx context.Context, productID string, quantity int, variants map[string]string) (*cart.Item, error) {
	req := addItemRequest{ProductID: productID, Quantity: quantity, SelectedVariants: variants}
	var item cart.Item
	if err := a.c.post(ctx, "/cart/items", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity sets a line's quantity.
func (a *CartAPI) UpdateQuantity(ctx context.Context, itemID string, quantity int) (*cart.Item, error) {
	var item cart.Item
	if err := a.c.put(ctx, "/cart/items/"+itemID, updateQuantityRequest{Quantity: quantity}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes a cart line.
func (a *CartAPI) Remove(ctx context.Context, itemID string) error {
	return a.c.del(ctx, "/cart/items/"+itemID)
}

// Clear empties the cart.
func (a *CartAPI) Clear(ctx context.Context) error {
	return a.c.del(ctx, "/cart")
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode"`
}

// ApplyCoupon submits a coupon code for server-side validation.
func (a *CartAPI) ApplyCoupon(ctx context.Context, code string) (*cart.CouponResult, error) {
	var res cart.CouponResult
	if err := a.c.post(ctx, "/cart/coupon", applyCouponRequest{CouponCode: code}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RemoveCoupon drops the applied coupon.
func (a *CartAPI) RemoveCoupon(ctx context.Context) error {
	return a.c.del(ctx, "/cart/coupon")
}

// Validate runs the pre-checkout cart check.
func (a *CartAPI) Validate(ctx context.Context) (*cart.ValidationReport, error) {
	var rep cart.ValidationReport
	if err := a.c.post(ctx, "/cart/validate", nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
