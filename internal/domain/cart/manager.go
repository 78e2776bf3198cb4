package cart

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shopverse/storefront/internal/domain/catalog"
	"github.com/shopverse/storefront/internal/store"
	"github.com/shopverse/storefront/pkg/notify"
)

// localDeliveryEstimate is the placeholder delivery window used when the
// backend cannot provide one.
const localDeliveryEstimate = 7 * 24 * time.Hour

// State is the externally visible cart state. Consumers receive copies; the
// Manager owns the only mutable instance.
type State struct {
	Items         []Item
	Summary       *Summary
	AppliedCoupon *AppliedCoupon
}

// UserMessager is implemented by errors that carry a message fit for showing
// to the user (backend rejection messages, for example).
type UserMessager interface {
	UserMessage() string
}

// Manager owns the shopping cart. Every mutation is tried against the
// Upstream backend first; when that call fails the mutation is applied to
// the local mirror instead and the cart stays usable offline. The two
// representations are interchangeable to consumers.
//
// Mutations are serialized by an internal mutex so two racing operations
// apply in acquisition order instead of clobbering each other. Reloads are
// deduplicated: concurrent refresh requests share one backend round-trip.
//
// No operation returns an error to the caller. Failures are recovered by the
// local fallback or surfaced through the Notifier, and read-only failures
// are logged while prior state stays visible.
type Manager struct {
	mu       sync.Mutex
	upstream Upstream
	kv       KV // nil disables persistence
	notifier notify.Notifier
	lg       *zap.Logger

	state  *store.Store[State]
	flight singleflight.Group
	now    func() time.Time
}

// NewManager creates a Manager and rehydrates its state from the persisted
// snapshot when kv is non-nil. A nil notifier falls back to logging.
func NewManager(upstream Upstream, kv KV, notifier notify.Notifier, lg *zap.Logger) *Manager {
	if lg == nil {
		lg = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLog(lg)
	}
	m := &Manager{
		upstream: upstream,
		kv:       kv,
		notifier: notifier,
		lg:       lg,
		now:      time.Now,
	}
	m.state = store.New(m.rehydrate())
	return m
}

// rehydrate loads the persisted snapshot, dropping any line that violates
// the quantity invariant.
func (m *Manager) rehydrate() State {
	if m.kv == nil {
		return State{}
	}
	var snap Snapshot
	ok, err := m.kv.Get(SnapshotKey, &snap)
	if err != nil {
		m.lg.Warn("cart snapshot unreadable, starting empty", zap.Error(err))
		return State{}
	}
	if !ok {
		return State{}
	}

	items := make([]Item, 0, len(snap.Items))
	for _, it := range snap.Items {
		if it.Quantity < 1 {
			m.lg.Warn("dropping persisted cart line with invalid quantity",
				zap.String("item_id", it.ID), zap.Int("quantity", it.Quantity))
			continue
		}
		items = append(items, it)
	}
	return State{Items: items, AppliedCoupon: snap.AppliedCoupon}
}

// State returns a copy of the current cart state.
func (m *Manager) State() State {
	st := m.state.Get()
	st.Items = append([]Item(nil), st.Items...)
	return st
}

// Subscribe registers fn to run after every state change.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	return m.state.Subscribe(fn)
}

// AddItem puts quantity units of product into the cart, merging with an
// existing line that has the same product and variant selection. Quantities
// below one are treated as one.
func (m *Manager) AddItem(ctx context.Context, product catalog.Product, quantity int, variants map[string]string) {
	if quantity < 1 {
		quantity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.upstream.Add(ctx, product.ID, quantity, variants)
	if err == nil {
		m.reloadLocked(ctx)
		m.notifier.Success(product.Name + " added to cart")
		return
	}
	m.lg.Warn("cart backend unavailable, adding locally",
		zap.Error(err), zap.String("product_id", product.ID))

	st := m.state.Get()
	items := append([]Item(nil), st.Items...)

	merged := false
	for i := range items {
		if items[i].Product.ID == product.ID && maps.Equal(items[i].SelectedVariants, variants) {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		now := m.now()
		items = append(items, Item{
			ID:               localItemID(product.ID, now),
			Product:          product,
			Quantity:         quantity,
			SelectedVariants: variants,
			AddedAt:          now,
		})
	}

	m.applyLocalLocked(items, st.AppliedCoupon)
	m.notifier.Success(product.Name + " added to cart")
}

// RemoveItem deletes the line with the given id. Removing an id that is not
// in the cart is a no-op, so the operation is idempotent.
func (m *Manager) RemoveItem(ctx context.Context, itemID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(ctx, itemID)
}

func (m *Manager) removeLocked(ctx context.Context, itemID string) {
	err := m.upstream.Remove(ctx, itemID)
	if err == nil {
		m.reloadLocked(ctx)
		m.notifier.Success("Item removed from cart")
		return
	}
	m.lg.Warn("cart backend unavailable, removing locally",
		zap.Error(err), zap.String("item_id", itemID))

	st := m.state.Get()
	items := make([]Item, 0, len(st.Items))
	for _, it := range st.Items {
		if it.ID != itemID {
			items = append(items, it)
		}
	}

	m.applyLocalLocked(items, st.AppliedCoupon)
	m.notifier.Success("Item removed from cart")
}

// UpdateQuantity sets the line's quantity directly (no increment semantics).
// A quantity of zero or less removes the line instead: zero-quantity lines
// must not exist.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if quantity <= 0 {
		m.removeLocked(ctx, itemID)
		return
	}

	_, err := m.upstream.UpdateQuantity(ctx, itemID, quantity)
	if err == nil {
		m.reloadLocked(ctx)
		m.notifier.Success("Cart updated")
		return
	}
	m.lg.Warn("cart backend unavailable, updating quantity locally",
		zap.Error(err), zap.String("item_id", itemID))

	st := m.state.Get()
	items := append([]Item(nil), st.Items...)
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			break
		}
	}

	m.applyLocalLocked(items, st.AppliedCoupon)
	m.notifier.Success("Cart updated")
}

// ClearCart empties the cart and drops the summary and any applied coupon.
// The local state is cleared even when the backend call fails.
func (m *Manager) ClearCart(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.upstream.Clear(ctx); err != nil {
		m.lg.Warn("cart backend unavailable, clearing locally", zap.Error(err))
	}

	m.applyLocalLocked(nil, nil)
	m.notifier.Success("Cart cleared")
}

// LoadCart refreshes items and summary from the backend. When the backend is
// unreachable the summary is recomputed from the items already held locally
// (tax, shipping and discount zero; total equals subtotal) and prior items
// stay visible. Load failures are logged, never surfaced.
func (m *Manager) LoadCart(ctx context.Context) {
	res, err := m.fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.lg.Warn("cart backend unavailable, computing summary locally", zap.Error(err))
		st := m.state.Get()
		m.applyLocalLocked(st.Items, st.AppliedCoupon)
		return
	}

	st := m.state.Get()
	m.setStateLocked(State{
		Items:         res.items,
		Summary:       res.summary,
		AppliedCoupon: st.AppliedCoupon,
	})
}

// ApplyCoupon submits the code to the backend. There is no local fallback:
// discounts are server-validated, so a failure notifies the user and leaves
// state untouched.
func (m *Manager) ApplyCoupon(ctx context.Context, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.upstream.ApplyCoupon(ctx, code)
	if err != nil {
		m.lg.Warn("apply coupon failed", zap.Error(err), zap.String("code", code))
		m.notifier.Error(userMessage(err, "Invalid coupon code"))
		return
	}

	m.reloadLocked(ctx)
	st := m.state.Get()
	st.AppliedCoupon = &AppliedCoupon{Code: code, Discount: res.Discount}
	m.setStateLocked(st)

	msg := res.Message
	if msg == "" {
		msg = "Coupon applied successfully"
	}
	m.notifier.Success(msg)
}

// RemoveCoupon drops the applied coupon. Like ApplyCoupon it is remote-only.
func (m *Manager) RemoveCoupon(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.upstream.RemoveCoupon(ctx); err != nil {
		m.lg.Warn("remove coupon failed", zap.Error(err))
		m.notifier.Error(userMessage(err, "Failed to remove coupon"))
		return
	}

	m.reloadLocked(ctx)
	st := m.state.Get()
	st.AppliedCoupon = nil
	m.setStateLocked(st)
	m.notifier.Success("Coupon removed")
}

// ValidateCart asks the backend to check the cart against current stock and
// pricing. When the backend is unreachable the local snapshot has nothing to
// compare against, so the report is an approximation that flags no issues.
func (m *Manager) ValidateCart(ctx context.Context) *ValidationReport {
	res, err := m.upstream.Validate(ctx)
	if err != nil {
		m.lg.Warn("cart validation unavailable, assuming valid", zap.Error(err))
		return &ValidationReport{Valid: true}
	}
	return res
}

// GetTotalItems returns the summed quantity over all lines.
func (m *Manager) GetTotalItems() int {
	total := 0
	for _, it := range m.state.Get().Items {
		total += it.Quantity
	}
	return total
}

// GetTotalPrice returns the authoritative total when a summary is present,
// otherwise the exact sum of price x quantity over all lines.
func (m *Manager) GetTotalPrice() decimal.Decimal {
	st := m.state.Get()
	if st.Summary != nil {
		return st.Summary.Total
	}
	total := decimal.Zero
	for _, it := range st.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// GetItemByID returns the line with the given id.
func (m *Manager) GetItemByID(itemID string) (Item, bool) {
	for _, it := range m.state.Get().Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// HasProduct reports whether any line holds the given product.
func (m *Manager) HasProduct(productID string) bool {
	for _, it := range m.state.Get().Items {
		if it.Product.ID == productID {
			return true
		}
	}
	return false
}

// fetchResult pairs the two backend reads a refresh needs.
type fetchResult struct {
	items   []Item
	summary *Summary
}

// fetch loads items and summary from the backend in parallel. Concurrent
// callers share a single in-flight round-trip.
func (m *Manager) fetch(ctx context.Context) (*fetchResult, error) {
	v, err, _ := m.flight.Do("cart", func() (any, error) {
		g, gctx := errgroup.WithContext(ctx)
		var res fetchResult
		g.Go(func() error {
			items, err := m.upstream.Items(gctx)
			if err != nil {
				return errors.Wrap(err, "load items")
			}
			res.items = items
			return nil
		})
		g.Go(func() error {
			sum, err := m.upstream.Summary(gctx)
			if err != nil {
				return errors.Wrap(err, "load summary")
			}
			res.summary = sum
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*fetchResult), nil
}

// reloadLocked refreshes from the backend after a successful remote
// mutation. If the refresh itself fails the local summary is recomputed so
// the getters never diverge from the items.
func (m *Manager) reloadLocked(ctx context.Context) {
	res, err := m.fetch(ctx)
	st := m.state.Get()
	if err != nil {
		m.lg.Warn("cart reload failed, computing summary locally", zap.Error(err))
		m.applyLocalLocked(st.Items, st.AppliedCoupon)
		return
	}
	m.setStateLocked(State{
		Items:         res.items,
		Summary:       res.summary,
		AppliedCoupon: st.AppliedCoupon,
	})
}

// applyLocalLocked installs a locally mutated item set: the summary is
// recomputed from the items (so totals cannot drift from the lines) and an
// empty cart clears both summary and coupon.
func (m *Manager) applyLocalLocked(items []Item, coupon *AppliedCoupon) {
	st := State{Items: items, AppliedCoupon: coupon}
	if len(items) == 0 {
		st.Items = nil
		st.AppliedCoupon = nil
	} else {
		st.Summary = localSummary(items, m.now())
	}
	m.setStateLocked(st)
}

// setStateLocked publishes the state and persists the snapshot.
func (m *Manager) setStateLocked(st State) {
	m.state.Set(st)
	if m.kv == nil {
		return
	}
	snap := Snapshot{Items: st.Items, AppliedCoupon: st.AppliedCoupon}
	if err := m.kv.Put(SnapshotKey, snap); err != nil {
		m.lg.Warn("persisting cart snapshot failed", zap.Error(err))
	}
}

// localSummary approximates the backend summary from the item snapshots.
// Tax, shipping and discount need server knowledge and default to zero; this
// is a known precision gap versus server-computed summaries.
func localSummary(items []Item, now time.Time) *Summary {
	itemCount := 0
	subtotal := decimal.Zero
	for _, it := range items {
		itemCount += it.Quantity
		subtotal = subtotal.Add(it.Subtotal())
	}
	return &Summary{
		ItemCount:         itemCount,
		Subtotal:          subtotal,
		Total:             subtotal,
		EstimatedDelivery: now.Add(localDeliveryEstimate),
	}
}

// localItemID synthesizes a client-side line id for items created in
// fallback mode. Server-created lines keep their server-issued ids.
func localItemID(productID string, now time.Time) string {
	return fmt.Sprintf("%s-%d", productID, now.UnixMilli())
}

// userMessage extracts a user-facing message from err, falling back when the
// error carries none.
func userMessage(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
