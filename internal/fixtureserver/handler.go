package fixtureserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopverse/storefront/internal/domain/cart"
	"github.com/shopverse/storefront/internal/domain/catalog"
	"github.com/shopverse/storefront/internal/fixture"
)

// Handler serves the storefront REST surface over the fixture catalog and
// cart. Responses use the backend's uniform envelope.
type Handler struct {
	catalog catalog.Source
	cart    cart.Upstream
}

// NewHandler builds a Handler over the given fixture implementations.
func NewHandler(catalogSrc catalog.Source, cartSrc cart.Upstream) *Handler {
	return &Handler{catalog: catalogSrc, cart: cartSrc}
}

// Routes registers the API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/search", h.searchProducts)
	r.Get("/products/featured", h.featuredProducts)
	r.Get("/products/brands", h.brands)
	r.Get("/products/price-range", h.priceRange)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/categories", h.categories)

	r.Get("/cart", h.cartItems)
	r.Get("/cart/summary", h.cartSummary)
	r.Post("/cart/items", h.addCartItem)
	r.Put("/cart/items/{id}", h.updateCartItem)
	r.Delete("/cart/items/{id}", h.removeCartItem)
	r.Delete("/cart", h.clearCart)
	r.Post("/cart/coupon", h.applyCoupon)
	r.Delete("/cart/coupon", h.removeCoupon)
	r.Post("/cart/validate", h.validateCart)
}

// envelope is the uniform response shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.List(r.Context(), filtersFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	res, err := h.catalog.Search(r.Context(), query, filtersFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 8
	}
	products, err := h.catalog.Featured(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load featured products")
		return
	}
	writeData(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	writeData(w, http.StatusOK, cats)
}

func (h *Handler) brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load brands")
		return
	}
	writeData(w, http.StatusOK, brands)
}

func (h *Handler) priceRange(w http.ResponseWriter, r *http.Request) {
	pr, err := h.catalog.PriceRange(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load price range")
		return
	}
	writeData(w, http.StatusOK, pr)
}

func (h *Handler) cartItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.Items(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if items == nil {
		items = []cart.Item{}
	}
	writeData(w, http.StatusOK, items)
}

func (h *Handler) cartSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.cart.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart summary")
		return
	}
	writeData(w, http.StatusOK, sum)
}

type addItemRequest struct {
	ProductID        string            `json:"productId"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	item, err := h.cart.Add(r.Context(), req.ProductID, req.Quantity, req.SelectedVariants)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusBadRequest, "product does not exist")
		case errors.Is(err, fixture.ErrOutOfStock):
			writeError(w, http.StatusConflict, "product is out of stock")
		default:
			writeError(w, http.StatusInternalServerError, "failed to add item")
		}
		return
	}
	writeData(w, http.StatusCreated, item)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		if errors.Is(err, fixture.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "cart item not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, item)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	writeData(w, http.StatusOK, nil)
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode"`
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.cart.ApplyCoupon(r.Context(), req.CouponCode)
	if err != nil {
		if errors.Is(err, fixture.ErrInvalidCoupon) {
			writeError(w, http.StatusUnprocessableEntity, "Invalid coupon code")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to apply coupon")
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.RemoveCoupon(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove coupon")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (h *Handler) validateCart(w http.ResponseWriter, r *http.Request) {
	rep, err := h.cart.Validate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	writeData(w, http.StatusOK, rep)
}

// filtersFromQuery decodes the catalog query parameters. Unparseable values
// are dropped rather than rejected: filters come straight from user input.
func filtersFromQuery(r *http.Request) catalog.FilterOptions {
	q := r.URL.Query()
	opts := catalog.DefaultFilters()

	if cats, ok := q["category"]; ok {
		opts.Categories = cats
	}
	opts.Subcategory = q.Get("subcategory")
	if brands, ok := q["brand"]; ok {
		opts.Brands = brands
	}
	if v := q.Get("minPrice"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			opts.PriceMin = &d
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			opts.PriceMax = &d
		}
	}
	if v := q.Get("rating"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.RatingFloor = f
		}
	}
	if v := q.Get("inStock"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.InStock = &b
		}
	}
	if v := q.Get("featured"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.Featured = &b
		}
	}
	if tags, ok := q["tags"]; ok {
		opts.Tags = tags
	}
	if v := q.Get("sortBy"); v != "" {
		opts.Sort = catalog.Sort(v)
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		opts.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	return opts
}
