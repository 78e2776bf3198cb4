package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopverse/storefront/internal/domain/catalog"
)

// memTokens is an in-memory TokenStore.
type memTokens struct {
	token string
}

func (t *memTokens) Token() string { return t.token }
func (t *memTokens) Clear()        { t.token = "" }

func newTestClient(t *testing.T, handler http.Handler, tokens TokenStore) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api", Tokens: tokens})
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"data":    data,
		"message": message,
	})
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "not a url at all ://"})
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeEnvelope(w, http.StatusOK, true, []catalog.Category{}, "")
	})

	c := newTestClient(t, handler, &memTokens{token: "sess-123"})
	_, err := c.Catalog().Categories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer sess-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var got http.Header
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeEnvelope(w, http.StatusOK, true, []string{}, "")
	})

	c := newTestClient(t, handler, &memTokens{})
	_, err := c.Catalog().Brands(context.Background())
	require.NoError(t, err)

	assert.Empty(t, got.Get("Authorization"))
}

func TestUnauthorizedClearsTokenAndReturnsAuthError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "token expired")
	})

	tokens := &memTokens{token: "stale"}
	c := newTestClient(t, handler, tokens)

	_, err := c.Cart().Items(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "token expired", authErr.Message)
	assert.Equal(t, "Please sign in to continue", authErr.UserMessage())
	assert.Empty(t, tokens.token, "rejected token is dropped")
}

func TestStatusErrorCarriesBackendMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnprocessableEntity, false, nil, "Invalid coupon code")
	})

	c := newTestClient(t, handler, nil)
	_, err := c.Cart().ApplyCoupon(context.Background(), "BOGUS")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, "Invalid coupon code", se.UserMessage())
}

func TestNonEnvelopeBodyTolerated(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	})

	c := newTestClient(t, handler, nil)
	_, err := c.Cart().Items(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Empty(t, se.Message)
}

func TestEnvelopeFailureWithOKStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, false, nil, "something went wrong")
	})

	c := newTestClient(t, handler, nil)
	_, err := c.Cart().Summary(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "something went wrong", se.Message)
}

func TestGetByIDMapsNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, false, nil, "product not found")
	})

	c := newTestClient(t, handler, nil)
	_, err := c.Catalog().GetByID(context.Background(), "missing")

	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestListEncodesFilters(t *testing.T) {
	var gotQuery map[string][]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeEnvelope(w, http.StatusOK, true, catalog.Result{Items: []catalog.Product{}}, "")
	})

	c := newTestClient(t, handler, nil)
	opts := catalog.DefaultFilters().Merge(
		catalog.WithCategories("electronics", "sports"),
		catalog.WithBrands("Aural"),
		catalog.WithPriceRange(decimal.RequireFromString("10"), decimal.RequireFromString("99.50")),
		catalog.WithRatingFloor(4),
		catalog.WithInStock(true),
		catalog.WithTags("sale"),
		catalog.WithSort(catalog.SortPriceHigh),
		catalog.WithPage(2),
		catalog.WithLimit(24),
	)
	_, err := c.Catalog().List(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"electronics", "sports"}, gotQuery["category"])
	assert.Equal(t, []string{"Aural"}, gotQuery["brand"])
	assert.Equal(t, []string{"10"}, gotQuery["minPrice"])
	assert.Equal(t, []string{"99.5"}, gotQuery["maxPrice"])
	assert.Equal(t, []string{"4"}, gotQuery["rating"])
	assert.Equal(t, []string{"true"}, gotQuery["inStock"])
	assert.Equal(t, []string{"sale"}, gotQuery["tags"])
	assert.Equal(t, []string{"price-high"}, gotQuery["sortBy"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"24"}, gotQuery["limit"])
}

func TestSearchSetsQueryParam(t *testing.T) {
	var gotPath, gotQ string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQ = r.URL.Query().Get("q")
		writeEnvelope(w, http.StatusOK, true, catalog.Result{}, "")
	})

	c := newTestClient(t, handler, nil)
	_, err := c.Catalog().Search(context.Background(), "headphones", catalog.DefaultFilters())
	require.NoError(t, err)

	assert.Equal(t, "/api/products/search", gotPath)
	assert.Equal(t, "headphones", gotQ)
}

func TestCartEndpoints(t *testing.T) {
	type call struct {
		method string
		path   string
		body   map[string]any
	}
	var calls []call

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{method: r.Method, path: r.URL.Path, body: body})
		writeEnvelope(w, http.StatusOK, true, nil, "")
	})

	c := newTestClient(t, handler, nil)
	ctx := context.Background()
	api := c.Cart()

	_, err := api.Add(ctx, "p1", 2, map[string]string{"size": "M"})
	require.NoError(t, err)
	_, err = api.UpdateQuantity(ctx, "line-9", 4)
	require.NoError(t, err)
	require.NoError(t, api.Remove(ctx, "line-9"))
	require.NoError(t, api.Clear(ctx))
	_, err = api.ApplyCoupon(ctx, "WELCOME10")
	require.NoError(t, err)
	require.NoError(t, api.RemoveCoupon(ctx))
	_, err = api.Validate(ctx)
	require.NoError(t, err)

	require.Len(t, calls, 7)
	assert.Equal(t, call{method: "POST", path: "/api/cart/items", body: map[string]any{
		"productId": "p1", "quantity": float64(2), "selectedVariants": map[string]any{"size": "M"},
	}}, calls[0])
	assert.Equal(t, call{method: "PUT", path: "/api/cart/items/line-9", body: map[string]any{
		"quantity": float64(4),
	}}, calls[1])
	assert.Equal(t, "DELETE", calls[2].method)
	assert.Equal(t, "/api/cart/items/line-9", calls[2].path)
	assert.Equal(t, "DELETE", calls[3].method)
	assert.Equal(t, "/api/cart", calls[3].path)
	assert.Equal(t, call{method: "POST", path: "/api/cart/coupon", body: map[string]any{
		"couponCode": "WELCOME10",
	}}, calls[4])
	assert.Equal(t, "DELETE", calls[5].method)
	assert.Equal(t, "/api/cart/coupon", calls[5].path)
	assert.Equal(t, "POST", calls[6].method)
	assert.Equal(t, "/api/cart/validate", calls[6].path)
}

func TestDecodesEnvelopeData(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, map[string]any{
			"itemCount": 3,
			"subtotal":  "70",
			"total":     "80.6",
		}, "")
	})

	c := newTestClient(t, handler, nil)
	sum, err := c.Cart().Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.ItemCount)
	assert.True(t, sum.Subtotal.Equal(decimal.RequireFromString("70")))
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("80.6")))
}
