// Package fixture provides in-memory implementations of the catalog source
// and cart backend over an embedded dataset. They stand in for the real
// backend during development and in tests, and behave like it: server-side
// filtering, tax and shipping in summaries, coupon validation.
package fixture

import _ "embed"

// productsGz is the embedded product dataset, gzip-compressed JSON.
//
//go:embed data/products.json.gz
var productsGz []byte

// couponCodes is the embedded list of accepted coupon codes, one per line.
//
//go:embed data/coupons.txt
var couponCodes string
