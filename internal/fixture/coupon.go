package fixture

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCoupon is returned for unknown or ineligible coupon codes.
var ErrInvalidCoupon = errors.New("invalid coupon code")

const couponFPR = 0.001

// couponRule describes the discount a known code grants.
type couponRule struct {
	percent  decimal.Decimal // percentage of the subtotal, zero if fixed
	fixed    decimal.Decimal // flat amount, zero if percentage
	minItems int
	message  string
}

// namedRules are the codes with bespoke behaviour. Codes present in the
// embedded list but absent here fall back to defaultRule.
var namedRules = map[string]couponRule{
	"FIFTYOFF": {percent: decimal.NewFromInt(50), message: "50% off your order"},
	"HAPPYHRS": {percent: decimal.NewFromInt(18), message: "Happy Hours: 18% off"},
	"GNULINUX": {percent: decimal.NewFromInt(15), message: "Open source discount: 15% off"},
	"OVER9000": {fixed: decimal.NewFromInt(9), message: "$9 off your order"},
	"BRANDFAN": {percent: decimal.NewFromInt(20), minItems: 3, message: "20% off three or more items"},
}

var defaultRule = couponRule{
	percent: decimal.NewFromInt(10),
	message: "Valid promo code: 10% off",
}

// coupons validates codes against the embedded accepted list. A bloom filter
// screens candidates first so the common case, a mistyped code, is rejected
// without touching the exact set.
type coupons struct {
	filter *bloom.BloomFilter
	codes  map[string]bool
}

func newCoupons() *coupons {
	lines := strings.Fields(couponCodes)
	filter := bloom.NewWithEstimates(uint(len(lines)), couponFPR)
	codes := make(map[string]bool, len(lines))
	for _, code := range lines {
		code = strings.ToUpper(code)
		filter.AddString(code)
		codes[code] = true
	}
	return &coupons{filter: filter, codes: codes}
}

// rule resolves a code to its discount rule, or ErrInvalidCoupon.
func (c *coupons) rule(code string, itemCount int) (couponRule, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !c.filter.TestString(code) {
		return couponRule{}, ErrInvalidCoupon
	}
	if !c.codes[code] {
		// Bloom false positive.
		return couponRule{}, ErrInvalidCoupon
	}

	rule, ok := namedRules[code]
	if !ok {
		rule = defaultRule
	}
	if itemCount < rule.minItems {
		return couponRule{}, ErrInvalidCoupon
	}
	return rule, nil
}

// discount computes the rule's discount for a subtotal, capped at the
// subtotal and rounded to cents.
func (r couponRule) discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch {
	case !r.percent.IsZero():
		d = subtotal.Mul(r.percent).Div(decimal.NewFromInt(100))
	default:
		d = r.fixed
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d.Round(2)
}
