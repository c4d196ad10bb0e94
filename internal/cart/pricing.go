package cart

import (
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Policy holds the shipping rules. Shipping is free only when the discounted subtotal
// is strictly greater than FreeShippingThreshold.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPolicy is R400 for free shipping and a R50 flat fee otherwise
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: decimal.NewFromInt(400),
		ShippingFee:           decimal.NewFromInt(50),
	}
}

// Summary is the order summary shown next to the cart
type Summary struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountRate          decimal.Decimal `json:"discountRate"`
	DiscountAmount        decimal.Decimal `json:"discountAmount"`
	SubtotalAfterDiscount decimal.Decimal `json:"subtotalAfterDiscount"`
	Shipping              decimal.Decimal `json:"shipping"`
	Total                 decimal.Decimal `json:"total"`
	FreeShipping          bool            `json:"freeShipping"`
}

// Price derives the summary from the items; nothing is cached between calls
func Price(items []domain.CartItem, discountRate decimal.Decimal, policy Policy) Summary {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discountAmount := subtotal.Mul(discountRate)
	afterDiscount := subtotal.Sub(discountAmount)

	shipping := policy.ShippingFee
	free := afterDiscount.GreaterThan(policy.FreeShippingThreshold)
	if free {
		shipping = decimal.Zero
	}

	return Summary{
		Subtotal:              subtotal,
		DiscountRate:          discountRate,
		DiscountAmount:        discountAmount,
		SubtotalAfterDiscount: afterDiscount,
		Shipping:              shipping,
		Total:                 afterDiscount.Add(shipping),
		FreeShipping:          free,
	}
}
