package domain

import (
	"github.com/shopspring/decimal"
)

// Category is one of the fixed storefront departments
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryHealth        Category = "Health"
	CategoryBodyBeauty    Category = "Body & Beauty"
	CategoryHomeLifestyle Category = "Home & Lifestyle"
	CategoryBabyKids      Category = "Baby & Kids"

	// CategoryAll is the filter sentinel meaning "no category filter". It is never a
	// valid product category.
	CategoryAll Category = "All"
)

// Categories lists every valid product category
var Categories = []Category{
	CategoryBodyBeauty,
	CategoryBabyKids,
	CategoryHomeLifestyle,
	CategoryHealth,
	CategoryFood,
}

// Valid reports whether c is a product category (the "All" sentinel is not)
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a product in the catalog. Products are immutable once fetched.
type Product struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Brand       string          `json:"brand" validate:"required"`
	Category    Category        `json:"category" validate:"category"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description"`
	Rating      int             `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int             `json:"reviewCount" validate:"gte=0"`
	Size        string          `json:"size"`
	Tags        []string        `json:"tags"`
}

// CartItem pairs a product with a positive quantity
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price * quantity for the item
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
