package domain

import "slices"

// Filters is the sidebar filter state. It is a value object: every helper returns a new
// Filters and never modifies the receiver's brand slice.
type Filters struct {
	Category Category `json:"category"`
	Rating   int      `json:"rating" validate:"gte=0,lte=5"`
	Brand    []string `json:"brand"`
}

// DefaultFilters returns the filter state of a fresh shopping context
func DefaultFilters() Filters {
	return Filters{Category: CategoryAll, Rating: 0, Brand: []string{}}
}

// WithCategory selects a category and clears the brand and rating selections
func (f Filters) WithCategory(c Category) Filters {
	return Filters{Category: c, Rating: 0, Brand: []string{}}
}

// ToggleRating sets the minimum rating, or clears it when r is already selected
func (f Filters) ToggleRating(r int) Filters {
	next := f.clone()
	if f.Rating == r {
		next.Rating = 0
	} else {
		next.Rating = r
	}
	return next
}

// ToggleBrand adds b to the brand selection, or removes it when already selected
func (f Filters) ToggleBrand(b string) Filters {
	next := f.clone()
	if i := slices.Index(next.Brand, b); i >= 0 {
		next.Brand = slices.Delete(next.Brand, i, i+1)
	} else {
		next.Brand = append(next.Brand, b)
	}
	return next
}

// Cleared drops every filter
func (f Filters) Cleared() Filters {
	return DefaultFilters()
}

// ActiveCount is the number of chips shown under "Currently Shopping By"
func (f Filters) ActiveCount() int {
	n := len(f.Brand)
	if f.Category != CategoryAll {
		n++
	}
	if f.Rating > 0 {
		n++
	}
	return n
}

// Normalize fills zero values so a decoded Filters behaves like DefaultFilters
func (f Filters) Normalize() Filters {
	next := f.clone()
	if next.Category == "" {
		next.Category = CategoryAll
	}
	return next
}

// Matches reports whether p passes the category, rating and brand predicates
func (f Filters) Matches(p Product) bool {
	if f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	if p.Rating < f.Rating {
		return false
	}
	return len(f.Brand) == 0 || slices.Contains(f.Brand, p.Brand)
}

func (f Filters) clone() Filters {
	brand := make([]string, len(f.Brand))
	copy(brand, f.Brand)
	return Filters{Category: f.Category, Rating: f.Rating, Brand: brand}
}
