package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"storefront/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrInvalidSortKey  = errors.New("invalid sort key")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// SortKey selects the ordering of the visible products
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNameAsc   SortKey = "name_asc"
)

// ParseSortKey validates a sort key received from a client
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNameAsc:
		return k, nil
	case "":
		return SortRelevance, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
	}
}

// PageSizes are the page sizes a shopper can pick from
var PageSizes = []int{12, 24, 36}

// DefaultPageSize is the page size of a fresh session
const DefaultPageSize = 12

// ValidPageSize reports whether n is one of PageSizes
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// TotalPages returns ceil(count/pageSize), and 1 for an empty result
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ValidPage reports whether page is within [1, totalPages]
func ValidPage(page, totalPages int) bool {
	return page >= 1 && page <= totalPages
}

// Query is everything that narrows, orders and slices the catalog
type Query struct {
	SearchTerm string
	Filters    domain.Filters
	Sort       SortKey
	PageSize   int
	Page       int
}

// CategoryCount is a category facet option with its product count
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// Facets are the sidebar options. They always describe the full catalog.
type Facets struct {
	Categories []CategoryCount `json:"categories"`
	Brands     []string        `json:"brands"`
}

// Result is the visible slice of the catalog for a query
type Result struct {
	Items      []domain.Product `json:"items"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
	Page       int              `json:"page"`
	Facets     Facets           `json:"facets"`
}

// Visible runs the full pipeline: filter, sort, paginate, and facet counts.
// The input slice is never reordered.
func Visible(products []domain.Product, q Query) Result {
	filtered := Filter(products, q.SearchTerm, q.Filters)
	sorted := Sort(filtered, q.Sort)

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(len(sorted), pageSize)
	page := q.Page
	if !ValidPage(page, totalPages) {
		page = 1
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(sorted))
	items := []domain.Product{}
	if start < end {
		items = sorted[start:end]
	}

	return Result{
		Items:      items,
		TotalCount: len(sorted),
		TotalPages: totalPages,
		Page:       page,
		Facets:     ComputeFacets(products),
	}
}

// Filter applies the text, category, rating and brand predicates together.
// The returned slice is freshly allocated.
func Filter(products []domain.Product, searchTerm string, f domain.Filters) []domain.Product {
	f = f.Normalize()
	term := strings.ToLower(searchTerm)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !MatchesSearch(p, term) {
			continue
		}
		if !f.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MatchesSearch is a case-insensitive substring match on name or brand.
// term must already be lower-cased; an empty term matches everything.
func MatchesSearch(p domain.Product, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Brand), term)
}

// Sort returns a stably sorted copy of products
func Sort(products []domain.Product, key SortKey) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)

	switch key {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.LessThan(out[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.GreaterThan(out[j].Price)
		})
	case SortNameAsc:
		// Collator keeps per-call buffers, so one is built per sort
		c := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Name, out[j].Name) < 0
		})
	}
	return out
}

// ComputeFacets counts categories and lists brands across the full catalog
func ComputeFacets(products []domain.Product) Facets {
	counts := make(map[domain.Category]int)
	brandSet := make(map[string]struct{})
	for _, p := range products {
		counts[p.Category]++
		brandSet[p.Brand] = struct{}{}
	}

	categories := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		categories = append(categories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	brands := make([]string, 0, len(brandSet))
	for b := range brandSet {
		brands = append(brands, b)
	}
	sort.Strings(brands)

	return Facets{Categories: categories, Brands: brands}
}
