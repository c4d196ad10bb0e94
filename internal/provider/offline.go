package provider

import (
	"context"
	"fmt"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// BuiltinProducts is the fixed catalog served when no provider is configured or the
// catalog fetch fails
func BuiltinProducts() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Solgar Magnesium Citrate", Brand: "Solgar", Category: domain.CategoryHealth, Price: decimal.RequireFromString("208.00"), ImageURL: "https://picsum.photos/seed/mag1/400/400", Description: "Highly absorbable magnesium for muscle and nerve function.", Rating: 5, ReviewCount: 12, Size: "60s", Tags: []string{"New"}},
		{ID: "2", Name: "Yenn Magnesium Spray with MSM", Brand: "Yenn", Category: domain.CategoryHealth, Price: decimal.RequireFromString("149.00"), ImageURL: "https://picsum.photos/seed/mag2/400/400", Description: "Topical magnesium spray for targeted relief and relaxation.", Rating: 4, ReviewCount: 10, Size: "100ml", Tags: []string{}},
		{ID: "3", Name: "Essentially Young Magnesium Bath Flakes", Brand: "Essentially Young", Category: domain.CategoryBodyBeauty, Price: decimal.RequireFromString("185.00"), ImageURL: "https://picsum.photos/seed/mag3/400/400", Description: "Pure magnesium chloride flakes for a restorative and relaxing bath.", Rating: 5, ReviewCount: 8, Size: "1kg", Tags: []string{}},
		{ID: "4", Name: "Organic Baby Shampoo", Brand: "Earth Mama", Category: domain.CategoryBabyKids, Price: decimal.RequireFromString("125.50"), ImageURL: "https://picsum.photos/seed/baby1/400/400", Description: "Gentle, tear-free organic shampoo for babies.", Rating: 5, ReviewCount: 34, Size: "250ml", Tags: []string{"Eco-Friendly"}},
		{ID: "5", Name: "Reusable Beeswax Food Wraps", Brand: "EcoWrap", Category: domain.CategoryHomeLifestyle, Price: decimal.RequireFromString("210.00"), ImageURL: "https://picsum.photos/seed/home1/400/400", Description: "A sustainable alternative to plastic wrap for food storage.", Rating: 4, ReviewCount: 55, Size: "3 Pack", Tags: []string{"Sustainable"}},
		{ID: "6", Name: "Almond Flour", Brand: "Goodness Grains", Category: domain.CategoryFood, Price: decimal.RequireFromString("95.00"), ImageURL: "https://picsum.photos/seed/food1/400/400", Description: "Gluten-free, low-carb flour perfect for baking.", Rating: 5, ReviewCount: 102, Size: "500g", Tags: []string{"Bestseller"}},
		{ID: "7", Name: "All Natural Magnesium Body Butter", Brand: "The Apothecary", Category: domain.CategoryBodyBeauty, Price: decimal.RequireFromString("154.95"), ImageURL: "https://picsum.photos/seed/mag4/400/400", Description: "A rich and creamy body butter infused with magnesium for skin health.", Rating: 4, ReviewCount: 23, Size: "100g", Tags: []string{}},
	}
}

const offlineRecommendationCount = 3

// OfflineProvider serves deterministic content without any network access
type OfflineProvider struct{}

// NewOfflineProvider returns the provider used when no API key is configured
func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (OfflineProvider) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	return BuiltinProducts(), nil
}

func (OfflineProvider) FetchQuiz(ctx context.Context, quizContext string) (domain.Quiz, error) {
	if quizContext == "" {
		return domain.Quiz{}, domain.NewProviderError(opFetchQuiz, domain.ErrGeneration, ErrEmptyContext)
	}
	return domain.Quiz{
		Title: fmt.Sprintf("Find your perfect %s product", quizContext),
		Questions: []domain.QuizQuestion{{
			Question: "What is your main goal?",
			Options:  []string{"Option A", "Option B", "Option C"},
		}},
	}, nil
}

// FetchRecommendations picks the first three candidates
func (OfflineProvider) FetchRecommendations(ctx context.Context, answers domain.Answers, quizContext string, candidates []domain.Product) ([]string, error) {
	n := min(len(candidates), offlineRecommendationCount)
	ids := make([]string, 0, n)
	for _, p := range candidates[:n] {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
