package provider

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// ContentProvider is the boundary to the content generation service. Catalog failures
// are recovered by the callers; quiz and recommendation failures surface as
// domain.ErrGeneration and domain.ErrRecommendation.
type ContentProvider interface {
	FetchCatalog(ctx context.Context) ([]domain.Product, error)
	FetchQuiz(ctx context.Context, quizContext string) (domain.Quiz, error)
	FetchRecommendations(ctx context.Context, answers domain.Answers, quizContext string, candidates []domain.Product) ([]string, error)
}

const (
	opFetchCatalog         = "provider.FetchCatalog"
	opFetchQuiz            = "provider.FetchQuiz"
	opFetchRecommendations = "provider.FetchRecommendations"
)

// maxRecommendations is how many products the provider is asked to pick at most
const maxRecommendations = 5

// ErrEmptyContext is returned when a quiz is requested without a search term or category
var ErrEmptyContext = errors.New("quiz context is empty")

// candidateIDs keeps only the ids present in candidates, preserving order
func candidateIDs(ids []string, candidates []domain.Product) []string {
	allowed := make(map[string]struct{}, len(candidates))
	for _, p := range candidates {
		allowed[p.ID] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
