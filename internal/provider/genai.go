package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

const catalogPrompt = "Generate a JSON array of 30 unique products for an online store selling natural and organic products. " +
	"Categories must be 'Body & Beauty', 'Baby & Kids', 'Home & Lifestyle', 'Health', or 'Food'. " +
	"Ensure variety in brands, realistic pricing, ratings, and descriptions. " +
	"Also include relevant tags like 'Bestseller', 'New', 'Eco-Friendly', 'Organic', 'Vegan' where appropriate. " +
	"Some products can have an empty array for tags."

// generator sends one prompt and returns the raw JSON text of the reply
type generator interface {
	generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

type modelsGenerator struct {
	client *genai.Client
	model  string
}

func (g *modelsGenerator) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenAIProvider generates catalog, quiz and recommendations with the Gemini API.
// Every response is decoded against a JSON schema and validated before it is returned.
type GenAIProvider struct {
	gen    generator
	logger *zap.Logger
}

// NewGenAIProvider creates a provider backed by the Gemini API
func NewGenAIProvider(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIProvider{
		gen:    &modelsGenerator{client: client, model: model},
		logger: logger,
	}, nil
}

func (p *GenAIProvider) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	text, err := p.gen.generate(ctx, catalogPrompt, productListSchema())
	if err != nil {
		return nil, domain.NewProviderError(opFetchCatalog, domain.ErrFetch, err)
	}

	var products []domain.Product
	if err := json.Unmarshal([]byte(text), &products); err != nil {
		return nil, domain.NewProviderError(opFetchCatalog, domain.ErrFetch, invalidData(err))
	}
	if len(products) > domain.MaxCatalogSize {
		p.logger.Warn("Generated catalog truncated",
			zap.Int("received", len(products)),
			zap.Int("kept", domain.MaxCatalogSize),
		)
		products = products[:domain.MaxCatalogSize]
	}

	// Seed placeholder images by product so cards do not share one picture
	for i := range products {
		seed := products[i].ID
		if seed == "" {
			seed = fmt.Sprint(i)
		}
		products[i].ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/400/400", seed)
		if products[i].Tags == nil {
			products[i].Tags = []string{}
		}
	}

	if err := domain.ValidateCatalog(products); err != nil {
		return nil, domain.NewProviderError(opFetchCatalog, domain.ErrFetch, invalidData(err))
	}
	return products, nil
}

func (p *GenAIProvider) FetchQuiz(ctx context.Context, quizContext string) (domain.Quiz, error) {
	if quizContext == "" {
		return domain.Quiz{}, domain.NewProviderError(opFetchQuiz, domain.ErrGeneration, ErrEmptyContext)
	}

	prompt := fmt.Sprintf("You are an expert shopping assistant for an e-commerce store focused on natural and organic products. "+
		"A user is looking at products related to '%s'. "+
		"Generate a short, engaging quiz with 3 multiple-choice questions to help them find the perfect product. "+
		"The goal is to understand their specific needs, preferences, or lifestyle related to this topic. "+
		"Return the response as a JSON object. Do not include any text outside of the JSON object.", quizContext)

	text, err := p.gen.generate(ctx, prompt, quizSchema())
	if err != nil {
		return domain.Quiz{}, domain.NewProviderError(opFetchQuiz, domain.ErrGeneration, err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(text), &quiz); err != nil {
		return domain.Quiz{}, domain.NewProviderError(opFetchQuiz, domain.ErrGeneration, invalidData(err))
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, domain.NewProviderError(opFetchQuiz, domain.ErrGeneration, invalidData(err))
	}
	return quiz, nil
}

type candidateSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (p *GenAIProvider) FetchRecommendations(ctx context.Context, answers domain.Answers, quizContext string, candidates []domain.Product) ([]string, error) {
	summaries := make([]candidateSummary, len(candidates))
	for i, c := range candidates {
		summaries[i] = candidateSummary{ID: c.ID, Name: c.Name, Description: c.Description, Tags: c.Tags}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, domain.NewProviderError(opFetchRecommendations, domain.ErrRecommendation, err)
	}
	productsJSON, err := json.Marshal(summaries)
	if err != nil {
		return nil, domain.NewProviderError(opFetchRecommendations, domain.ErrRecommendation, err)
	}

	prompt := fmt.Sprintf("You are an expert shopping assistant. A user has completed a quiz about products related to '%s'. "+
		"Their answers are: %s. "+
		"Based *only* on the following list of available products, select up to %d of the most relevant products that match their needs. "+
		"Prioritize products that are a strong fit. Return a JSON array containing only the 'id' of each recommended product. "+
		"Do not recommend products not in this list.\n\nAvailable Products:\n%s",
		quizContext, answersJSON, maxRecommendations, productsJSON)

	text, err := p.gen.generate(ctx, prompt, idListSchema())
	if err != nil {
		return nil, domain.NewProviderError(opFetchRecommendations, domain.ErrRecommendation, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		return nil, domain.NewProviderError(opFetchRecommendations, domain.ErrRecommendation, invalidData(err))
	}

	kept := candidateIDs(ids, candidates)
	if len(kept) != len(ids) {
		p.logger.Warn("Dropped recommendations outside the candidate set",
			zap.Int("returned", len(ids)),
			zap.Int("kept", len(kept)),
		)
	}
	return kept, nil
}

func invalidData(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidProviderData, err)
}

func productListSchema() *genai.Schema {
	categories := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		categories[i] = string(c)
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":          {Type: genai.TypeString, Description: "A unique identifier"},
				"name":        {Type: genai.TypeString},
				"brand":       {Type: genai.TypeString},
				"category":    {Type: genai.TypeString, Enum: categories},
				"price":       {Type: genai.TypeNumber},
				"imageUrl":    {Type: genai.TypeString, Description: "A placeholder image URL from picsum.photos"},
				"description": {Type: genai.TypeString},
				"rating":      {Type: genai.TypeInteger, Description: "Rating from 1 to 5"},
				"reviewCount": {Type: genai.TypeInteger},
				"size":        {Type: genai.TypeString, Description: "e.g., '100ml', '250g', '60s'"},
				"tags": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString, Description: "e.g. 'New', 'Bestseller', 'Eco-Friendly'"},
				},
			},
			Required: []string{"id", "name", "brand", "category", "price", "imageUrl", "description", "rating", "reviewCount", "size", "tags"},
		},
	}
}

func quizSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString, Description: "A friendly and engaging title for the quiz."},
			"questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": {Type: genai.TypeString},
						"options":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"question", "options"},
				},
			},
		},
		Required: []string{"title", "questions"},
	}
}

func idListSchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString, Description: "The product ID"},
	}
}
