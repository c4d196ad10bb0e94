package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func validProduct(id string) Product {
	return Product{
		ID:          id,
		Name:        "Almond Flour",
		Brand:       "Goodness Grains",
		Category:    CategoryFood,
		Price:       decimal.NewFromFloat(95),
		Rating:      5,
		ReviewCount: 102,
		Size:        "500g",
		Tags:        []string{"Bestseller"},
	}
}

func TestValidateProduct(t *testing.T) {
	if err := ValidateProduct(validProduct("1")); err != nil {
		t.Fatalf("expected valid product, got %v", err)
	}

	cases := map[string]func(p *Product){
		"missing id":        func(p *Product) { p.ID = "" },
		"unknown category":  func(p *Product) { p.Category = "Garden" },
		"all is not valid":  func(p *Product) { p.Category = CategoryAll },
		"negative price":    func(p *Product) { p.Price = decimal.NewFromInt(-1) },
		"rating too high":   func(p *Product) { p.Rating = 6 },
		"negative reviews":  func(p *Product) { p.ReviewCount = -3 },
		"missing brand":     func(p *Product) { p.Brand = "" },
		"missing item name": func(p *Product) { p.Name = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validProduct("1")
			mutate(&p)
			if err := ValidateProduct(p); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	if err := ValidateCatalog(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}

	dup := []Product{validProduct("1"), validProduct("1")}
	if err := ValidateCatalog(dup); !errors.Is(err, ErrDuplicateProduct) {
		t.Errorf("expected ErrDuplicateProduct, got %v", err)
	}

	var big []Product
	for i := 0; i <= MaxCatalogSize; i++ {
		big = append(big, validProduct(string(rune('a'+i))))
	}
	if err := ValidateCatalog(big); !errors.Is(err, ErrCatalogTooLarge) {
		t.Errorf("expected ErrCatalogTooLarge, got %v", err)
	}
}

func TestValidateQuiz(t *testing.T) {
	good := Quiz{
		Title: "Find your perfect Health product",
		Questions: []QuizQuestion{
			{Question: "What is your main goal?", Options: []string{"Sleep", "Energy"}},
		},
	}
	if err := ValidateQuiz(good); err != nil {
		t.Fatalf("expected valid quiz, got %v", err)
	}

	bad := []Quiz{
		{Title: "", Questions: good.Questions},
		{Title: "x", Questions: nil},
		{Title: "x", Questions: []QuizQuestion{{Question: "q", Options: []string{"only"}}}},
		{Title: "x", Questions: []QuizQuestion{{Question: "q", Options: []string{"same", "same"}}}},
		{Title: "x", Questions: []QuizQuestion{{Question: "", Options: []string{"a", "b"}}}},
	}
	for i, q := range bad {
		if err := ValidateQuiz(q); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestValidateQuizRejectsRepeatedQuestion(t *testing.T) {
	q := Quiz{
		Title: "Find your perfect Body & Beauty product",
		Questions: []QuizQuestion{
			{Question: "Skin type?", Options: []string{"Dry", "Oily"}},
			{Question: "Skin type?", Options: []string{"Normal", "Combination"}},
		},
	}
	if err := ValidateQuiz(q); !errors.Is(err, ErrDuplicateQuestion) {
		t.Fatalf("expected ErrDuplicateQuestion, got %v", err)
	}
}

func TestAnswersKeepOrderAndRejectRevision(t *testing.T) {
	var a Answers
	if err := a.Add("Skin type?", "Dry"); err != nil {
		t.Fatal(err)
	}
	if err := a.Add("Scent?", "None"); err != nil {
		t.Fatal(err)
	}
	if err := a.Add("Skin type?", "Oily"); !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"Skin type?":"Dry","Scent?":"None"}` {
		t.Errorf("unexpected encoding %s", raw)
	}
}

// Property: filter helpers never alias the receiver's brand slice
func TestProperty_FilterHelpersReturnNewValues(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("toggling a brand leaves the original untouched", prop.ForAll(
		func(brands []string, toggle string) bool {
			original := Filters{Category: CategoryHealth, Rating: 3, Brand: brands}
			snapshot := append([]string(nil), brands...)

			_ = original.ToggleBrand(toggle)
			_ = original.ToggleRating(3)

			if len(original.Brand) != len(snapshot) {
				return false
			}
			for i := range snapshot {
				if original.Brand[i] != snapshot[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFilterHelpers(t *testing.T) {
	f := DefaultFilters().ToggleBrand("Solgar").ToggleRating(4)
	if f.ActiveCount() != 2 {
		t.Errorf("expected 2 active filters, got %d", f.ActiveCount())
	}

	f = f.WithCategory(CategoryHealth)
	if f.Rating != 0 || len(f.Brand) != 0 || f.Category != CategoryHealth {
		t.Errorf("category change should reset brand and rating, got %+v", f)
	}

	if f.ToggleRating(4).ToggleRating(4).Rating != 0 {
		t.Error("selecting the active rating should clear it")
	}
	if got := f.ToggleBrand("Yenn").ToggleBrand("Yenn").Brand; len(got) != 0 {
		t.Errorf("toggling a brand twice should remove it, got %v", got)
	}
	if (Filters{}).Normalize().Category != CategoryAll {
		t.Error("normalize should default the category to All")
	}
}
