package domain

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxCatalogSize bounds how many products a catalog snapshot may hold
const MaxCatalogSize = 30

var (
	ErrEmptyCatalog      = errors.New("catalog is empty")
	ErrCatalogTooLarge   = errors.New("catalog exceeds maximum size")
	ErrDuplicateProduct  = errors.New("duplicate product id")
	ErrDuplicateQuestion = errors.New("duplicate quiz question")
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Decimals are validated as numbers so "gte=0" applies to prices
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
}

// ValidateProduct checks a single product against the data model
func ValidateProduct(p Product) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid product %q: %w", p.ID, err)
	}
	return nil
}

// ValidateCatalog checks every product and the snapshot-level invariants
func ValidateCatalog(products []Product) error {
	if len(products) == 0 {
		return ErrEmptyCatalog
	}
	if len(products) > MaxCatalogSize {
		return fmt.Errorf("%w: %d products", ErrCatalogTooLarge, len(products))
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := ValidateProduct(p); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ValidateQuiz checks the quiz shape: a title, at least one question, each question
// with two or more distinct options. Answers are keyed by question text, so question
// texts must be unique too.
func ValidateQuiz(q Quiz) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid quiz: %w", err)
	}

	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if _, dup := seen[question.Question]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateQuestion, question.Question)
		}
		seen[question.Question] = struct{}{}
	}
	return nil
}
