package domain

import (
	"errors"
	"fmt"
)

// Provider failure kinds. Compare with errors.Is.
var (
	// ErrFetch means the catalog could not be fetched; callers recover by falling back
	// to the built-in product list
	ErrFetch = errors.New("catalog fetch failed")
	// ErrGeneration means no quiz could be generated for the context
	ErrGeneration = errors.New("quiz generation failed")
	// ErrRecommendation means the provider could not pick recommendations
	ErrRecommendation = errors.New("recommendation failed")
	// ErrInvalidProviderData marks a response that did not validate against the data model
	ErrInvalidProviderData = errors.New("provider returned invalid data")
)

// ProviderError carries the failing operation alongside the failure kind
type ProviderError struct {
	Op   string // e.g. "provider.FetchQuiz"
	Kind error  // one of ErrFetch, ErrGeneration, ErrRecommendation
	Err  error  // underlying cause
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is/As
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewProviderError wraps err as a provider failure of the given kind
func NewProviderError(op string, kind, err error) *ProviderError {
	return &ProviderError{Op: op, Kind: kind, Err: err}
}
