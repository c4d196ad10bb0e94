package provider

import (
	"context"
	"time"

	"storefront/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// CatalogSource is anything that can list the catalog, such as the SQL repository
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]domain.Product, error)
}

type catalogOverride struct {
	ContentProvider
	source CatalogSource
}

func (c *catalogOverride) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	return c.source.FetchCatalog(ctx)
}

// WithCatalogSource serves the catalog from source and everything else from p
func WithCatalogSource(p ContentProvider, source CatalogSource) ContentProvider {
	return &catalogOverride{ContentProvider: p, source: source}
}

// RetryConfig controls how often a failed catalog fetch is retried
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig retries twice starting at half a second
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

type catalogFallback struct {
	ContentProvider
	retry  RetryConfig
	logger *zap.Logger
}

// WithCatalogFallback retries FetchCatalog and, once retries are exhausted, serves the
// built-in products. The returned provider's FetchCatalog never fails.
func WithCatalogFallback(p ContentProvider, retry RetryConfig, logger *zap.Logger) ContentProvider {
	return &catalogFallback{ContentProvider: p, retry: retry, logger: logger}
}

func (f *catalogFallback) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	operation := func() error {
		fetched, err := f.ContentProvider.FetchCatalog(ctx)
		if err != nil {
			return err
		}
		if err := domain.ValidateCatalog(fetched); err != nil {
			return backoff.Permanent(invalidData(err))
		}
		products = fetched
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.retry.InitialInterval
	eb.MaxInterval = f.retry.MaxInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, f.retry.MaxRetries), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, next time.Duration) {
		f.logger.Warn("Catalog fetch failed, retrying",
			zap.Error(err),
			zap.Duration("next_attempt_in", next),
		)
	})
	if err != nil {
		f.logger.Warn("Serving built-in catalog",
			zap.Error(domain.NewProviderError(opFetchCatalog, domain.ErrFetch, err)),
		)
		return BuiltinProducts(), nil
	}
	return products, nil
}
