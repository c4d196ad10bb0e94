package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/cache"
	"storefront/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SnapshotKey is the fixed cache key the catalog snapshot is stored under
const SnapshotKey = "products"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotLoaded       = errors.New("catalog not loaded")
)

// Fetcher is the part of the content provider the store depends on
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]domain.Product, error)
}

// Store holds one session's catalog snapshot. The snapshot is loaded once, from the
// session cache when present and from the provider otherwise, and is read-only after.
type Store struct {
	sessionID string
	cache     cache.Cache
	fetcher   Fetcher
	logger    *zap.Logger

	group singleflight.Group

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]domain.Product
	loaded   bool
}

// NewStore creates an empty store for the given session
func NewStore(sessionID string, c cache.Cache, f Fetcher, logger *zap.Logger) *Store {
	return &Store{
		sessionID: sessionID,
		cache:     c,
		fetcher:   f,
		logger:    logger.With(zap.String("session_id", sessionID)),
	}
}

// Load makes the catalog available. Concurrent callers share a single fetch; once
// loaded, further calls return immediately.
func (s *Store) Load(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}

	_, err, _ := s.group.Do(SnapshotKey, func() (interface{}, error) {
		if s.Loaded() {
			return nil, nil
		}

		products, err := s.restore(ctx)
		if err != nil {
			return nil, err
		}
		s.set(products)
		return nil, nil
	})
	return err
}

func (s *Store) restore(ctx context.Context) ([]domain.Product, error) {
	raw, err := s.cache.Get(ctx, s.sessionID, SnapshotKey)
	switch {
	case err == nil:
		var products []domain.Product
		if jsonErr := json.Unmarshal(raw, &products); jsonErr == nil && domain.ValidateCatalog(products) == nil {
			s.logger.Debug("Catalog restored from session cache", zap.Int("products", len(products)))
			return products, nil
		}
		s.logger.Warn("Discarding corrupt catalog snapshot")
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		// An unreachable cache only costs a re-fetch
		s.logger.Warn("Failed to read catalog snapshot", zap.Error(err))
	}

	products, err := s.fetcher.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	raw, err = json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}
	if err := s.cache.Set(ctx, s.sessionID, SnapshotKey, raw); err != nil {
		s.logger.Warn("Failed to write catalog snapshot", zap.Error(err))
	}

	s.logger.Info("Catalog fetched", zap.Int("products", len(products)))
	return products, nil
}

func (s *Store) set(products []domain.Product) {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.byID = byID
	s.loaded = true
}

// Loaded reports whether the snapshot is available
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Products returns the full catalog. The slice must not be modified.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// Product looks up a product by id
func (s *Store) Product(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return domain.Product{}, ErrNotLoaded
	}
	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Forget deletes the cached snapshot; called when the session ends
func (s *Store) Forget(ctx context.Context) error {
	return s.cache.Delete(ctx, s.sessionID, SnapshotKey)
}
