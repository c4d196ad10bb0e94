package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/guided"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRating   = errors.New("rating must be between 0 and 5")
)

// Provider is the content provider a session needs: the catalog plus the quiz calls
type Provider interface {
	catalog.Fetcher
	guided.Provider
}

// Config is shared by every session a manager creates
type Config struct {
	Policy           cart.Policy
	QuizDiscountRate decimal.Decimal
	ProviderTimeout  time.Duration
	PromptDelay      time.Duration
}

// DefaultConfig matches the storefront's published shipping and discount terms
func DefaultConfig() Config {
	return Config{
		Policy:           cart.DefaultPolicy(),
		QuizDiscountRate: decimal.RequireFromString("0.10"),
		ProviderTimeout:  30 * time.Second,
		PromptDelay:      DefaultPromptDelay,
	}
}

// Session owns everything one shopper can change: filters, search, sort, pagination,
// the cart and the guided-selection engine. mu is shared with the engine so cart
// commits from Results are serialised with direct cart edits.
type Session struct {
	ID string

	mu     sync.Mutex
	store  *catalog.Store
	ledger *cart.Ledger
	engine *guided.Engine
	prompt *Prompt
	policy cart.Policy
	logger *zap.Logger

	searchTerm string
	filters    domain.Filters
	sort       catalog.SortKey
	pageSize   int
	page       int

	lastSeen time.Time
}

// New creates a session with default browsing state and an empty cart
func New(id string, p Provider, c cache.Cache, cfg Config, logger *zap.Logger) *Session {
	logger = logger.With(zap.String("session_id", id))
	s := &Session{
		ID:       id,
		store:    catalog.NewStore(id, c, p, logger),
		ledger:   cart.NewLedger(),
		prompt:   NewPrompt(cfg.PromptDelay),
		policy:   cfg.Policy,
		logger:   logger,
		filters:  domain.DefaultFilters(),
		sort:     catalog.SortRelevance,
		pageSize: catalog.DefaultPageSize,
		page:     1,
		lastSeen: time.Now(),
	}
	s.engine = guided.NewEngine(p, s.ledger, &s.mu, guided.Config{
		Timeout:          cfg.ProviderTimeout,
		BulkDiscountRate: cfg.QuizDiscountRate,
	}, logger)
	return s
}

// CatalogView is the product listing page
type CatalogView struct {
	catalog.Result
	SearchTerm        string          `json:"searchTerm"`
	Filters           domain.Filters  `json:"filters"`
	ActiveFilters     int             `json:"activeFilters"`
	Sort              catalog.SortKey `json:"sort"`
	PageSize          int             `json:"pageSize"`
	PageSizes         []int           `json:"pageSizes"`
	Title             string          `json:"title"`
	Breadcrumb        string          `json:"breadcrumb"`
	QuizContext       string          `json:"quizContext,omitempty"`
	QuizPromptVisible bool            `json:"quizPromptVisible"`
}

// CartView is the cart page with its order summary
type CartView struct {
	Items     []domain.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	Summary   cart.Summary      `json:"summary"`
}

// Catalog runs the pipeline over the session's catalog with the current browsing state
func (s *Session) Catalog(ctx context.Context) (CatalogView, error) {
	if err := s.store.Load(ctx); err != nil {
		return CatalogView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := catalog.Visible(s.store.Products(), s.queryLocked())
	// A page that no longer exists after the catalog changed falls back to the first
	s.page = res.Page

	quizContext := s.quizContextLocked()
	return CatalogView{
		Result:            res,
		SearchTerm:        s.searchTerm,
		Filters:           s.filters,
		ActiveFilters:     s.filters.ActiveCount(),
		Sort:              s.sort,
		PageSize:          s.pageSize,
		PageSizes:         catalog.PageSizes,
		Title:             s.titleLocked(),
		Breadcrumb:        s.breadcrumbLocked(),
		QuizContext:       quizContext,
		QuizPromptVisible: quizContext != "" && s.prompt.Visible(),
	}, nil
}

// Product returns a single product from the session's catalog
func (s *Session) Product(ctx context.Context, id string) (domain.Product, error) {
	if err := s.store.Load(ctx); err != nil {
		return domain.Product{}, err
	}
	return s.store.Product(id)
}

// Home resets search, filters and the bulk discount
func (s *Session) Home() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetContextLocked("", domain.DefaultFilters())
}

// NavigateCategory shows a single category with every other filter and the search
// cleared. Navigating to "All" is the same as Home.
func (s *Session) NavigateCategory(c domain.Category) error {
	if c != domain.CategoryAll && !c.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetContextLocked("", domain.DefaultFilters().WithCategory(c))
	return nil
}

// Search replaces the search term and clears the filters
func (s *Session) Search(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetContextLocked(strings.TrimSpace(term), domain.DefaultFilters())
}

// SetFilters applies sidebar filters. The bulk discount is kept.
func (s *Session) SetFilters(f domain.Filters) error {
	f = f.Normalize()
	if f.Category != domain.CategoryAll && !f.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
	}
	if f.Rating < 0 || f.Rating > 5 {
		return ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.quizContextLocked()
	s.filters = f
	s.page = 1
	if after := s.quizContextLocked(); after != before {
		s.prompt.Reset(after)
	}
	return nil
}

// SetSort changes the ordering and returns to the first page
func (s *Session) SetSort(key catalog.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sort = key
	s.page = 1
}

// SetPageSize changes the page size and returns to the first page
func (s *Session) SetPageSize(n int) error {
	if !catalog.ValidPageSize(n) {
		return catalog.ErrInvalidPageSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageSize = n
	s.page = 1
	return nil
}

// SetPage moves to page n. Out-of-range pages are ignored and false is returned.
func (s *Session) SetPage(ctx context.Context, n int) (bool, error) {
	if err := s.store.Load(ctx); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := catalog.Filter(s.store.Products(), s.searchTerm, s.filters)
	if !catalog.ValidPage(n, catalog.TotalPages(len(filtered), s.pageSize)) {
		return false, nil
	}
	s.page = n
	return true, nil
}

// Cart returns the cart contents and a freshly computed summary
func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked()
}

// AddToCart adds quantity units of a catalog product
func (s *Session) AddToCart(ctx context.Context, productID string, quantity int) (CartView, error) {
	p, err := s.Product(ctx, productID)
	if err != nil {
		return CartView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.AddItem(p, quantity)
	return s.cartLocked(), nil
}

// UpdateCartItem sets an absolute quantity; zero or less removes the item
func (s *Session) UpdateCartItem(productID string, quantity int) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.UpdateQuantity(productID, quantity)
	return s.cartLocked()
}

// RemoveCartItem removes a product from the cart
func (s *Session) RemoveCartItem(productID string) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.RemoveItem(productID)
	return s.cartLocked()
}

// OpenQuiz opens guided selection for the current context. The candidates are the
// products matching the current search and filters, before pagination.
func (s *Session) OpenQuiz(ctx context.Context) (guided.View, error) {
	if err := s.store.Load(ctx); err != nil {
		return guided.View{}, err
	}

	s.mu.Lock()
	quizContext := s.quizContextLocked()
	candidates := catalog.Filter(s.store.Products(), s.searchTerm, s.filters)
	s.mu.Unlock()

	if err := s.engine.Open(quizContext, candidates); err != nil {
		return guided.View{}, err
	}
	return s.engine.Snapshot(), nil
}

// StartQuiz requests the quiz for the open guided-selection session
func (s *Session) StartQuiz() (guided.View, error) {
	if err := s.engine.Start(); err != nil {
		return guided.View{}, err
	}
	return s.engine.Snapshot(), nil
}

// AnswerQuiz records the answer to the current question
func (s *Session) AnswerQuiz(question, option string) (guided.View, error) {
	if err := s.engine.Answer(question, option); err != nil {
		return guided.View{}, err
	}
	return s.engine.Snapshot(), nil
}

// AddAllRecommendations commits every recommendation at the quiz discount and closes
// guided selection
func (s *Session) AddAllRecommendations() (CartView, error) {
	if err := s.engine.AddAll(); err != nil {
		return CartView{}, err
	}
	return s.Cart(), nil
}

// AddRecommendation commits one recommended product
func (s *Session) AddRecommendation(productID string) (CartView, error) {
	if _, err := s.engine.AddOne(productID); err != nil {
		return CartView{}, err
	}
	return s.Cart(), nil
}

// CloseQuiz abandons guided selection
func (s *Session) CloseQuiz() {
	s.engine.Close()
}

// Quiz returns the guided-selection state
func (s *Session) Quiz() guided.View {
	return s.engine.Snapshot()
}

// Close releases the session: guided selection is abandoned, the prompt timer is
// stopped and the cached catalog snapshot is deleted
func (s *Session) Close(ctx context.Context) error {
	s.engine.Close()
	s.engine.Wait()
	s.prompt.Stop()
	if err := s.store.Forget(ctx); err != nil {
		return fmt.Errorf("failed to forget catalog snapshot: %w", err)
	}
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) resetContextLocked(term string, f domain.Filters) {
	before := s.quizContextLocked()
	s.searchTerm = term
	s.filters = f
	s.page = 1
	s.ledger.ResetDiscount()
	if after := s.quizContextLocked(); after != before {
		s.prompt.Reset(after)
	}
}

func (s *Session) queryLocked() catalog.Query {
	return catalog.Query{
		SearchTerm: s.searchTerm,
		Filters:    s.filters,
		Sort:       s.sort,
		PageSize:   s.pageSize,
		Page:       s.page,
	}
}

// quizContextLocked is the search term when present, else the selected category
func (s *Session) quizContextLocked() string {
	if s.searchTerm != "" {
		return s.searchTerm
	}
	if s.filters.Category != domain.CategoryAll {
		return string(s.filters.Category)
	}
	return ""
}

func (s *Session) titleLocked() string {
	switch {
	case s.searchTerm != "":
		return fmt.Sprintf("Search results for '%s'", s.searchTerm)
	case s.filters.Category != domain.CategoryAll:
		return string(s.filters.Category)
	default:
		return "All Products"
	}
}

func (s *Session) breadcrumbLocked() string {
	switch {
	case s.searchTerm != "":
		return fmt.Sprintf("Search Results For: '%s'", s.searchTerm)
	case s.filters.Category != domain.CategoryAll:
		return string(s.filters.Category)
	default:
		return "All Categories"
	}
}

func (s *Session) cartLocked() CartView {
	return CartView{
		Items:     s.ledger.Items(),
		ItemCount: s.ledger.ItemCount(),
		Summary:   s.ledger.Summary(s.policy),
	}
}
