package transport

import (
	"context"
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SearchRequest replaces the search term; an empty term clears it
type SearchRequest struct {
	Term string `json:"term" validate:"max=200"`
}

// NavigateRequest shows one category, or everything with "All"
type NavigateRequest struct {
	Category string `json:"category" validate:"required"`
}

// FiltersRequest is the sidebar filter state
type FiltersRequest struct {
	Category string   `json:"category" validate:"required"`
	Rating   int      `json:"rating" validate:"gte=0,lte=5"`
	Brand    []string `json:"brand" validate:"max=50,dive,required,max=100"`
}

// SortRequest selects the product ordering
type SortRequest struct {
	Sort string `json:"sort" validate:"omitempty,oneof=relevance price_asc price_desc name_asc"`
}

// PageSizeRequest selects how many products a page shows
type PageSizeRequest struct {
	PageSize int `json:"pageSize" validate:"required"`
}

// PageRequest moves to a page
type PageRequest struct {
	Page int `json:"page" validate:"required,gte=1"`
}

// CatalogHandler serves the product listing and its browsing controls
type CatalogHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(sessions Sessions, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the catalog routes. The router must already require a session.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/", h.GetCatalog)
		r.Post("/home", h.Home)
		r.Post("/search", h.Search)
		r.Post("/navigate", h.Navigate)
		r.Put("/filters", h.SetFilters)
		r.Put("/sort", h.SetSort)
		r.Put("/page-size", h.SetPageSize)
		r.Put("/page", h.SetPage)
	})
	r.Get("/api/products/{id}", h.GetProduct)
}

// GetCatalog returns the current page of products with facets and browsing state
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.respondWithCatalog(w, r, s)
}

// GetProduct returns one product from the session's catalog
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	p, err := s.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, p)
}

// Home clears search and filters
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	s.Home()
	h.respondWithCatalog(w, r, s)
}

// Search replaces the search term
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	s.Search(req.Term)
	h.respondWithCatalog(w, r, s)
}

// Navigate shows a single category
func (h *CatalogHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	if err := s.NavigateCategory(domain.Category(req.Category)); err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to navigate")
		return
	}
	h.respondWithCatalog(w, r, s)
}

// SetFilters applies the sidebar filters
func (h *CatalogHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	f := domain.Filters{Category: domain.Category(req.Category), Rating: req.Rating, Brand: req.Brand}
	if err := s.SetFilters(f); err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to set filters")
		return
	}
	h.respondWithCatalog(w, r, s)
}

// SetSort changes the product ordering
func (h *CatalogHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	key, err := catalog.ParseSortKey(req.Sort)
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to set sort")
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	s.SetSort(key)
	h.respondWithCatalog(w, r, s)
}

// SetPageSize changes the page size
func (h *CatalogHandler) SetPageSize(w http.ResponseWriter, r *http.Request) {
	var req PageSizeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	if err := s.SetPageSize(req.PageSize); err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to set page size")
		return
	}
	h.respondWithCatalog(w, r, s)
}

// SetPage moves to a page. Pages outside the current result leave the view unchanged.
func (h *CatalogHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	moved, err := s.SetPage(r.Context(), req.Page)
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to set page")
		return
	}
	if !moved {
		h.logger.Debug("Ignored out-of-range page", zap.String("session_id", s.ID), zap.Int("page", req.Page))
	}
	h.respondWithCatalog(w, r, s)
}

type catalogSession interface {
	Catalog(ctx context.Context) (session.CatalogView, error)
}

func (h *CatalogHandler) respondWithCatalog(w http.ResponseWriter, r *http.Request, s catalogSession) {
	view, err := s.Catalog(r.Context())
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to load catalog")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}
