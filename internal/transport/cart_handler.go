package transport

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddItemRequest adds units of a catalog product to the cart
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=99"`
}

// UpdateItemRequest sets an absolute quantity; zero removes the item
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"lte=99"`
}

// CartHandler handles HTTP requests for the shopper's cart
type CartHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(sessions Sessions, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the cart routes. The router must already require a session.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.RemoveItem)
	})
}

// GetCart returns the cart with its order summary
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, s.Cart())
}

// AddItem adds a product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	view, err := s.AddToCart(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to add item to cart")
		return
	}

	h.logger.Debug("Item added to cart",
		zap.String("session_id", s.ID),
		zap.String("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// UpdateItem sets the quantity of a cart line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, s.UpdateCartItem(chi.URLParam(r, "id"), req.Quantity))
}

// RemoveItem removes a cart line
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, s.RemoveCartItem(chi.URLParam(r, "id")))
}
