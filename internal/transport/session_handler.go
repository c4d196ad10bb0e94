package transport

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sessions is the part of the session manager the handlers use
type Sessions interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
	End(ctx context.Context, id string) error
}

// SessionResponse is returned when a session is created
type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionHandler issues and ends shopper sessions
type SessionHandler struct {
	sessions Sessions
	secret   string
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler. Tokens expire after ttl.
func NewSessionHandler(sessions Sessions, secret string, ttl time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		logger:   logger,
	}
}

// RegisterRoutes registers the session routes. Creating a session is public.
func (h *SessionHandler) RegisterRoutes(r chi.Router, sessionMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.Create)

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Delete("/current", h.End)
		})
	})
}

// Create starts a session and returns its signed token
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	token, expiresAt, err := middleware.IssueSessionToken(h.secret, s.ID, h.ttl)
	if err != nil {
		h.logger.Error("Failed to sign session token", zap.String("session_id", s.ID), zap.Error(err))
		if endErr := h.sessions.End(r.Context(), s.ID); endErr != nil {
			h.logger.Warn("Failed to end unissued session", zap.String("session_id", s.ID), zap.Error(endErr))
		}
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	w.Header().Set(middleware.SessionHeader, token)
	middleware.RespondWithJSON(w, http.StatusCreated, SessionResponse{
		SessionID: s.ID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	})
}

// End closes the caller's session, clearing its cart and cached catalog
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessions.End(r.Context(), sessionID); err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentSession resolves the session named by the request's token
func currentSession(w http.ResponseWriter, r *http.Request, sessions Sessions, logger *zap.Logger) (*session.Session, bool) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		logger.Error("Session ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	s, err := sessions.Get(sessionID)
	if err != nil {
		respondWithDomainError(w, logger, err, "Failed to resolve session")
		return nil, false
	}
	return s, true
}
