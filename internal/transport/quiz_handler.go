package transport

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AnswerRequest answers the current quiz question
type AnswerRequest struct {
	Question string `json:"question" validate:"required"`
	Option   string `json:"option" validate:"required"`
}

// QuizHandler drives guided selection for the shopper's session
type QuizHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewQuizHandler creates a new QuizHandler
func NewQuizHandler(sessions Sessions, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the guided-selection routes. Routes that reach the content
// provider go through limiter when it is set. The router must already require a session.
func (h *QuizHandler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.Route("/api/quiz", func(r chi.Router) {
		r.Get("/", h.GetQuiz)
		r.Post("/", h.Open)
		r.Delete("/", h.Close)
		r.Post("/add-all", h.AddAll)
		r.Post("/items/{id}", h.AddOne)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/start", h.Start)
			r.Post("/answers", h.Answer)
		})
	})
}

// GetQuiz returns the guided-selection state. Clients poll it while a provider call is in flight.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, s.Quiz())
}

// Open opens guided selection scoped to the current search or category
func (h *QuizHandler) Open(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	view, err := s.OpenQuiz(r.Context())
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to open quiz")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Start requests the quiz. The response is accepted before the quiz arrives.
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	view, err := s.StartQuiz()
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to start quiz")
		return
	}
	middleware.RespondWithJSON(w, http.StatusAccepted, view)
}

// Answer records an answer; the last one requests recommendations
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	view, err := s.AnswerQuiz(req.Question, req.Option)
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to answer quiz")
		return
	}

	status := http.StatusOK
	if view.State.Loading() {
		status = http.StatusAccepted
	}
	middleware.RespondWithJSON(w, status, view)
}

// AddAll adds every recommendation at the quiz discount and closes guided selection
func (h *QuizHandler) AddAll(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	view, err := s.AddAllRecommendations()
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to add recommendations")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// AddOne adds a single recommendation without the discount
func (h *QuizHandler) AddOne(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	view, err := s.AddRecommendation(chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, h.logger, err, "Failed to add recommendation")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Close abandons guided selection
func (h *QuizHandler) Close(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	s.CloseQuiz()
	middleware.RespondWithJSON(w, http.StatusOK, s.Quiz())
}
