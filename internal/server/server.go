package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	deps     Dependencies
	sessions *session.Manager
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	secret := cfg.Session.Secret
	if secret == "" {
		// Tokens signed with a per-process secret stop validating on restart
		secret = uuid.NewString()
		logger.Warn("SESSION_SECRET is not set, using an ephemeral secret")
	}

	sessionCfg := session.Config{
		Policy: cart.Policy{
			FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
			ShippingFee:           cfg.Pricing.ShippingFee,
		},
		QuizDiscountRate: cfg.Pricing.QuizDiscountRate,
		ProviderTimeout:  cfg.Provider.Timeout,
		PromptDelay:      cfg.Quiz.PromptDelay,
	}
	sessions := session.NewManager(deps.Provider, deps.Cache, sessionCfg, cfg.Session.TTL, logger)

	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	s := &Server{
		config:   cfg,
		logger:   logger,
		deps:     deps,
		sessions: sessions,
	}

	router.Get("/health", s.health)

	sessionMiddleware := custommiddleware.SessionMiddleware(secret, logger)

	var quizLimiter func(http.Handler) http.Handler
	if deps.Redis != nil {
		quizLimiter = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.Cache.Prefix + ":ratelimit:quiz",
		}, logger)
	} else {
		logger.Warn("Rate limiting disabled without redis")
	}

	transport.NewSessionHandler(sessions, secret, cfg.Session.TTL, logger).RegisterRoutes(router, sessionMiddleware)
	router.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		transport.NewCatalogHandler(sessions, logger).RegisterRoutes(r)
		transport.NewCartHandler(sessions, logger).RegisterRoutes(r)
		transport.NewQuizHandler(sessions, logger).RegisterRoutes(r, quizLimiter)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// RunSessionJanitor evicts idle sessions until ctx is cancelled
func (s *Server) RunSessionJanitor(ctx context.Context) {
	s.sessions.Run(ctx, s.config.Session.CleanupInterval)
}

type healthResponse struct {
	Status   string            `json:"status"`
	Sessions int               `json:"sessions"`
	Checks   map[string]string `json:"checks,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Sessions: s.sessions.Len(), Checks: map[string]string{}}
	if s.deps.Redis != nil {
		resp.Checks["redis"] = "ok"
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			resp.Checks["redis"] = err.Error()
			resp.Status = "degraded"
		}
	}
	if s.deps.DB != nil {
		resp.Checks["database"] = "ok"
		if err := s.deps.DB.PingContext(ctx); err != nil {
			resp.Checks["database"] = err.Error()
			resp.Status = "degraded"
		}
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, resp)
}

// Close ends every session and releases the server's connections
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Closing server resources")

	s.sessions.Shutdown(ctx)

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
