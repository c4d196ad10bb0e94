package guided

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxRecommendations caps the number of products shown in Results
const MaxRecommendations = 5

// Provider generates quizzes and picks recommendations
type Provider interface {
	FetchQuiz(ctx context.Context, quizContext string) (domain.Quiz, error)
	FetchRecommendations(ctx context.Context, answers domain.Answers, quizContext string, candidates []domain.Product) ([]string, error)
}

// Cart receives the products committed from Results
type Cart interface {
	AddItem(p domain.Product, quantity int) bool
	AddMany(products []domain.Product, rate decimal.Decimal)
}

// Config tunes the engine
type Config struct {
	// Timeout bounds each provider call
	Timeout time.Duration
	// BulkDiscountRate is applied by AddAll
	BulkDiscountRate decimal.Decimal
}

// Engine is the guided-selection state machine for one shopper. All state, including
// the cart it commits to, is guarded by a single locker shared with the owning session.
type Engine struct {
	mu       sync.Locker
	provider Provider
	cart     Cart
	logger   *zap.Logger
	cfg      Config

	state       State
	generation  uint64
	quizContext string
	candidates  []domain.Product
	quiz        domain.Quiz
	index       int
	answers     domain.Answers
	recommended []domain.Product
	errMessage  string
	cancel      context.CancelFunc

	inflight sync.WaitGroup
}

// NewEngine creates a closed engine. mu is the session lock that also guards cart;
// a private mutex is used when it is nil.
func NewEngine(provider Provider, cart Cart, mu sync.Locker, cfg Config, logger *zap.Logger) *Engine {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Engine{
		mu:       mu,
		provider: provider,
		cart:     cart,
		logger:   logger,
		cfg:      cfg,
		state:    StateClosed,
	}
}

// Open starts a guided-selection session scoped to quizContext. The candidates are the
// products the shopper was looking at; recommendations are restricted to them.
func (e *Engine) Open(quizContext string, candidates []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateClosed && e.state != StateError {
		return fmt.Errorf("%w: open from %s", ErrInvalidTransition, e.state)
	}
	if quizContext == "" {
		return ErrNoQuizContext
	}

	e.reset()
	e.quizContext = quizContext
	e.candidates = make([]domain.Product, len(candidates))
	copy(e.candidates, candidates)
	e.transition(StateIntro)
	return nil
}

// Start requests the quiz. The provider call runs in the background; its outcome is
// visible through Snapshot once it lands.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIntro {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, e.state)
	}
	e.transition(StateLoadingQuiz)

	ctx, gen := e.callContext()
	quizContext := e.quizContext
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		quiz, err := e.provider.FetchQuiz(ctx, quizContext)
		e.quizLoaded(gen, quiz, err)
	}()
	return nil
}

// Answer records the option chosen for the current question. After the last question
// the recommendation request is sent.
func (e *Engine) Answer(question, option string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateQuestioning {
		return fmt.Errorf("%w: answer in %s", ErrInvalidTransition, e.state)
	}
	current := e.quiz.Questions[e.index]
	if current.Question != question {
		return ErrUnexpectedQuestion
	}
	if !current.HasOption(option) {
		return ErrUnknownOption
	}
	if err := e.answers.Add(question, option); err != nil {
		return err
	}

	if e.index < len(e.quiz.Questions)-1 {
		e.index++
		return nil
	}

	e.transition(StateLoadingRecommendations)
	ctx, gen := e.callContext()
	answers := e.answers
	quizContext := e.quizContext
	candidates := e.candidates
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ids, err := e.provider.FetchRecommendations(ctx, answers, quizContext, candidates)
		e.recommendationsLoaded(gen, ids, err)
	}()
	return nil
}

// AddAll commits every recommendation at the bulk discount rate and ends the session
func (e *Engine) AddAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResults {
		return fmt.Errorf("%w: add all in %s", ErrInvalidTransition, e.state)
	}
	e.cart.AddMany(e.recommended, e.cfg.BulkDiscountRate)
	e.logger.Info("Recommendations added to cart",
		zap.Int("count", len(e.recommended)),
		zap.String("discount_rate", e.cfg.BulkDiscountRate.String()),
	)
	e.closeLocked()
	return nil
}

// AddOne commits a single recommended product; the session stays in Results
func (e *Engine) AddOne(productID string) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResults {
		return domain.Product{}, fmt.Errorf("%w: add one in %s", ErrInvalidTransition, e.state)
	}
	for _, p := range e.recommended {
		if p.ID == productID {
			e.cart.AddItem(p, 1)
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotRecommended
}

// Close abandons the session from any state. A response still in flight is discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

// Wait blocks until every provider call started so far has returned
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		State:            e.state,
		Context:          e.quizContext,
		Title:            e.quiz.Title,
		QuestionIndex:    e.index,
		QuestionCount:    len(e.quiz.Questions),
		Answers:          e.answers,
		Recommendations:  make([]domain.Product, len(e.recommended)),
		Error:            e.errMessage,
		BulkDiscountRate: e.cfg.BulkDiscountRate,
	}
	copy(v.Recommendations, e.recommended)
	if e.state == StateQuestioning {
		q := e.quiz.Questions[e.index]
		q.Options = append([]string(nil), q.Options...)
		v.Question = &q
	}
	return v
}

// State returns the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) quizLoaded(gen uint64, quiz domain.Quiz, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.current(gen, StateLoadingQuiz) {
		e.logger.Debug("Discarding stale quiz response", zap.Uint64("generation", gen))
		return
	}
	e.finishCall()

	if err == nil {
		err = domain.ValidateQuiz(quiz)
	}
	if err != nil {
		e.logger.Warn("Quiz generation failed",
			zap.String("context", e.quizContext),
			zap.Error(err),
		)
		e.errMessage = quizErrorMessage
		e.transition(StateError)
		return
	}

	e.quiz = quiz
	e.index = 0
	e.answers = domain.Answers{}
	e.transition(StateQuestioning)
}

func (e *Engine) recommendationsLoaded(gen uint64, ids []string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.current(gen, StateLoadingRecommendations) {
		e.logger.Debug("Discarding stale recommendation response", zap.Uint64("generation", gen))
		return
	}
	e.finishCall()

	if err != nil {
		e.logger.Warn("Recommendation request failed",
			zap.String("context", e.quizContext),
			zap.Error(err),
		)
		e.errMessage = recommendationErrorMessage
		e.transition(StateError)
		return
	}

	e.recommended = Resolve(ids, e.candidates)
	e.transition(StateResults)
}

// Resolve maps recommended ids onto candidates in the order returned, dropping unknown
// and repeated ids and keeping at most MaxRecommendations.
func Resolve(ids []string, candidates []domain.Product) []domain.Product {
	byID := make(map[string]domain.Product, len(candidates))
	for _, p := range candidates {
		byID[p.ID] = p
	}

	out := []domain.Product{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
		if len(out) == MaxRecommendations {
			break
		}
	}
	return out
}

// callContext must be called with mu held
func (e *Engine) callContext() (context.Context, uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.Timeout)
	e.cancel = cancel
	return ctx, e.generation
}

func (e *Engine) finishCall() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) current(gen uint64, expected State) bool {
	return gen == e.generation && e.state == expected
}

func (e *Engine) closeLocked() {
	e.reset()
	e.transition(StateClosed)
}

// reset drops the session data and invalidates any outstanding response
func (e *Engine) reset() {
	e.finishCall()
	e.generation++
	e.quizContext = ""
	e.candidates = nil
	e.quiz = domain.Quiz{}
	e.index = 0
	e.answers = domain.Answers{}
	e.recommended = nil
	e.errMessage = ""
}

func (e *Engine) transition(to State) {
	e.logger.Debug("Guided selection transition",
		zap.String("from", string(e.state)),
		zap.String("to", string(to)),
		zap.Uint64("generation", e.generation),
	)
	e.state = to
}
