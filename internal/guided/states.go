package guided

import (
	"errors"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// State of a guided-selection session
type State string

const (
	StateClosed                 State = "closed"
	StateIntro                  State = "intro"
	StateLoadingQuiz            State = "loading_quiz"
	StateQuestioning            State = "questioning"
	StateLoadingRecommendations State = "loading_recommendations"
	StateResults                State = "results"
	StateError                  State = "error"
)

// Loading reports whether a provider call is in flight for this state
func (s State) Loading() bool {
	return s == StateLoadingQuiz || s == StateLoadingRecommendations
}

var (
	ErrInvalidTransition     = errors.New("invalid guided selection transition")
	ErrNoQuizContext         = errors.New("no search term or category to scope the quiz")
	ErrUnexpectedQuestion    = errors.New("answer does not match the current question")
	ErrUnknownOption         = errors.New("option is not offered by the current question")
	ErrProductNotRecommended = errors.New("product is not among the recommendations")
)

// Messages shown when a provider call fails
const (
	quizErrorMessage           = "We had trouble generating your quiz. Please try again later."
	recommendationErrorMessage = "We had trouble finding recommendations. Please try again later."
)

// View is a point-in-time copy of the engine for rendering
type View struct {
	State            State                `json:"state"`
	Context          string               `json:"context,omitempty"`
	Title            string               `json:"title,omitempty"`
	Question         *domain.QuizQuestion `json:"question,omitempty"`
	QuestionIndex    int                  `json:"questionIndex"`
	QuestionCount    int                  `json:"questionCount"`
	Answers          domain.Answers       `json:"answers"`
	Recommendations  []domain.Product     `json:"recommendations"`
	Error            string               `json:"error,omitempty"`
	BulkDiscountRate decimal.Decimal      `json:"bulkDiscountRate"`
}
