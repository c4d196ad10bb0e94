package domain

import (
	"encoding/json"
	"errors"
	"slices"
)

var ErrDuplicateAnswer = errors.New("question already answered")

// QuizQuestion is a single multiple-choice question
type QuizQuestion struct {
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"min=2,unique,dive,required"`
}

// HasOption reports whether option is one of the question's choices
func (q QuizQuestion) HasOption(option string) bool {
	return slices.Contains(q.Options, option)
}

// Quiz is produced once per guided-selection session
type Quiz struct {
	Title     string         `json:"title" validate:"required"`
	Questions []QuizQuestion `json:"questions" validate:"min=1,dive"`
}

// Answer records the option chosen for one question
type Answer struct {
	Question string `json:"question"`
	Option   string `json:"option"`
}

// Answers maps question text to the selected option and keeps question order.
// It only grows; an answered question cannot be revised.
type Answers struct {
	entries []Answer
}

// Add appends an answer. Answering the same question twice is rejected.
func (a *Answers) Add(question, option string) error {
	if _, ok := a.Get(question); ok {
		return ErrDuplicateAnswer
	}
	a.entries = append(a.entries, Answer{Question: question, Option: option})
	return nil
}

// Get returns the option recorded for question
func (a Answers) Get(question string) (string, bool) {
	for _, e := range a.entries {
		if e.Question == question {
			return e.Option, true
		}
	}
	return "", false
}

// Len is the number of answered questions
func (a Answers) Len() int {
	return len(a.entries)
}

// List returns a copy of the answers in question order
func (a Answers) List() []Answer {
	out := make([]Answer, len(a.entries))
	copy(out, a.entries)
	return out
}

// MarshalJSON encodes the answers as a JSON object whose keys keep question order
func (a Answers) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, e := range a.entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(e.Question)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Option)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}
