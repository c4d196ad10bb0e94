package session

import (
	"sync"
	"time"
)

// DefaultPromptDelay is how long a shopper stays in one context before the quiz
// invitation is shown
const DefaultPromptDelay = 3 * time.Second

// Prompt is the delayed quiz invitation. Firing only makes the invitation visible; it
// never opens or starts a guided-selection session.
type Prompt struct {
	mu         sync.Mutex
	delay      time.Duration
	timer      *time.Timer
	generation uint64
	visible    bool
}

// NewPrompt returns a hidden, idle prompt
func NewPrompt(delay time.Duration) *Prompt {
	if delay <= 0 {
		delay = DefaultPromptDelay
	}
	return &Prompt{delay: delay}
}

// Reset hides the invitation and, when quizContext is non-empty, schedules it again
func (p *Prompt) Reset(quizContext string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if quizContext == "" {
		return
	}

	gen := p.generation
	p.timer = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if gen == p.generation {
			p.visible = true
		}
	})
}

// Visible reports whether the invitation is currently shown
func (p *Prompt) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Stop hides the invitation and cancels any pending timer
func (p *Prompt) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Prompt) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.generation++
	p.visible = false
}
