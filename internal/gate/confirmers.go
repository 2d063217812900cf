package gate

import (
	"context"
	"errors"
	"sync"
)

// ErrNonInteractive is returned by Decline.
var ErrNonInteractive = errors.New("no interactive terminal available to confirm")

// ErrNoAnswers is returned by Scripted once its answers run out.
var ErrNoAnswers = errors.New("no scripted answer left")

// Decline is the confirmer for non-interactive runs. It never approves.
type Decline struct{}

// Confirm always reports ErrNonInteractive.
func (Decline) Confirm(context.Context, string) (bool, error) {
	return false, ErrNonInteractive
}

// Scripted replays a fixed list of answers in order and records the
// questions it was asked.
type Scripted struct {
	mu        sync.Mutex
	answers   []bool
	questions []string
}

// NewScripted creates a Scripted confirmer.
func NewScripted(answers ...bool) *Scripted {
	return &Scripted{answers: answers}
}

// Confirm returns the next answer, or ErrNoAnswers when none is left.
func (s *Scripted) Confirm(_ context.Context, question string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = append(s.questions, question)
	if len(s.answers) == 0 {
		return false, ErrNoAnswers
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Questions returns the questions asked so far.
func (s *Scripted) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}
