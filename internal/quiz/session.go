package quiz

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle of one timed attempt.
type State int

const (
	NotStarted State = iota
	Active
	Finalized
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Active:
		return "active"
	case Finalized:
		return "finalized"
	}
	return "unknown"
}

var (
	ErrSessionNotActive = errors.New("quiz: session not active")
	ErrNotStarted       = errors.New("quiz: session never started")
	ErrUnknownQuestion  = errors.New("quiz: unknown question id")
)

// Session is one timed attempt at a QuestionSet: the countdown Clock, the
// taker's selections, and the one-shot final Score.
//
// Finalize is a check-and-set on the session state, so the timeout trigger
// and a manual submit racing each other still score exactly once:
// whichever observes a live session performs the single Grade call, the
// other gets the already-computed Score back.
type Session struct {
	mu sync.Mutex

	id      string
	set     QuestionSet
	answers AnswerMap
	clock   Clock
	score   Score
	scored  bool
}

// NewSession builds a session over an immutable question set.
func NewSession(id string, set QuestionSet) *Session {
	return &Session{id: id, set: set, answers: AnswerMap{}}
}

func (s *Session) ID() string { return s.id }

// Questions returns the set being attempted.
func (s *Session) Questions() QuestionSet { return s.set }

// Start activates the session with the given time allotment.
func (s *Session) Start(totalUnits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Start(totalUnits)
}

// Tick consumes one time unit; see Clock.Tick. A true return means the
// clock just ran out and the caller should finalize.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Tick()
}

// IsExpired reports whether the clock has run out.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.IsExpired()
}

// Remaining returns the units left on the clock.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Remaining()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.State()
}

// Stop cancels the countdown without scoring. Idempotent. A later
// Finalize still computes the Score exactly once.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Stop()
}

// Answer records the taker's selection for a question. Only permitted
// while the session is Active; the last selection for a question wins.
func (s *Session) Answer(questionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock.State() != Active {
		return ErrSessionNotActive
	}
	for _, q := range s.set {
		if q.ID == questionID {
			s.answers[questionID] = option
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
}

// Answers returns a copy of the current selections.
func (s *Session) Answers() AnswerMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(AnswerMap, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Finalize stops the clock, scores the attempt, and freezes the result.
// The Score is computed at most once per session; repeat calls return the
// frozen value. Finalizing a session that never started is an error.
func (s *Session) Finalize() (Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scored {
		return s.score, nil
	}
	if s.clock.State() == NotStarted {
		return Score{}, ErrNotStarted
	}
	sc, err := Grade(s.set, s.answers)
	if err != nil {
		return Score{}, err
	}
	s.clock.Stop()
	s.score = sc
	s.scored = true
	return sc, nil
}

// Result returns the frozen Score of a finalized session.
func (s *Session) Result() (Score, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scored {
		return Score{}, false
	}
	return s.score, true
}
