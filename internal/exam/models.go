package exam

import "github.com/apex-eduai/examvault/internal/quiz"

// Exam is one generated assessment. Questions are stored with their
// answer keys; the student-facing accessor strips them.
type Exam struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Topic      string           `json:"topic"`
	Level      string           `json:"level"`
	ExamType   string           `json:"exam_type"`
	Difficulty string           `json:"difficulty"`
	Questions  quiz.QuestionSet `json:"questions"`
	CreatedAt  int64            `json:"created_at,omitempty"`
}

// Summary is the history-listing view of an exam (no questions).
type Summary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	Level      string `json:"level"`
	ExamType   string `json:"exam_type"`
	Difficulty string `json:"difficulty"`
	CreatedAt  int64  `json:"created_at"`
}

const (
	SessionActive    = "active"
	SessionFinalized = "finalized"
)

// SessionRecord is the persisted form of one timed attempt.
type SessionRecord struct {
	ID          string         `json:"id"`
	ExamID      string         `json:"exam_id"`
	UserID      string         `json:"user_id"`
	Status      string         `json:"status"` // active|finalized
	Percentage  int            `json:"percentage"`
	Passed      bool           `json:"passed"`
	Answers     quiz.AnswerMap `json:"answers"`
	StartedAt   int64          `json:"started_at"`
	FinalizedAt int64          `json:"finalized_at,omitempty"`
}
