package exam

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrExamNotFound    = errors.New("exam not found")
	ErrSessionNotFound = errors.New("session not found")
)

type Store interface {
	PutExam(ctx context.Context, e Exam) error
	// GetExam is student-safe: answer keys are stripped.
	GetExam(ctx context.Context, id string) (Exam, error)
	// GetExamFull returns the exam with answer keys, for grading.
	GetExamFull(ctx context.Context, id string) (Exam, error)
	// ListExams returns summaries, most recent first.
	ListExams(ctx context.Context) ([]Summary, error)

	SaveSession(ctx context.Context, rec SessionRecord) error
	GetSession(ctx context.Context, id string) (SessionRecord, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	sessions map[string]SessionRecord
}

// NewInMemoryStore is used by tests and the offline dev mode.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		sessions: map[string]SessionRecord{},
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	return nil
}

func (m *memoryStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := m.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return stripKeys(e), nil
}

func (m *memoryStore) GetExamFull(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (m *memoryStore) ListExams(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.exams))
	for _, e := range m.exams {
		out = append(out, summarize(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) SaveSession(_ context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[rec.ID] = rec
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, id string) (SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return SessionRecord{}, ErrSessionNotFound
	}
	return rec, nil
}

// stripKeys copies the exam with answer keys removed, so the stored
// questions stay intact.
func stripKeys(e Exam) Exam {
	out := e
	out.Questions = append(out.Questions[:0:0], e.Questions...)
	for i := range out.Questions {
		out.Questions[i].Answer = ""
	}
	return out
}

func summarize(e Exam) Summary {
	return Summary{
		ID:         e.ID,
		Title:      e.Title,
		Topic:      e.Topic,
		Level:      e.Level,
		ExamType:   e.ExamType,
		Difficulty: e.Difficulty,
		CreatedAt:  e.CreatedAt,
	}
}
