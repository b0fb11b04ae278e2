package exam

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apex-eduai/examvault/internal/eventlog"
	"github.com/apex-eduai/examvault/internal/quiz"
)

// EventSink receives domain events. The event log repo satisfies it; a
// nil sink disables event recording (tests, offline CLI use).
type EventSink interface {
	Append(ctx context.Context, typ, key string, data interface{}) error
}

// View is the caller-facing snapshot of a session.
type View struct {
	SessionID string      `json:"session_id"`
	ExamID    string      `json:"exam_id"`
	Status    string      `json:"status"`
	Remaining int         `json:"remaining_sec"`
	Score     *quiz.Score `json:"score,omitempty"`
}

type activeSession struct {
	sess      *quiz.Session
	examID    string
	userID    string
	startedAt int64
	cancel    context.CancelFunc
	persist   sync.Once
}

// Manager owns the live sessions: it starts the per-session runner that
// drives the countdown, routes answers, and funnels both finalization
// triggers (timeout and manual submit) through one persistence path.
// Finished sessions are served from the Store, so a submit that loses the
// race against the timeout still returns the frozen score.
type Manager struct {
	store    Store
	events   EventSink
	interval time.Duration

	mu     sync.Mutex
	active map[string]*activeSession
}

type ManagerOption func(*Manager)

// WithTickInterval overrides the one-second cadence; tests use this to
// drive the countdown fast.
func WithTickInterval(d time.Duration) ManagerOption {
	return func(m *Manager) { m.interval = d }
}

func NewManager(store Store, events EventSink, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		events:   events,
		interval: time.Second,
		active:   map[string]*activeSession{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// StartSession creates and activates a timed attempt at an exam. The
// allotment is 60 seconds per question.
func (m *Manager) StartSession(ctx context.Context, examID, userID string) (View, error) {
	e, err := m.store.GetExamFull(ctx, examID)
	if err != nil {
		return View{}, err
	}
	if len(e.Questions) == 0 {
		return View{}, quiz.ErrEmptyQuestionSet
	}

	id := uuid.NewString()
	sess := quiz.NewSession(id, e.Questions)
	if err := sess.Start(e.Questions.Duration()); err != nil {
		return View{}, err
	}

	as := &activeSession{
		sess:      sess,
		examID:    examID,
		userID:    userID,
		startedAt: time.Now().Unix(),
	}
	if err := m.store.SaveSession(ctx, SessionRecord{
		ID:        id,
		ExamID:    examID,
		UserID:    userID,
		Status:    SessionActive,
		Answers:   quiz.AnswerMap{},
		StartedAt: as.startedAt,
	}); err != nil {
		return View{}, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	as.cancel = cancel
	m.mu.Lock()
	m.active[id] = as
	m.mu.Unlock()

	go quiz.Drive(runCtx, sess, m.interval, func() {
		if _, err := m.finalize(context.Background(), as); err != nil {
			log.Printf("session %s: timeout finalize: %v", id, err)
		}
	})

	return m.view(as), nil
}

// GetSession reports a session's state: live ones from the registry,
// finished ones from the store. An active record with no live runner
// (the process restarted) is revived first.
func (m *Manager) GetSession(ctx context.Context, id string) (View, error) {
	m.mu.Lock()
	as, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		return m.view(as), nil
	}
	rec, err := m.store.GetSession(ctx, id)
	if err != nil {
		return View{}, err
	}
	if rec.Status == SessionActive {
		as, err := m.revive(ctx, rec)
		if err != nil {
			return View{}, err
		}
		if as != nil {
			return m.view(as), nil
		}
		rec, err = m.store.GetSession(ctx, id)
		if err != nil {
			return View{}, err
		}
	}
	return recordView(rec), nil
}

// SaveAnswers records selections on a live session (last one wins). The
// selections are persisted alongside the active record so an attempt
// that outlives the process is graded from what was actually answered.
func (m *Manager) SaveAnswers(ctx context.Context, id string, answers map[string]string) (View, error) {
	m.mu.Lock()
	as, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		// Finished, orphaned, or unknown: surface which, so the API
		// can 404 vs 409.
		rec, err := m.store.GetSession(ctx, id)
		if err != nil {
			return View{}, err
		}
		if rec.Status != SessionActive {
			return View{}, quiz.ErrSessionNotActive
		}
		if as, err = m.revive(ctx, rec); err != nil {
			return View{}, err
		}
		if as == nil {
			return View{}, quiz.ErrSessionNotActive
		}
	}
	for qid, sel := range answers {
		if err := as.sess.Answer(qid, sel); err != nil {
			return View{}, err
		}
	}
	if as.sess.State() == quiz.Active {
		if err := m.store.SaveSession(ctx, SessionRecord{
			ID:        as.sess.ID(),
			ExamID:    as.examID,
			UserID:    as.userID,
			Status:    SessionActive,
			Answers:   as.sess.Answers(),
			StartedAt: as.startedAt,
		}); err != nil {
			log.Printf("session %s: save answers: %v", as.sess.ID(), err)
		}
	}
	return m.view(as), nil
}

// Submit is the manual finalization trigger. Idempotent: a session
// already finalized (by an earlier submit or by timeout) returns its
// frozen score.
func (m *Manager) Submit(ctx context.Context, id string) (quiz.Score, error) {
	m.mu.Lock()
	as, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		rec, err := m.store.GetSession(ctx, id)
		if err != nil {
			return quiz.Score{}, err
		}
		if rec.Status == SessionActive {
			as, err := m.revive(ctx, rec)
			if err != nil {
				return quiz.Score{}, err
			}
			if as != nil {
				return m.finalize(ctx, as)
			}
			rec, err = m.store.GetSession(ctx, id)
			if err != nil {
				return quiz.Score{}, err
			}
		}
		if rec.Status != SessionFinalized {
			return quiz.Score{}, quiz.ErrSessionNotActive
		}
		return quiz.Score{Percentage: rec.Percentage, Passed: rec.Passed}, nil
	}
	return m.finalize(ctx, as)
}

// revive rebuilds a live session from a persisted active record whose
// runner died with the process. An attempt still inside its allotment
// resumes with the remaining time and a fresh runner; one past its
// deadline is finalized from the persisted answers, in which case revive
// returns nil and the caller re-reads the finalized record.
func (m *Manager) revive(ctx context.Context, rec SessionRecord) (*activeSession, error) {
	e, err := m.store.GetExamFull(ctx, rec.ExamID)
	if err != nil {
		return nil, err
	}
	remaining := int(rec.StartedAt + int64(e.Questions.Duration()) - time.Now().Unix())
	expired := remaining <= 0
	if expired {
		remaining = e.Questions.Duration()
	}

	sess := quiz.NewSession(rec.ID, e.Questions)
	if err := sess.Start(remaining); err != nil {
		return nil, err
	}
	for qid, sel := range rec.Answers {
		if err := sess.Answer(qid, sel); err != nil {
			log.Printf("session %s: revive answer %q: %v", rec.ID, qid, err)
		}
	}
	as := &activeSession{
		sess:      sess,
		examID:    rec.ExamID,
		userID:    rec.UserID,
		startedAt: rec.StartedAt,
	}

	if expired {
		m.mu.Lock()
		if cur, ok := m.active[rec.ID]; ok {
			m.mu.Unlock()
			return cur, nil
		}
		m.active[rec.ID] = as
		m.mu.Unlock()
		if _, err := m.finalize(ctx, as); err != nil {
			return nil, err
		}
		return nil, nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	as.cancel = cancel
	m.mu.Lock()
	if cur, ok := m.active[rec.ID]; ok {
		m.mu.Unlock()
		cancel()
		return cur, nil
	}
	m.active[rec.ID] = as
	m.mu.Unlock()

	go quiz.Drive(runCtx, sess, m.interval, func() {
		if _, err := m.finalize(context.Background(), as); err != nil {
			log.Printf("session %s: timeout finalize: %v", rec.ID, err)
		}
	})
	return as, nil
}

// finalize is the single convergence point for both triggers. The
// quiz.Session check-and-set guarantees one Grade call; persist is a
// sync.Once so the record and event are written once no matter how the
// race resolves.
func (m *Manager) finalize(ctx context.Context, as *activeSession) (quiz.Score, error) {
	sc, err := as.sess.Finalize()
	if err != nil {
		return quiz.Score{}, err
	}

	as.persist.Do(func() {
		if as.cancel != nil {
			as.cancel()
		}
		rec := SessionRecord{
			ID:          as.sess.ID(),
			ExamID:      as.examID,
			UserID:      as.userID,
			Status:      SessionFinalized,
			Percentage:  sc.Percentage,
			Passed:      sc.Passed,
			Answers:     as.sess.Answers(),
			StartedAt:   as.startedAt,
			FinalizedAt: time.Now().Unix(),
		}
		if err := m.store.SaveSession(ctx, rec); err != nil {
			log.Printf("session %s: save: %v", rec.ID, err)
		}
		if m.events != nil {
			if err := m.events.Append(ctx, eventlog.TypeSessionFinalized, rec.ID, rec); err != nil {
				log.Printf("session %s: event append: %v", rec.ID, err)
			}
		}
		m.mu.Lock()
		delete(m.active, rec.ID)
		m.mu.Unlock()
	})
	return sc, nil
}

func (m *Manager) view(as *activeSession) View {
	v := View{
		SessionID: as.sess.ID(),
		ExamID:    as.examID,
		Status:    as.sess.State().String(),
		Remaining: as.sess.Remaining(),
	}
	if sc, ok := as.sess.Result(); ok {
		v.Score = &sc
	}
	return v
}

func recordView(rec SessionRecord) View {
	v := View{
		SessionID: rec.ID,
		ExamID:    rec.ExamID,
		Status:    rec.Status,
	}
	if rec.Status == SessionFinalized {
		v.Score = &quiz.Score{Percentage: rec.Percentage, Passed: rec.Passed}
	}
	return v
}

var _ EventSink = (*eventlog.Repo)(nil)
