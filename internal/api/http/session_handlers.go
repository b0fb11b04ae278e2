package http

import (
	"encoding/json"
	"errors"
	"net/http"

	auth "github.com/apex-eduai/examvault/internal/auth/middleware"
	"github.com/apex-eduai/examvault/internal/exam"
	"github.com/apex-eduai/examvault/internal/quiz"

	"github.com/go-chi/chi/v5"
)

// CreateSessionHandler starts a timed attempt at an exam for the
// authenticated user.
func CreateSessionHandler(mgr *exam.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.ExamID == "" {
			http.Error(w, "exam_id required", 400)
			return
		}
		v, err := mgr.StartSession(r.Context(), req.ExamID, auth.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), sessionStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}

func GetSessionHandler(mgr *exam.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := mgr.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, err.Error(), sessionStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}

// SaveAnswersHandler records selections on a live session. Answering a
// finalized session is a conflict, not a not-found.
func SaveAnswersHandler(mgr *exam.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var answers map[string]string
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		v, err := mgr.SaveAnswers(r.Context(), chi.URLParam(r, "sessionID"), answers)
		if err != nil {
			http.Error(w, err.Error(), sessionStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}
}

// SubmitSessionHandler finalizes a session and returns the score.
// Idempotent: resubmitting (or submitting after the clock expired)
// returns the frozen score.
func SubmitSessionHandler(mgr *exam.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := mgr.Submit(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, err.Error(), sessionStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(sc)
	}
}

func sessionStatus(err error) int {
	switch {
	case errors.Is(err, exam.ErrExamNotFound), errors.Is(err, exam.ErrSessionNotFound):
		return 404
	case errors.Is(err, quiz.ErrSessionNotActive):
		return 409
	case errors.Is(err, quiz.ErrEmptyQuestionSet), errors.Is(err, quiz.ErrUnknownQuestion):
		return 422
	default:
		return 500
	}
}
