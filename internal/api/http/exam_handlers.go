package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/apex-eduai/examvault/internal/eventlog"
	"github.com/apex-eduai/examvault/internal/exam"
	"github.com/apex-eduai/examvault/internal/genai"
	"github.com/apex-eduai/examvault/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GenerateExamHandler produces a question bank for a topic, persists it,
// and archives the full bank (answer keys included) as a blob. The
// response carries the taker-facing exam with keys stripped.
func GenerateExamHandler(gen *genai.Client, store exam.Store, blobs storage.BlobStore, events exam.EventSink, defaultN int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic        string `json:"topic"`
			Level        string `json:"level"`
			ExamType     string `json:"exam_type"`
			Difficulty   string `json:"difficulty"`
			NumQuestions int    `json:"num_questions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if req.Topic == "" {
			http.Error(w, "topic required", 400)
			return
		}
		if req.NumQuestions <= 0 {
			req.NumQuestions = defaultN
		}
		p := genai.Params{
			Topic:        req.Topic,
			Level:        req.Level,
			ExamType:     req.ExamType,
			Difficulty:   req.Difficulty,
			NumQuestions: req.NumQuestions,
		}
		bank, err := gen.Generate(r.Context(), "", p)
		if err != nil {
			http.Error(w, "generation failed: "+err.Error(), 502)
			return
		}

		e := exam.Exam{
			ID:         uuid.NewString(),
			Title:      bank.Title,
			Topic:      req.Topic,
			Level:      req.Level,
			ExamType:   req.ExamType,
			Difficulty: req.Difficulty,
			Questions:  bank.Questions,
			CreatedAt:  time.Now().Unix(),
		}
		if err := store.PutExam(r.Context(), e); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		if blobs != nil {
			raw, _ := json.Marshal(bank)
			if _, err := blobs.Put(storage.ExamPayloadKey(e.ID), bytes.NewReader(raw)); err != nil {
				log.Printf("exam %s: archive payload: %v", e.ID, err)
			}
		}
		if events != nil {
			_ = events.Append(r.Context(), eventlog.TypeExamGenerated, e.ID, map[string]any{
				"topic": e.Topic, "questions": len(e.Questions),
			})
		}

		out, err := store.GetExam(r.Context(), e.ID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GetExamHandler serves one exam with answer keys stripped.
func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			if errors.Is(err, exam.ErrExamNotFound) {
				http.Error(w, err.Error(), 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	}
}

// ListExamsHandler serves the generation history, newest first.
func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, err := store.ListExams(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = json.NewEncoder(w).Encode(ls)
	}
}
