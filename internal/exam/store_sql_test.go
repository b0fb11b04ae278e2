package exam_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/apex-eduai/examvault/internal/db"
	"github.com/apex-eduai/examvault/internal/exam"
	"github.com/apex-eduai/examvault/internal/quiz"
)

func openTestDB(t *testing.T) *exam.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return exam.NewSQLStore(dbh)
}

func TestSQLStoreExamRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	e := exam.Exam{
		ID:    "ex1",
		Title: "Physics: 2-Question Assessment",
		Topic: "Physics",
		Questions: quiz.QuestionSet{
			{ID: "1", Prompt: "Unit of force?", Options: []string{"Newton", "Joule"}, Answer: "Newton"},
			{ID: "2", Prompt: "Unit of work?", Options: []string{"Newton", "Joule"}, Answer: "Joule"},
		},
		CreatedAt: 100,
	}
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatal(err)
	}

	full, err := store.GetExamFull(ctx, "ex1")
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Questions) != 2 || full.Questions[0].Answer != "Newton" {
		t.Fatalf("full exam: %+v", full)
	}

	stripped, err := store.GetExam(ctx, "ex1")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range stripped.Questions {
		if q.Answer != "" {
			t.Fatalf("answer key not stripped: %+v", q)
		}
	}

	// Upsert replaces the questions.
	e.Questions = e.Questions[:1]
	if err := store.PutExam(ctx, e); err != nil {
		t.Fatal(err)
	}
	full, err = store.GetExamFull(ctx, "ex1")
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Questions) != 1 {
		t.Fatalf("upsert did not replace questions: %+v", full)
	}

	if _, err := store.GetExam(ctx, "nope"); err != exam.ErrExamNotFound {
		t.Fatalf("want ErrExamNotFound, got %v", err)
	}

	ls, err := store.ListExams(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ls) != 1 || ls[0].ID != "ex1" {
		t.Fatalf("list: %+v", ls)
	}
}

func TestSQLStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	if err := store.PutExam(ctx, exam.Exam{
		ID: "ex1", Title: "T",
		Questions: quiz.QuestionSet{{ID: "1", Prompt: "?", Options: []string{"a", "b"}, Answer: "a"}},
	}); err != nil {
		t.Fatal(err)
	}

	rec := exam.SessionRecord{
		ID:        "s1",
		ExamID:    "ex1",
		UserID:    "0911000000",
		Status:    exam.SessionActive,
		Answers:   quiz.AnswerMap{},
		StartedAt: 100,
	}
	if err := store.SaveSession(ctx, rec); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != exam.SessionActive || got.FinalizedAt != 0 {
		t.Fatalf("active record: %+v", got)
	}

	rec.Status = exam.SessionFinalized
	rec.Percentage = 100
	rec.Passed = true
	rec.Answers = quiz.AnswerMap{"1": "a"}
	rec.FinalizedAt = 160
	if err := store.SaveSession(ctx, rec); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != exam.SessionFinalized || got.Percentage != 100 || !got.Passed {
		t.Fatalf("finalized record: %+v", got)
	}
	if got.Answers["1"] != "a" || got.FinalizedAt != 160 {
		t.Fatalf("finalized record: %+v", got)
	}

	if _, err := store.GetSession(ctx, "nope"); err != exam.ErrSessionNotFound {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}
