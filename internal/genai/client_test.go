package genai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

const sampleBank = `{
	"title": "ignored upstream title",
	"questions": [
		{"question": "Q1", "options": ["a","b","c","d"], "answer": "a"},
		{"question": "Q2", "options": ["a","b","c","d"], "answer": "b"},
		{"question": "Q3", "options": ["a","b","c","d"], "answer": "c"},
		{"question": "Q4", "options": ["a","b","c","d"], "answer": "d"},
		{"question": "Q5", "options": ["a","b","c","d"], "answer": "a"}
	]
}`

func TestGenerate_PadsAndNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleBank))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	bank, err := c.Generate(context.Background(), "", Params{Topic: "Go", Difficulty: "Moderate", NumQuestions: 8})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(bank.Questions) != 8 {
		t.Fatalf("got %d questions, want 8", len(bank.Questions))
	}
	for i, q := range bank.Questions {
		if want := i + 1; q.ID != strconv.Itoa(want) {
			t.Errorf("question %d id = %q", i, q.ID)
		}
	}
	// Padding cycles the upstream bank.
	if bank.Questions[5].Prompt != "Q1" {
		t.Errorf("question 6 prompt = %q, want cycled Q1", bank.Questions[5].Prompt)
	}
	if !strings.Contains(bank.Title, "8-Question") {
		t.Errorf("title = %q", bank.Title)
	}
}

func TestGenerate_StripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("```json\n" + sampleBank + "\n```"))
	}))
	defer srv.Close()

	bank, err := NewClient(srv.URL).Generate(context.Background(), "", Params{Topic: "Go", NumQuestions: 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(bank.Questions) != 5 || bank.Questions[0].Prompt != "Q1" {
		t.Fatalf("fenced payload not parsed: %+v", bank.Questions)
	}
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleBank))
	}))
	defer srv.Close()

	bank, err := NewClient(srv.URL, WithRetries(2), WithBackoff(0)).
		Generate(context.Background(), "", Params{Topic: "Go", NumQuestions: 5})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want retry after 502", calls)
	}
	if bank.Questions[0].Prompt != "Q1" {
		t.Error("expected upstream bank after retry, got fallback")
	}
}

func TestGenerate_FallsBackOnGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("sorry, I cannot help with that"))
	}))
	defer srv.Close()

	bank, err := NewClient(srv.URL).Generate(context.Background(), "", Params{Topic: "Compilers", NumQuestions: 6})
	if err != nil {
		t.Fatalf("Generate must be total, got %v", err)
	}
	if len(bank.Questions) != 6 {
		t.Fatalf("fallback returned %d questions, want 6", len(bank.Questions))
	}
	if !strings.Contains(bank.Questions[0].Prompt, "Compilers") {
		t.Errorf("fallback prompt not topic-aware: %q", bank.Questions[0].Prompt)
	}
}

func TestGenerate_FallsBackOnTooFewQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"questions":[{"question":"only one","options":["a","b"],"answer":"a"}]}`))
	}))
	defer srv.Close()

	bank, err := NewClient(srv.URL).Generate(context.Background(), "", Params{Topic: "Go", NumQuestions: 50})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if bank.Questions[0].Prompt == "only one" {
		t.Error("an unusably short bank should trigger the fallback")
	}
	if len(bank.Questions) != 50 {
		t.Errorf("got %d questions, want 50", len(bank.Questions))
	}
}

func TestGenerate_RejectsNonPositiveCount(t *testing.T) {
	if _, err := NewClient("http://unused").Generate(context.Background(), "", Params{Topic: "Go"}); err == nil {
		t.Fatal("NumQuestions=0 should be rejected")
	}
}

func TestFallbackBank_EveryKeyAmongOptions(t *testing.T) {
	bank := FallbackBank(Params{Topic: "Networking", NumQuestions: len(fallbackBank)})
	for _, q := range bank.Questions {
		found := false
		for _, opt := range q.Options {
			if opt == q.Answer {
				found = true
			}
		}
		if !found {
			t.Errorf("question %s: answer %q not among options", q.ID, q.Answer)
		}
	}
}
