package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apex-eduai/examvault/internal/quiz"
)

// DefaultBaseURL is the keyless text-generation endpoint used for
// question generation.
const DefaultBaseURL = "https://text.pollinations.ai"

const (
	defaultRetries = 2
	defaultBackoff = 500 * time.Millisecond
	// A response this far short of the request is treated as a failed
	// generation rather than padded up.
	minUsableFraction = 5
)

// Params describes one generation request.
type Params struct {
	Topic        string
	Level        string
	ExamType     string
	Difficulty   string
	NumQuestions int
}

// Bank is a generated question bank, answer keys included.
type Bank struct {
	Title     string           `json:"title"`
	Questions quiz.QuestionSet `json:"questions"`
}

// Client talks to the external generation API. On any transport error,
// non-JSON payload, or an unusably short bank it falls back to the
// built-in template bank so generation is total.
type Client struct {
	baseURL string
	httpc   *http.Client
	retries int
	backoff time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpc = h } }
func WithRetries(n int) Option             { return func(c *Client) { c.retries = n } }
func WithBackoff(d time.Duration) Option   { return func(c *Client) { c.backoff = d } }

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate produces exactly p.NumQuestions multiple-choice questions for
// the topic, using contextText as optional source material. Question IDs
// are assigned "1".."N" regardless of what the upstream model returns.
func (c *Client) Generate(ctx context.Context, contextText string, p Params) (Bank, error) {
	if p.NumQuestions <= 0 {
		return Bank{}, fmt.Errorf("genai: num questions must be positive, got %d", p.NumQuestions)
	}
	if p.Topic == "" {
		p.Topic = "General Knowledge"
	}

	body, err := c.fetch(ctx, c.prompt(contextText, p))
	if err != nil {
		return FallbackBank(p), nil
	}
	bank, ok := parseBank(body)
	if !ok || len(bank.Questions) < minUsable(p.NumQuestions) {
		return FallbackBank(p), nil
	}

	bank.Questions = cyclePad(bank.Questions, p.NumQuestions)
	numberQuestions(bank.Questions)
	bank.Title = bankTitle(p.Topic, p.NumQuestions)
	return bank, nil
}

func (c *Client) prompt(contextText string, p Params) string {
	hint := map[string]string{
		"Easy":     "straightforward recall questions",
		"Moderate": "application-level questions",
		"Hard":     "analytical, evaluative questions",
	}[p.Difficulty]
	if hint == "" {
		hint = "balanced questions"
	}
	if len(contextText) > 2000 {
		contextText = contextText[:2000]
	}
	return fmt.Sprintf(
		"Generate exactly %d multiple choice questions about '%s'. "+
			"Difficulty must be %s (%s). "+
			"Format strictly as JSON with an array named 'questions', where each element is an object with: "+
			"'question', 'options' (Array of exactly 4 strings), and 'answer' (exact string matching an option). "+
			"Only return the JSON. Never add any conversation or markdown ticks. "+
			"Use the following text as context if relevant: %s",
		p.NumQuestions, p.Topic, p.Difficulty, hint, contextText)
}

// fetch performs the GET with a thin retry wrapper: transport errors and
// 5xx responses are retried with doubling backoff, anything else is final.
func (c *Client) fetch(ctx context.Context, prompt string) ([]byte, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(prompt) + "?json=true"

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("genai: upstream status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("genai: upstream status %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, lastErr
}

// parseBank digs the JSON object out of a possibly chatty model response:
// markdown fences are stripped and everything outside the outermost braces
// is discarded.
func parseBank(body []byte) (Bank, bool) {
	content := strings.TrimSpace(strings.ReplaceAll(string(body), "```json", ""))
	content = strings.ReplaceAll(content, "```", "")
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return Bank{}, false
	}
	var bank Bank
	if err := json.Unmarshal([]byte(content[start:end+1]), &bank); err != nil {
		return Bank{}, false
	}
	return bank, true
}

func minUsable(n int) int {
	if n/minUsableFraction > 5 {
		return n / minUsableFraction
	}
	return 5
}

// cyclePad repeats the bank until it holds exactly n questions.
func cyclePad(qs quiz.QuestionSet, n int) quiz.QuestionSet {
	if len(qs) == 0 {
		return qs
	}
	out := make(quiz.QuestionSet, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, qs[i%len(qs)])
	}
	return out
}

func numberQuestions(qs quiz.QuestionSet) {
	for i := range qs {
		qs[i].ID = strconv.Itoa(i + 1)
	}
}

func bankTitle(topic string, n int) string {
	return fmt.Sprintf("%s: %d-Question Assessment", topic, n)
}
