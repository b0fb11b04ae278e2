package quiz

// Question is one multiple-choice item as delivered by the generation
// service. Immutable once a session starts.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer,omitempty"` // canonical correct option, stripped when served to takers
}

// QuestionSet is the ordered collection presented in one session. Its
// length determines the session's time allotment (60 units per question).
type QuestionSet []Question

// AnswerMap holds the taker's selections keyed by question ID. Entries
// are overwritten until the session is finalized (last selection wins).
type AnswerMap map[string]string

// Score is the one-time outcome of a session.
type Score struct {
	Percentage int      `json:"percentage"` // 0..100
	Passed     bool     `json:"passed"`
	Correct    int      `json:"correct"`
	Total      int      `json:"total"`
	Malformed  []string `json:"malformed,omitempty"` // IDs whose answer key is not among their options
}

// TimePerQuestion is the allotment per question, in clock units (seconds).
const TimePerQuestion = 60

// Duration returns the total clock allotment for the set.
func (set QuestionSet) Duration() int {
	return len(set) * TimePerQuestion
}
