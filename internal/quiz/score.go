package quiz

import (
	"errors"
	"math"
	"strings"
)

// PassThreshold is the minimum percentage that counts as a pass.
const PassThreshold = 50

// ErrEmptyQuestionSet is returned when grading is asked to score zero
// questions. The generation service guarantees at least one, so this is
// surfaced rather than defaulted.
var ErrEmptyQuestionSet = errors.New("quiz: empty question set")

// Grade computes the final Score for a set of questions and the taker's
// selections. It is pure: inputs are never mutated and identical inputs
// always yield an identical Score.
//
// Comparison trims leading/trailing whitespace on both sides and is
// otherwise exact (case-sensitive). A missing entry counts as incorrect.
// A question whose answer key does not appear among its own options is
// flagged in Score.Malformed and counted as incorrect; it still counts
// toward the denominator so the percentage stays round(correct/N*100).
func Grade(set QuestionSet, answers AnswerMap) (Score, error) {
	if len(set) == 0 {
		return Score{}, ErrEmptyQuestionSet
	}
	sc := Score{Total: len(set)}
	for _, q := range set {
		if !q.wellFormed() {
			sc.Malformed = append(sc.Malformed, q.ID)
			continue
		}
		sel, ok := answers[q.ID]
		if !ok {
			continue
		}
		if strings.TrimSpace(sel) == strings.TrimSpace(q.Answer) {
			sc.Correct++
		}
	}
	sc.Percentage = roundHalfUp(float64(sc.Correct) / float64(sc.Total) * 100)
	sc.Passed = sc.Percentage >= PassThreshold
	return sc, nil
}

func (q Question) wellFormed() bool {
	want := strings.TrimSpace(q.Answer)
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
