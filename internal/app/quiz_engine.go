package app

import (
	"time"

	"tutorial-tracker/internal/domain"
)

// Answers maps question ids to the option ids a learner selected.
type Answers map[string][]string

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Score is the outcome of grading one attempt.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// QuestionReview explains how a single question was graded.
type QuestionReview struct {
	QuestionID  string   `json:"questionId"`
	Correct     bool     `json:"correct"`
	Selected    []string `json:"selected"`
	Expected    []string `json:"expected"`
	Explanation string   `json:"explanation,omitempty"`
}

// ScoreQuiz grades answers against the quiz. A question counts only when the
// selection equals the correct set exactly; there is no partial credit.
func ScoreQuiz(quiz domain.SectionQuiz, answers Answers) Score {
	correct := 0
	for _, q := range quiz.Questions {
		if answeredCorrectly(q, answers[q.ID]) {
			correct++
		}
	}
	total := len(quiz.Questions)
	return Score{Correct: correct, Total: total, Percent: percent(correct, total)}
}

// Submit folds a new attempt into the prior record. The pass flag is sticky and
// the best percent never decreases.
func Submit(quiz domain.SectionQuiz, answers Answers, prior *domain.QuizProgressRecord, now time.Time) (domain.QuizProgressRecord, Score, error) {
	if !quiz.Available() {
		return domain.QuizProgressRecord{}, Score{}, domain.ErrQuizUnavailable
	}

	score := ScoreQuiz(quiz, answers)
	record := domain.QuizProgressRecord{
		BestPercent:   score.Percent,
		Passed:        score.Percent >= quiz.Threshold(),
		Attempts:      1,
		LastAttemptAt: now,
	}
	if prior != nil {
		if prior.BestPercent > record.BestPercent {
			record.BestPercent = prior.BestPercent
		}
		record.Passed = record.Passed || prior.Passed
		record.Attempts = prior.Attempts + 1
	}
	return record, score, nil
}

// ToggleSelection applies a click on optionID to the current selection.
// Single and true/false questions replace the selection; multi toggles membership.
func ToggleSelection(question domain.QuizQuestion, current []string, optionID string) ([]string, error) {
	if !question.HasOption(optionID) {
		return nil, domain.ErrOptionNotFound
	}
	if question.Kind != domain.KindMulti {
		return []string{optionID}, nil
	}

	next := make([]string, 0, len(current)+1)
	removed := false
	for _, id := range current {
		if id == optionID {
			removed = true
			continue
		}
		next = append(next, id)
	}
	if !removed {
		next = append(next, optionID)
	}
	return next, nil
}

// Review reports per-question correctness for display after a submission.
func Review(quiz domain.SectionQuiz, answers Answers) []QuestionReview {
	out := make([]QuestionReview, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		selected := answers[q.ID]
		if selected == nil {
			selected = []string{}
		}
		out = append(out, QuestionReview{
			QuestionID:  q.ID,
			Correct:     answeredCorrectly(q, selected),
			Selected:    append([]string{}, selected...),
			Expected:    append([]string(nil), q.Answer...),
			Explanation: q.Explanation,
		})
	}
	return out
}

func answeredCorrectly(q domain.QuizQuestion, selected []string) bool {
	got := toSet(selected)
	if len(got) == 0 {
		return false
	}
	want := toSet(q.Answer)
	if len(got) != len(want) {
		return false
	}
	for id := range want {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// percent rounds part/total*100 half-up using integer math; 0 when total is 0.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}
