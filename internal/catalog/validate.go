package catalog

import (
	"fmt"
	"strings"

	"tutorial-tracker/internal/domain"
)

// Validate checks the invariants a schema cannot express: unique ids, the
// reserved quiz step id, and quiz answers that reference real options.
func Validate(catalog *domain.Catalog, order []string) error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	seenSections := make(map[string]bool, len(catalog.Sections))
	for i, section := range catalog.Sections {
		if i < len(order) && section.ID != order[i] {
			add("section file %q declares id %q", order[i], section.ID)
		}
		if seenSections[section.ID] {
			add("duplicate section %q", section.ID)
		}
		seenSections[section.ID] = true

		seenLessons := make(map[string]bool, len(section.Lessons))
		for _, lesson := range section.Lessons {
			if lesson.ID == domain.QuizStepID {
				add("section %q: lesson id %q is reserved", section.ID, lesson.ID)
			}
			if seenLessons[lesson.ID] {
				add("section %q: duplicate lesson %q", section.ID, lesson.ID)
			}
			seenLessons[lesson.ID] = true
		}
	}

	for sectionID, quiz := range catalog.Quizzes {
		if !seenSections[sectionID] {
			add("quiz for unknown section %q", sectionID)
		}
		if quiz.SectionID != sectionID {
			add("quiz file %q declares section %q", sectionID, quiz.SectionID)
		}
		if quiz.PassPercent < 0 || quiz.PassPercent > 100 {
			add("quiz %q: pass_percent %d out of range", sectionID, quiz.PassPercent)
		}
		validateQuestions(sectionID, quiz.Questions, add)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidCatalog, strings.Join(problems, "; "))
}

func validateQuestions(sectionID string, questions []domain.QuizQuestion, add func(string, ...interface{})) {
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			add("quiz %q: duplicate question %q", sectionID, q.ID)
		}
		seen[q.ID] = true

		switch q.Kind {
		case domain.KindSingle, domain.KindTrueFalse:
			if len(q.Answer) != 1 {
				add("quiz %q: question %q of kind %s needs exactly one answer", sectionID, q.ID, q.Kind)
			}
		case domain.KindMulti:
		default:
			add("quiz %q: question %q has unknown kind %q", sectionID, q.ID, q.Kind)
		}

		options := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if options[o.ID] {
				add("quiz %q: question %q repeats option %q", sectionID, q.ID, o.ID)
			}
			options[o.ID] = true
		}
		for _, a := range q.Answer {
			if !options[a] {
				add("quiz %q: question %q answer %q is not an option", sectionID, q.ID, a)
			}
		}
	}
}
