package app

import "tutorial-tracker/internal/domain"

// NotFound is returned by IndexOf when a step is not part of the order.
const NotFound = -1

// Flatten lays the catalog out as one linear order: every lesson of a section in
// catalog order, followed by that section's quiz step.
func Flatten(catalog *domain.Catalog) []domain.Step {
	steps := make([]domain.Step, 0, catalog.LessonCount()+len(catalog.Sections))
	for _, section := range catalog.Sections {
		for _, lesson := range section.Lessons {
			steps = append(steps, domain.Step{SectionID: section.ID, StepID: lesson.ID})
		}
		steps = append(steps, domain.Step{SectionID: section.ID, StepID: domain.QuizStepID})
	}
	return steps
}

// IndexOf returns the position of step, or NotFound for stale references.
func IndexOf(steps []domain.Step, step domain.Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return NotFound
}

// Next returns the step after index.
func Next(steps []domain.Step, index int) (domain.Step, bool) {
	if index < 0 || index+1 >= len(steps) {
		return domain.Step{}, false
	}
	return steps[index+1], true
}

// Previous returns the step before index.
func Previous(steps []domain.Step, index int) (domain.Step, bool) {
	if index <= 0 || index >= len(steps) {
		return domain.Step{}, false
	}
	return steps[index-1], true
}
