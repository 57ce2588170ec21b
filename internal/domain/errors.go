package domain

import "errors"

var (
	// ErrStepNotFound is returned when a step is not part of the flattened catalog.
	ErrStepNotFound = errors.New("step not found")
	// ErrSectionNotFound indicates an unknown section id.
	ErrSectionNotFound = errors.New("section not found")
	// ErrLessonNotFound indicates an unknown lesson id.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrQuizUnavailable means no quiz has been authored for the section yet.
	ErrQuizUnavailable = errors.New("quiz not yet available")
	// ErrQuestionNotFound indicates a question id that is not in the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option id that is not part of the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidCatalog is returned when content fails validation at load time.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInvalidTheme is returned for anything other than "dark" or "light".
	ErrInvalidTheme = errors.New("theme must be dark or light")
)
