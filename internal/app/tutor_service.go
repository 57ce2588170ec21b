package app

import (
	"context"
	"sync"
	"time"

	"tutorial-tracker/internal/domain"
)

// QuizRepository loads quiz banks (from the catalog, a cache or a backing store).
// Sections without an authored quiz yield domain.ErrQuizUnavailable.
type QuizRepository interface {
	GetQuiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error)
}

// State is the snapshot handed to the presentation layer after every transition.
type State struct {
	Current       domain.Step         `json:"current"`
	Index         int                 `json:"index"`
	StepCount     int                 `json:"stepCount"`
	CanGoNext     bool                `json:"canGoNext"`
	CanGoPrevious bool                `json:"canGoPrevious"`
	Completed     []string            `json:"completed"`
	QuizProgress  domain.QuizProgress `json:"quizProgress"`
	Theme         domain.Theme        `json:"theme"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// QuizResult is returned from a submission.
type QuizResult struct {
	SectionID string                    `json:"sectionId"`
	Score     Score                     `json:"score"`
	Passed    bool                      `json:"passed"`
	Record    domain.QuizProgressRecord `json:"record"`
	Review    []QuestionReview          `json:"review"`
}

// Option customises a TutorService.
type Option func(*TutorService)

// WithClock overrides time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *TutorService) { s.now = now }
}

// TutorService owns the single in-memory progress snapshot and writes every
// committed change through to the ProgressStore before the call returns.
// Actions are serialized by mu, so at most one transition is in flight.
type TutorService struct {
	catalog *domain.Catalog
	steps   []domain.Step
	quizzes QuizRepository
	store   *ProgressStore
	now     func() time.Time

	mu           sync.RWMutex
	current      domain.Step
	index        int
	completion   domain.CompletionSet
	quizProgress domain.QuizProgress
	theme        domain.Theme
	drafts       map[string]Answers
	subscribers  map[chan State]struct{}
}

// NewTutorService restores persisted progress and positions the learner on the first step.
func NewTutorService(ctx context.Context, catalog *domain.Catalog, quizzes QuizRepository, store *ProgressStore, opts ...Option) *TutorService {
	s := &TutorService{
		catalog:     catalog,
		steps:       Flatten(catalog),
		quizzes:     quizzes,
		store:       store,
		now:         time.Now,
		index:       NotFound,
		drafts:      make(map[string]Answers),
		subscribers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.completion, s.quizProgress = store.Load(ctx)
	s.theme = store.LoadTheme(ctx)
	if len(s.steps) > 0 {
		s.current = s.steps[0]
		s.index = 0
	}
	return s
}

// Catalog returns the content the service navigates.
func (s *TutorService) Catalog() *domain.Catalog {
	return s.catalog
}

// Steps returns the flattened navigation order.
func (s *TutorService) Steps() []domain.Step {
	return append([]domain.Step(nil), s.steps...)
}

// State returns the current snapshot.
func (s *TutorService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// CanGoNext reports whether a following step exists.
func (s *TutorService) CanGoNext() bool {
	return s.State().CanGoNext
}

// CanGoPrevious reports whether a preceding step exists.
func (s *TutorService) CanGoPrevious() bool {
	return s.State().CanGoPrevious
}

// Select moves to a step. Lesson steps are marked complete and persisted; quiz
// steps and steps missing from the catalog leave the completion set untouched.
func (s *TutorService) Select(ctx context.Context, sectionID, stepID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.selectLocked(ctx, domain.Step{SectionID: sectionID, StepID: stepID})
	return s.broadcastLocked(), err
}

// GoNext moves forward; it is a no-op when there is no next step.
func (s *TutorService) GoNext(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := Next(s.steps, s.index)
	if !ok {
		return s.snapshotLocked(), nil
	}
	err := s.selectLocked(ctx, next)
	return s.broadcastLocked(), err
}

// GoPrevious moves backward; it is a no-op when there is no previous step.
func (s *TutorService) GoPrevious(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := Previous(s.steps, s.index)
	if !ok {
		return s.snapshotLocked(), nil
	}
	err := s.selectLocked(ctx, prev)
	return s.broadcastLocked(), err
}

func (s *TutorService) selectLocked(ctx context.Context, step domain.Step) error {
	s.current = step
	s.index = IndexOf(s.steps, step)
	if s.index == NotFound || step.IsQuiz() {
		return nil
	}

	next := s.completion.Clone()
	if !next.Add(step.LessonKey()) {
		return nil
	}
	if err := s.store.SaveCompletion(ctx, next); err != nil {
		return err
	}
	s.completion = next
	return nil
}

// Lesson resolves a lesson and its section.
func (s *TutorService) Lesson(sectionID, lessonID string) (*domain.Section, *domain.Lesson, error) {
	section, ok := s.catalog.Section(sectionID)
	if !ok {
		return nil, nil, domain.ErrSectionNotFound
	}
	lesson, ok := s.catalog.Lesson(sectionID, lessonID)
	if !ok {
		return nil, nil, domain.ErrLessonNotFound
	}
	return section, lesson, nil
}

// Quiz returns the section's quiz bank, or domain.ErrQuizUnavailable when none is authored.
func (s *TutorService) Quiz(ctx context.Context, sectionID string) (domain.SectionQuiz, error) {
	if _, ok := s.catalog.Section(sectionID); !ok {
		return domain.SectionQuiz{}, domain.ErrSectionNotFound
	}
	quiz, err := s.quizzes.GetQuiz(ctx, sectionID)
	if err != nil {
		return domain.SectionQuiz{}, err
	}
	if !quiz.Available() {
		return domain.SectionQuiz{}, domain.ErrQuizUnavailable
	}
	return quiz, nil
}

// Draft returns the in-progress answers for a section.
func (s *TutorService) Draft(sectionID string) Answers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[sectionID].Clone()
}

// ToggleAnswer applies a click on an option to the section's draft answers.
func (s *TutorService) ToggleAnswer(ctx context.Context, sectionID, questionID, optionID string) (Answers, error) {
	quiz, err := s.Quiz(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	question, ok := quiz.Question(questionID)
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.drafts[sectionID].Clone()
	selection, err := ToggleSelection(*question, draft[questionID], optionID)
	if err != nil {
		return nil, err
	}
	draft[questionID] = selection
	s.drafts[sectionID] = draft
	return draft.Clone(), nil
}

// ResetAnswers clears the draft so the quiz can be retaken.
func (s *TutorService) ResetAnswers(sectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, sectionID)
}

// SubmitQuiz grades the current draft for a section.
func (s *TutorService) SubmitQuiz(ctx context.Context, sectionID string) (QuizResult, error) {
	return s.submit(ctx, sectionID, nil)
}

// SubmitAnswers replaces the draft with answers and grades it.
func (s *TutorService) SubmitAnswers(ctx context.Context, sectionID string, answers Answers) (QuizResult, error) {
	if answers == nil {
		answers = Answers{}
	}
	return s.submit(ctx, sectionID, answers)
}

// submit commits the new record in memory only once it has been persisted.
func (s *TutorService) submit(ctx context.Context, sectionID string, answers Answers) (QuizResult, error) {
	quiz, err := s.Quiz(ctx, sectionID)
	if err != nil {
		return QuizResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if answers == nil {
		answers = s.drafts[sectionID]
	}
	var prior *domain.QuizProgressRecord
	if rec, ok := s.quizProgress[sectionID]; ok {
		prior = &rec
	}

	record, score, err := Submit(quiz, answers, prior, s.now())
	if err != nil {
		return QuizResult{}, err
	}

	next := s.quizProgress.Clone()
	next[sectionID] = record
	if err := s.store.SaveQuizProgress(ctx, next); err != nil {
		return QuizResult{}, err
	}
	s.quizProgress = next
	s.drafts[sectionID] = answers.Clone()
	s.broadcastLocked()

	return QuizResult{
		SectionID: sectionID,
		Score:     score,
		Passed:    score.Percent >= quiz.Threshold(),
		Record:    record,
		Review:    Review(quiz, answers),
	}, nil
}

// SetTheme persists a theme choice.
func (s *TutorService) SetTheme(ctx context.Context, theme domain.Theme) (State, error) {
	if _, err := domain.ParseTheme(string(theme)); err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveTheme(ctx, theme); err != nil {
		return s.snapshotLocked(), err
	}
	s.theme = theme
	return s.broadcastLocked(), nil
}

// ToggleTheme flips between dark and light.
func (s *TutorService) ToggleTheme(ctx context.Context) (State, error) {
	return s.SetTheme(ctx, s.State().Theme.Toggle())
}

// Report builds a progress report from the current snapshot.
func (s *TutorService) Report() ReportDocument {
	s.mu.RLock()
	completion := s.completion.Clone()
	quizzes := s.quizProgress.Clone()
	s.mu.RUnlock()
	return BuildReport(s.catalog, completion, quizzes, s.now())
}

// Search looks up lessons matching query.
func (s *TutorService) Search(query string) ([]SearchResult, bool) {
	return Search(s.catalog, query)
}

// Subscribe returns a channel that receives a State after every committed transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *TutorService) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *TutorService) broadcastLocked() State {
	state := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- state:
		default:
			// Slow subscriber: drop its oldest update so the latest state gets through.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
	return state
}

func (s *TutorService) snapshotLocked() State {
	_, canNext := Next(s.steps, s.index)
	_, canPrev := Previous(s.steps, s.index)
	return State{
		Current:       s.current,
		Index:         s.index,
		StepCount:     len(s.steps),
		CanGoNext:     canNext,
		CanGoPrevious: canPrev,
		Completed:     s.completion.Keys(),
		QuizProgress:  s.quizProgress.Clone(),
		Theme:         s.theme,
		UpdatedAt:     s.now(),
	}
}
