package domain

import "time"

// QuizStepID is the reserved step identifier for a section's quiz. No lesson may use it.
const QuizStepID = "__quiz__"

// DefaultPassPercent applies when a quiz does not set its own threshold.
const DefaultPassPercent = 90

// Lesson is one page of tutorial content inside a section.
type Lesson struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	Language    string   `json:"language,omitempty" yaml:"language"`
	Code        string   `json:"code,omitempty" yaml:"code"`
	Output      string   `json:"output,omitempty" yaml:"output"`
	Tips        []string `json:"tips,omitempty" yaml:"tips"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings"`
}

// Section groups lessons; its quiz (if any) lives in Catalog.Quizzes.
type Section struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Lessons     []Lesson `json:"lessons" yaml:"lessons"`
}

// Catalog is the immutable content tree loaded at startup.
type Catalog struct {
	Title    string                 `json:"title"`
	Target   string                 `json:"target,omitempty"`
	Sections []Section              `json:"sections"`
	Quizzes  map[string]SectionQuiz `json:"quizzes,omitempty"`
}

// Section looks up a section by id.
func (c *Catalog) Section(id string) (*Section, bool) {
	for i := range c.Sections {
		if c.Sections[i].ID == id {
			return &c.Sections[i], true
		}
	}
	return nil, false
}

// Lesson looks up a lesson inside a section.
func (c *Catalog) Lesson(sectionID, lessonID string) (*Lesson, bool) {
	section, ok := c.Section(sectionID)
	if !ok {
		return nil, false
	}
	for i := range section.Lessons {
		if section.Lessons[i].ID == lessonID {
			return &section.Lessons[i], true
		}
	}
	return nil, false
}

// LessonCount is the number of lessons across all sections.
func (c *Catalog) LessonCount() int {
	total := 0
	for _, s := range c.Sections {
		total += len(s.Lessons)
	}
	return total
}

// Step addresses either a lesson or the quiz of a section.
type Step struct {
	SectionID string `json:"sectionId"`
	StepID    string `json:"stepId"`
}

// IsQuiz reports whether the step is a section quiz.
func (s Step) IsQuiz() bool {
	return s.StepID == QuizStepID
}

// LessonKey returns the composite completion key for a lesson step.
func (s Step) LessonKey() string {
	return LessonKey(s.SectionID, s.StepID)
}

// LessonKey builds the stable "sectionId-lessonId" key stored in the completion set.
func LessonKey(sectionID, lessonID string) string {
	return sectionID + "-" + lessonID
}

// QuestionKind decides how selections are toggled.
type QuestionKind string

const (
	KindSingle    QuestionKind = "single"
	KindMulti     QuestionKind = "multi"
	KindTrueFalse QuestionKind = "true-false"
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// QuizQuestion is a question with one or more correct options.
type QuizQuestion struct {
	ID          string       `json:"id" yaml:"id"`
	Prompt      string       `json:"prompt" yaml:"prompt"`
	Kind        QuestionKind `json:"kind" yaml:"kind"`
	Options     []Option     `json:"options" yaml:"options"`
	Answer      []string     `json:"answer" yaml:"answer"`
	Explanation string       `json:"explanation,omitempty" yaml:"explanation"`
	Code        string       `json:"code,omitempty" yaml:"code"`
}

// HasOption reports whether optionID belongs to the question.
func (q QuizQuestion) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// SectionQuiz is the quiz bank of one section.
type SectionQuiz struct {
	SectionID   string         `json:"sectionId" yaml:"section_id"`
	Title       string         `json:"title" yaml:"title"`
	PassPercent int            `json:"passPercent" yaml:"pass_percent"`
	Questions   []QuizQuestion `json:"questions" yaml:"questions"`
}

// Available is false when nothing has been authored yet.
func (q SectionQuiz) Available() bool {
	return len(q.Questions) > 0
}

// Threshold returns the pass percent, defaulting to DefaultPassPercent.
func (q SectionQuiz) Threshold() int {
	if q.PassPercent <= 0 {
		return DefaultPassPercent
	}
	return q.PassPercent
}

// Question looks up a question by id.
func (q SectionQuiz) Question(id string) (*QuizQuestion, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// QuizProgressRecord is the best outcome of a section's quiz so far.
type QuizProgressRecord struct {
	BestPercent   int       `json:"bestPercent"`
	Passed        bool      `json:"passed"`
	Attempts      int       `json:"attempts"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

// QuizProgress maps section ids to their quiz record. A missing key means never attempted.
type QuizProgress map[string]QuizProgressRecord

// Clone returns an independent copy.
func (p QuizProgress) Clone() QuizProgress {
	out := make(QuizProgress, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Theme is the persisted colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(raw string) (Theme, error) {
	switch Theme(raw) {
	case ThemeLight, ThemeDark:
		return Theme(raw), nil
	}
	return "", ErrInvalidTheme
}

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
