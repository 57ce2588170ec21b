package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/content"
	"tutorial-tracker/internal/domain"
	"tutorial-tracker/internal/report"
)

type selectRequest struct {
	SectionID string `json:"sectionId"`
	StepID    string `json:"stepId"`
}

type toggleRequest struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type themeRequest struct {
	Theme  string `json:"theme"`
	Toggle bool   `json:"toggle"`
}

type lessonResponse struct {
	Section       sectionHeader   `json:"section"`
	Lesson        domain.Lesson   `json:"lesson"`
	Blocks        []content.Block `json:"blocks"`
	PlaygroundURL string          `json:"playgroundUrl,omitempty"`
	Completed     bool            `json:"completed"`
}

type sectionHeader struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type searchResponse struct {
	Query   string             `json:"query"`
	Active  bool               `json:"active"`
	Results []app.SearchResult `json:"results"`
}

// quizView hides answers and explanations until the learner submits.
type quizView struct {
	Available   bool                       `json:"available"`
	SectionID   string                     `json:"sectionId"`
	Title       string                     `json:"title,omitempty"`
	PassPercent int                        `json:"passPercent,omitempty"`
	Questions   []questionView             `json:"questions,omitempty"`
	Draft       app.Answers                `json:"draft,omitempty"`
	Record      *domain.QuizProgressRecord `json:"record,omitempty"`
}

type questionView struct {
	ID      string              `json:"id"`
	Prompt  string              `json:"prompt"`
	Kind    domain.QuestionKind `json:"kind"`
	Options []domain.Option     `json:"options"`
	Code    string              `json:"code,omitempty"`
}

type answersResponse struct {
	SectionID string      `json:"sectionId"`
	Answers   app.Answers `json:"answers"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.State())
}

func (s *Server) handleSteps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Steps())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	state, err := s.service.Select(r.Context(), req.SectionID, req.StepID)
	s.respondState(w, state, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GoNext(r.Context())
	s.respondState(w, state, err)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GoPrevious(r.Context())
	s.respondState(w, state, err)
}

func (s *Server) respondState(w http.ResponseWriter, state app.State, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	sectionID := chi.URLParam(r, "sectionID")
	section, lesson, err := s.service.Lesson(sectionID, chi.URLParam(r, "lessonID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := lessonResponse{
		Section:   sectionHeader{ID: section.ID, Title: section.Title, Description: section.Description},
		Lesson:    *lesson,
		Blocks:    content.Format(lesson.Explanation),
		Completed: contains(s.service.State().Completed, domain.LessonKey(section.ID, lesson.ID)),
	}
	if isRust(lesson.Language) {
		if link, ok := content.PlaygroundURL(lesson.Code, s.playground); ok {
			resp.PlaygroundURL = link
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results, active := s.service.Search(query)
	if results == nil {
		results = []app.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Active: active, Results: results})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	sectionID := chi.URLParam(r, "sectionID")
	quiz, err := s.service.Quiz(r.Context(), sectionID)
	if errors.Is(err, domain.ErrQuizUnavailable) {
		writeJSON(w, http.StatusOK, quizView{Available: false, SectionID: sectionID})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	view := quizView{
		Available:   true,
		SectionID:   sectionID,
		Title:       quiz.Title,
		PassPercent: quiz.Threshold(),
		Questions:   make([]questionView, 0, len(quiz.Questions)),
		Draft:       s.service.Draft(sectionID),
	}
	for _, q := range quiz.Questions {
		view.Questions = append(view.Questions, questionView{ID: q.ID, Prompt: q.Prompt, Kind: q.Kind, Options: q.Options, Code: q.Code})
	}
	if rec, ok := s.service.State().QuizProgress[sectionID]; ok {
		view.Record = &rec
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sectionID := chi.URLParam(r, "sectionID")
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	answers, err := s.service.ToggleAnswer(r.Context(), sectionID, req.QuestionID, req.OptionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answersResponse{SectionID: sectionID, Answers: answers})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.SubmitQuiz(r.Context(), chi.URLParam(r, "sectionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResetAnswers(w http.ResponseWriter, r *http.Request) {
	sectionID := chi.URLParam(r, "sectionID")
	s.service.ResetAnswers(sectionID)
	writeJSON(w, http.StatusOK, answersResponse{SectionID: sectionID, Answers: app.Answers{}})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	var (
		state app.State
		err   error
	)
	if req.Toggle {
		state, err = s.service.ToggleTheme(r.Context())
	} else {
		state, err = s.service.SetTheme(r.Context(), domain.Theme(req.Theme))
	}
	s.respondState(w, state, err)
}

func (s *Server) handleReportJSON(w http.ResponseWriter, _ *http.Request) {
	s.writeReport(w, report.FormatJSON, true)
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, _ *http.Request) {
	s.writeReport(w, report.FormatMarkdown, true)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, _ *http.Request) {
	s.writeReport(w, report.FormatHTML, false)
}

func (s *Server) writeReport(w http.ResponseWriter, f report.Format, download bool) {
	doc := s.service.Report()
	data, err := report.Render(doc, f)
	if err != nil {
		slog.Error("render report", "format", f, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if download {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(s.reportName, doc, f)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSectionNotFound),
		errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrStepNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQuizUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrInvalidTheme):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func isRust(language string) bool {
	return language == "" || strings.EqualFold(language, "rust")
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
