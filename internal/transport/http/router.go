package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/content"
)

// Server exposes the tutor service over REST and a WebSocket state feed.
type Server struct {
	service    *app.TutorService
	ws         *WSHandler
	reportName string
	playground content.PlaygroundOptions
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithReportName sets the file name stem used in report downloads.
func WithReportName(name string) ServerOption {
	return func(s *Server) { s.reportName = name }
}

// WithPlayground overrides the playground link settings.
func WithPlayground(opts content.PlaygroundOptions) ServerOption {
	return func(s *Server) { s.playground = opts }
}

func NewServer(service *app.TutorService, opts ...ServerOption) *Server {
	s := &Server{
		service:    service,
		ws:         NewWSHandler(service),
		reportName: app.DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.ws.ServeWS)
	r.Get("/report", s.handleReportHTML)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/state", s.handleState)
		r.Get("/steps", s.handleSteps)
		r.Post("/select", s.handleSelect)
		r.Post("/next", s.handleNext)
		r.Post("/previous", s.handlePrevious)

		r.Get("/lessons/{sectionID}/{lessonID}", s.handleLesson)
		r.Get("/search", s.handleSearch)

		r.Route("/quizzes/{sectionID}", func(r chi.Router) {
			r.Get("/", s.handleQuiz)
			r.Post("/toggle", s.handleToggle)
			r.Post("/submit", s.handleSubmit)
			r.Post("/reset", s.handleResetAnswers)
		})

		r.Post("/theme", s.handleTheme)
		r.Get("/report.json", s.handleReportJSON)
		r.Get("/report.md", s.handleReportMarkdown)
	})

	return r
}
