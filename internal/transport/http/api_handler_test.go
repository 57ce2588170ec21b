package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/domain"
	"tutorial-tracker/internal/infra/memory"
)

func newTestService(t *testing.T) (*app.TutorService, *memory.KVStore) {
	t.Helper()
	catalog := testCatalog()
	kv := memory.NewKVStore()
	store := app.NewProgressStore(kv, app.KeysWithPrefix(""))
	clock := func() time.Time { return time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC) }
	service := app.NewTutorService(context.Background(), catalog, memory.NewStaticQuizLoader(catalog.Quizzes), store, app.WithClock(clock))
	return service, kv
}

func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Title: "Rust Tutorial",
		Sections: []domain.Section{
			{
				ID:    "basics",
				Title: "Basics",
				Lessons: []domain.Lesson{
					{ID: "vars", Title: "Variables", Explanation: "Use `let` to bind a value.\n\n• immutable by default\n• `mut` opts in", Language: "rust", Code: "fn main() { let x = 1; }"},
					{ID: "loops", Title: "Loops", Explanation: "loop, while and for."},
				},
			},
			{
				ID:      "extras",
				Title:   "Extras",
				Lessons: []domain.Lesson{{ID: "macros", Title: "Macros", Explanation: "println! is a macro.", Language: "bash", Code: "cargo expand"}},
			},
		},
		Quizzes: map[string]domain.SectionQuiz{
			"basics": {
				SectionID: "basics",
				Title:     "Basics quiz",
				Questions: []domain.QuizQuestion{
					{
						ID:      "q1",
						Prompt:  "Which keyword makes a binding mutable?",
						Kind:    domain.KindSingle,
						Options: []domain.Option{{ID: "a", Text: "let"}, {ID: "b", Text: "mut"}},
						Answer:  []string{"b"},
					},
				},
			},
		},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSelectMarksLessonComplete(t *testing.T) {
	service, kv := newTestService(t)
	h := NewServer(service).Router()

	rec := do(t, h, http.MethodPost, "/api/select", `{"sectionId":"basics","stepId":"loops"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	state := decode(t, rec)
	if state["index"].(float64) != 1 || state["canGoNext"] != true || state["canGoPrevious"] != true {
		t.Fatalf("unexpected state %v", state)
	}

	raw, ok, _ := kv.Get(context.Background(), "tutorial-progress")
	if !ok || raw != `["basics-loops"]` {
		t.Fatalf("expected persisted completion, got %q", raw)
	}
}

func TestSelectUnknownStepDisablesNavigation(t *testing.T) {
	service, _ := newTestService(t)
	h := NewServer(service).Router()

	state := decode(t, do(t, h, http.MethodPost, "/api/select", `{"sectionId":"gone","stepId":"old"}`))
	if state["index"].(float64) != -1 || state["canGoNext"] != false || state["canGoPrevious"] != false {
		t.Fatalf("expected navigation disabled, got %v", state)
	}
	if len(state["completed"].([]any)) != 0 {
		t.Fatalf("stale step must not complete anything")
	}
}

func TestLessonEndpoint(t *testing.T) {
	service, _ := newTestService(t)
	h := NewServer(service).Router()

	rec := do(t, h, http.MethodGet, "/api/lessons/basics/vars", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if !strings.HasPrefix(body["playgroundUrl"].(string), "https://play.rust-lang.org/") {
		t.Fatalf("expected playground link, got %v", body["playgroundUrl"])
	}
	if len(body["blocks"].([]any)) != 2 {
		t.Fatalf("expected 2 blocks, got %v", body["blocks"])
	}

	body = decode(t, do(t, h, http.MethodGet, "/api/lessons/extras/macros", ""))
	if _, ok := body["playgroundUrl"]; ok {
		t.Fatalf("non-rust code must not get a playground link")
	}

	if rec := do(t, h, http.MethodGet, "/api/lessons/basics/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown lesson, got %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	service, _ := newTestService(t)
	h := NewServer(service).Router()

	body := decode(t, do(t, h, http.MethodGet, "/api/search?q=MACRO", ""))
	if body["active"] != true || len(body["results"].([]any)) != 1 {
		t.Fatalf("expected one result, got %v", body)
	}

	body = decode(t, do(t, h, http.MethodGet, "/api/search?q=++", ""))
	if body["active"] != false || len(body["results"].([]any)) != 0 {
		t.Fatalf("blank query must be inactive, got %v", body)
	}
}

func TestQuizEndpoints(t *testing.T) {
	service, _ := newTestService(t)
	h := NewServer(service).Router()

	quiz := decode(t, do(t, h, http.MethodGet, "/api/quizzes/basics", ""))
	if quiz["available"] != true || quiz["passPercent"].(float64) != 90 {
		t.Fatalf("unexpected quiz view %v", quiz)
	}
	question := quiz["questions"].([]any)[0].(map[string]any)
	if _, leaked := question["answer"]; leaked {
		t.Fatalf("answers must not be exposed before submit")
	}

	missing := decode(t, do(t, h, http.MethodGet, "/api/quizzes/extras", ""))
	if missing["available"] != false {
		t.Fatalf("expected unavailable quiz, got %v", missing)
	}
	if rec := do(t, h, http.MethodPost, "/api/quizzes/extras/submit", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 submitting unavailable quiz, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPost, "/api/quizzes/basics/toggle", `{"questionId":"q1","optionId":"zz"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown option, got %d", rec.Code)
	}
	do(t, h, http.MethodPost, "/api/quizzes/basics/toggle", `{"questionId":"q1","optionId":"b"}`)

	result := decode(t, do(t, h, http.MethodPost, "/api/quizzes/basics/submit", ""))
	if result["passed"] != true {
		t.Fatalf("expected pass, got %v", result)
	}
	record := result["record"].(map[string]any)
	if record["attempts"].(float64) != 1 || record["bestPercent"].(float64) != 100 {
		t.Fatalf("unexpected record %v", record)
	}

	do(t, h, http.MethodPost, "/api/quizzes/basics/reset", "")
	if draft := service.Draft("basics"); len(draft) != 0 {
		t.Fatalf("expected draft cleared, got %v", draft)
	}
}

func TestThemeEndpoint(t *testing.T) {
	service, _ := newTestService(t)
	h := NewServer(service).Router()

	state := decode(t, do(t, h, http.MethodPost, "/api/theme", `{"toggle":true}`))
	if state["theme"] != "dark" {
		t.Fatalf("expected dark after toggle, got %v", state["theme"])
	}
	if rec := do(t, h, http.MethodPost, "/api/theme", `{"theme":"sepia"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid theme, got %d", rec.Code)
	}
	state = decode(t, do(t, h, http.MethodPost, "/api/theme", `{"theme":"light"}`))
	if state["theme"] != "light" {
		t.Fatalf("expected light, got %v", state["theme"])
	}
}

func TestReportDownloads(t *testing.T) {
	service, _ := newTestService(t)
	h := NewServer(service, WithReportName("rust")).Router()

	rec := do(t, h, http.MethodGet, "/api/report.md", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="rust-report-2024-11-22.md"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.Contains(rec.Body.String(), "| Basics | 0/2 (0%) | not attempted | no |") {
		t.Fatalf("unexpected markdown:\n%s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/report", "")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") || !strings.Contains(rec.Body.String(), "<table>") {
		t.Fatalf("expected html report, got %s", rec.Body.String())
	}

	doc := decode(t, do(t, h, http.MethodGet, "/api/report.json", ""))
	if doc["title"] != "Rust Tutorial" {
		t.Fatalf("unexpected report %v", doc)
	}
}
