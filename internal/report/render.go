package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"tutorial-tracker/internal/app"
)

// Format names an export format; its value doubles as the file extension.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts the extension or a common alias.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(raw, ".")) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown report format %q", raw)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Render encodes doc in the requested format.
func Render(doc app.ReportDocument, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(doc)
	case FormatMarkdown:
		return []byte(Markdown(doc)), nil
	case FormatHTML:
		return HTML(doc)
	case FormatXLSX:
		return XLSX(doc)
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}

// JSON renders the document as indented JSON.
func JSON(doc app.ReportDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Markdown renders a human-readable summary with one table row per section.
func Markdown(doc app.ReportDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s progress report\n\n", doc.Title)
	fmt.Fprintf(&b, "Generated: %s\n\n", doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	if doc.Target != "" {
		fmt.Fprintf(&b, "Target: %s\n\n", doc.Target)
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Lessons: %s\n", tally(doc.Summary.Lessons))
	fmt.Fprintf(&b, "- Quizzes passed: %d\n", doc.Summary.QuizzesPassed)
	fmt.Fprintf(&b, "- Sections complete: %d/%d\n\n", doc.Summary.CompletedSections, doc.Summary.TotalSections)

	b.WriteString("## Sections\n\n")
	b.WriteString("| Section | Lessons | Quiz | Complete |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(s.Title), tally(s.Lessons), quizText(s.Quiz), yesNo(s.Complete))
	}
	return b.String()
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:56rem;margin:2rem auto;padding:0 1rem}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ccc;padding:.4rem .6rem;text-align:left}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders the Markdown report through goldmark into a standalone page.
func HTML(doc app.ReportDocument) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(doc)), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: doc.Title + " progress report",
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return page.Bytes(), nil
}

// XLSX renders a workbook with a Summary sheet and a Sections sheet.
func XLSX(doc app.ReportDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary, sections = "Summary", "Sections"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	rows := [][]interface{}{
		{"Title", doc.Title},
		{"Target", doc.Target},
		{"Generated", doc.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Report ID", doc.ID},
		{"Lessons completed", doc.Summary.Lessons.Completed},
		{"Lessons total", doc.Summary.Lessons.Total},
		{"Lessons percent", doc.Summary.Lessons.Percent},
		{"Quizzes passed", doc.Summary.QuizzesPassed},
		{"Sections complete", doc.Summary.CompletedSections},
		{"Sections total", doc.Summary.TotalSections},
	}
	for i, row := range rows {
		row := row
		if err := f.SetSheetRow(summary, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(sections); err != nil {
		return nil, err
	}
	header := []interface{}{"Section ID", "Section", "Lessons completed", "Lessons total", "Percent", "Quiz available", "Quiz passed", "Best percent", "Attempts", "Complete"}
	if err := f.SetSheetRow(sections, "A1", &header); err != nil {
		return nil, err
	}
	for i, s := range doc.Sections {
		row := []interface{}{
			s.ID, s.Title,
			s.Lessons.Completed, s.Lessons.Total, s.Lessons.Percent,
			s.Quiz.Available, s.Quiz.Passed, s.Quiz.BestPercent, s.Quiz.Attempts,
			s.Complete,
		}
		if err := f.SetSheetRow(sections, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func tally(t app.LessonTally) string {
	return fmt.Sprintf("%d/%d (%d%%)", t.Completed, t.Total, t.Percent)
}

func quizText(q app.QuizSummary) string {
	switch {
	case !q.Available:
		return "not available"
	case q.Attempts == 0:
		return "not attempted"
	}
	status := "not passed"
	if q.Passed {
		status = "passed"
	}
	unit := "attempts"
	if q.Attempts == 1 {
		unit = "attempt"
	}
	return fmt.Sprintf("%s, best %d%%, %d %s", status, q.BestPercent, q.Attempts, unit)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
