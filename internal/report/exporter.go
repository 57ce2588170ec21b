package report

import (
	"fmt"
	"os"
	"path/filepath"

	"tutorial-tracker/internal/app"
)

// Exporter writes rendered reports into a directory.
type Exporter struct {
	dir  string
	name string
}

// NewExporter writes into dir using name as the file name stem ("tutorial" when empty).
func NewExporter(dir, name string) *Exporter {
	if name == "" {
		name = app.DefaultKeyPrefix
	}
	return &Exporter{dir: dir, name: name}
}

// FileName is the date-stamped file name for doc in format f.
func (e *Exporter) FileName(doc app.ReportDocument, f Format) string {
	return FileName(e.name, doc, f)
}

// FileName builds "<name>-report-YYYY-MM-DD.<ext>" from the report's generation date.
func FileName(name string, doc app.ReportDocument, f Format) string {
	return fmt.Sprintf("%s-report-%s.%s", name, doc.GeneratedAt.Format("2006-01-02"), f)
}

// Export renders doc in every requested format and returns the written paths.
func (e *Exporter) Export(doc app.ReportDocument, formats ...Format) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, err := Render(doc, f)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(e.dir, e.FileName(doc, f))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
