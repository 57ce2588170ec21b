package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
	"tutorial-tracker/internal/domain"
)

const manifestFile = "catalog.yaml"

//go:embed builtin
var builtinFS embed.FS

type manifest struct {
	Title    string   `yaml:"title"`
	Target   string   `yaml:"target"`
	Sections []string `yaml:"sections"`
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*domain.Catalog, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir reads a catalog from a directory on disk; an empty path selects Builtin.
func LoadDir(dir string) (*domain.Catalog, error) {
	if dir == "" {
		return Builtin()
	}
	return Load(os.DirFS(dir))
}

// Load reads catalog.yaml, every section it lists and any quiz banks next to them.
// Any schema or invariant violation is reported as domain.ErrInvalidCatalog.
func Load(fsys fs.FS) (*domain.Catalog, error) {
	var m manifest
	if err := decode(fsys, manifestFile, manifestLoader, &m); err != nil {
		return nil, err
	}

	catalog := &domain.Catalog{
		Title:    m.Title,
		Target:   m.Target,
		Sections: make([]domain.Section, 0, len(m.Sections)),
		Quizzes:  make(map[string]domain.SectionQuiz),
	}
	for _, id := range m.Sections {
		var section domain.Section
		if err := decode(fsys, sectionPath(id), sectionLoader, &section); err != nil {
			return nil, err
		}
		catalog.Sections = append(catalog.Sections, section)

		var quiz domain.SectionQuiz
		err := decode(fsys, quizPath(id), quizLoader, &quiz)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if quiz.SectionID == "" {
			quiz.SectionID = id
		}
		catalog.Quizzes[id] = normalizeQuiz(quiz)
	}

	if err := Validate(catalog, m.Sections); err != nil {
		return nil, err
	}
	return catalog, nil
}

func sectionPath(id string) string {
	return path.Join("sections", id+".yaml")
}

func quizPath(id string) string {
	return path.Join("sections", id+".quiz.yaml")
}

// decode validates the raw document against schema before unmarshalling into dst.
func decode(fsys fs.FS, name string, schema gojsonschema.JSONLoader, dst interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidCatalog, name, err)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidCatalog, name, err)
	}
	if err := validateDocument(name, schema, raw); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidCatalog, name, err)
	}
	return nil
}

func normalizeQuiz(quiz domain.SectionQuiz) domain.SectionQuiz {
	for i := range quiz.Questions {
		if quiz.Questions[i].Kind == "tf" {
			quiz.Questions[i].Kind = domain.KindTrueFalse
		}
	}
	return quiz
}
