package distiller

import (
	"embed"
	"io/fs"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Template names
const (
	ExtractTemplate = "templates/extract.tmpl"
	EnrichTemplate  = "templates/enrich.tmpl"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PromptData is the data passed to the prompt templates
type PromptData struct {
	Name        string
	Description string
	Text        string
}

// PromptRenderer renders the pass prompts
type PromptRenderer struct {
	templates *template.Template
	parseErr  error
}

var defaultPrompts = NewPromptRenderer(templateFS, nil)

// NewPromptRenderer parses every .tmpl file under templates/ in fsys.
// Overrides are keyed by template path and replace the embedded text.
func NewPromptRenderer(fsys fs.FS, overrides map[string]string) *PromptRenderer {
	r := &PromptRenderer{}
	r.templates, r.parseErr = parseTemplates(fsys, overrides)
	return r
}

// Render executes the named template
func (r *PromptRenderer) Render(name string, data PromptData) (string, error) {
	if r.parseErr != nil {
		return "", errors.Wrap(r.parseErr, "failed to initialize prompt templates")
	}
	if r.templates.Lookup(name) == nil {
		return "", errors.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute template %s", name)
	}
	return buf.String(), nil
}

func parseTemplates(fsys fs.FS, overrides map[string]string) (*template.Template, error) {
	paths, err := fs.Glob(fsys, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list templates")
	}

	templates := template.New("templates")
	for _, path := range paths {
		content, ok := overrides[path]
		if !ok {
			b, err := fs.ReadFile(fsys, path)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read template file %s", path)
			}
			content = string(b)
		}
		if _, err := templates.New(path).Parse(content); err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", path)
		}
	}
	return templates, nil
}

// truncate returns the first n runes of s
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
