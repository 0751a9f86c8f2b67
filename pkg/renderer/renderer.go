package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/plot"
)

// Library is a JavaScript or CSS dependency of the report pages
type Library struct {
	Name string
	File string
	URL  string
	CSS  bool
}

// DefaultLibraries are loaded by every report page, in order
var DefaultLibraries = []Library{
	{Name: "d3", File: "d3.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/d3/3.5.17/d3.min.js"},
	{Name: "nvd3", File: "nv.d3.min.js", URL: "https://cdnjs.cloudflare.com/ajax/libs/nvd3/1.8.6/nv.d3.min.js"},
	{Name: "nvd3-css", File: "nv.d3.min.css", URL: "https://cdnjs.cloudflare.com/ajax/libs/nvd3/1.8.6/nv.d3.min.css", CSS: true},
}

// Renderer handles HTML template rendering
type Renderer struct {
	assetsDir string
	libraries []Library
	templates map[string]*template.Template
}

// NewRenderer parses the report templates
func NewRenderer(cfg *config.Config) (*Renderer, error) {
	r := &Renderer{
		assetsDir: cfg.AssetsDir,
		libraries: DefaultLibraries,
		templates: make(map[string]*template.Template),
	}

	sources := map[string]string{
		plot.ReportTemplate: reportTemplate,
		plot.TrendsTemplate: trendsTemplate,
	}
	for name, src := range sources {
		tmpl, err := template.New(name).Funcs(funcMap()).Parse(baseTemplate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse base template: %w", err)
		}
		if _, err := tmpl.Parse(src); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		// data is JSON produced by the formatter, not user markup
		"json": func(s string) template.JS {
			if s == "" {
				return template.JS("null")
			}
			return template.JS(s)
		},
	}
}

// libraryView is a library as placed on a page: inlined or linked
type libraryView struct {
	Name   string
	CSS    bool
	URL    string
	Script template.JS
	Style  template.CSS
}

type pageView struct {
	Version     string
	Data        string
	Source      string
	IncludeLibs bool
	Libraries   []libraryView
}

// Render executes the named template with page
func (r *Renderer) Render(name string, page plot.Page) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template: %s", name)
	}

	libs, err := r.libraryViews(page.IncludeLibs)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "page", pageView{
		Version:     page.Version,
		Data:        page.Data,
		Source:      page.Source,
		IncludeLibs: page.IncludeLibs,
		Libraries:   libs,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) libraryViews(inline bool) ([]libraryView, error) {
	views := make([]libraryView, 0, len(r.libraries))
	for _, lib := range r.libraries {
		view := libraryView{Name: lib.Name, CSS: lib.CSS}
		if !inline {
			view.URL = lib.URL
			views = append(views, view)
			continue
		}

		path := filepath.Join(r.assetsDir, lib.File)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to inline %s: %w", lib.Name, err)
		}
		logger.Debugf("Inlining %s from %s", lib.Name, path)
		if lib.CSS {
			view.Style = template.CSS(content)
		} else {
			view.Script = template.JS(content)
		}
		views = append(views, view)
	}
	return views, nil
}
