// Package views renders the console's HTML pages and SSE fragments from
// embedded templates. Each page is parsed as layout + partials + page so
// pages can define their own content block; partials double as the
// fragments patched over SSE.
package views

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/session"
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/ui/resources"
)

// BaseData is what the layout needs on every page.
type BaseData struct {
	Title   string
	Active  string // nav item to highlight
	Session *session.Session
	Flashes []session.Flash
	Dev     bool
}

// Base builds the layout data shared by every page render.
func Base(title, active string, sess *session.Session, flashes []session.Flash, dev bool) BaseData {
	return BaseData{
		Title:   title,
		Active:  active,
		Session: sess,
		Flashes: flashes,
		Dev:     dev,
	}
}

// Engine parses and renders the embedded templates. In dev mode templates
// are re-parsed on every render so edits show up without a restart.
type Engine struct {
	dev bool

	mu       sync.RWMutex
	pages    map[string]*template.Template
	partials *template.Template
}

// NewEngine creates the template engine and, outside dev mode, parses
// everything up front so template errors fail at startup.
func NewEngine(dev bool) (*Engine, error) {
	e := &Engine{
		dev:   dev,
		pages: make(map[string]*template.Template),
	}
	if dev {
		return e, nil
	}
	if _, err := e.partialSet(); err != nil {
		return nil, err
	}
	names, err := pageNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, err := e.pageSet(name); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Page renders a full page into w. The page template must define a
// "content" block; rendering goes through a buffer so a template error
// never emits half a page.
func (e *Engine) Page(w http.ResponseWriter, page string, data any) error {
	tmpl, err := e.pageSet(page)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, "layout.tmpl", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

// Fragment renders a named partial to a string for SSE patching.
func (e *Engine) Fragment(name string, data any) (string, error) {
	tmpl, err := e.partialSet()
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render fragment %s: %w", name, err)
	}
	return buf.String(), nil
}

func (e *Engine) pageSet(page string) (*template.Template, error) {
	if !e.dev {
		e.mu.RLock()
		tmpl, ok := e.pages[page]
		e.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	tmpl, err := template.New(page).Funcs(funcMap()).ParseFS(templatesFS,
		"templates/layout.tmpl",
		"templates/partials/*.tmpl",
		"templates/pages/"+page+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
	}

	if !e.dev {
		e.mu.Lock()
		e.pages[page] = tmpl
		e.mu.Unlock()
	}
	return tmpl, nil
}

func (e *Engine) partialSet() (*template.Template, error) {
	if !e.dev {
		e.mu.RLock()
		tmpl := e.partials
		e.mu.RUnlock()
		if tmpl != nil {
			return tmpl, nil
		}
	}

	tmpl, err := template.New("partials").Funcs(funcMap()).ParseFS(templatesFS,
		"templates/partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}

	if !e.dev {
		e.mu.Lock()
		e.partials = tmpl
		e.mu.Unlock()
	}
	return tmpl, nil
}

func pageNames() ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, "templates/pages")
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, strings.TrimSuffix(entry.Name(), ".tmpl"))
		}
	}
	return names, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"timeago":       TimeAgo,
		"timeagoptr":    TimeAgoPtr,
		"duration":      Duration,
		"comma":         Comma,
		"pct":           Percent,
		"score":         Score,
		"severityClass": SeverityClass,
		"statusClass":   StatusClass,
		"titlecase":     TitleCase,
		"terminal":      api.ExecutionTerminal,
		"static":        resources.StaticPath,
	}
}
