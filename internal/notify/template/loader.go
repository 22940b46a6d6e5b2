package template

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*
var templateFS embed.FS

// templateFuncs are available to all message templates.
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05 MST")
	},
	// fieldLabel turns a dotted field key like RIN_INFO.RULE_STAGE into
	// "Rule Stage" for display.
	"fieldLabel": func(key string) string {
		parts := strings.Split(key, ".")
		last := parts[len(parts)-1]
		last = strings.NewReplacer("_", " ", "@", " ").Replace(last)
		return cases.Title(language.English).String(strings.ToLower(last))
	},
}

// Loader holds the parsed message templates plus any custom overrides.
type Loader struct {
	mu         sync.RWMutex
	templates  *template.Template
	customTpls map[string]*template.Template
}

// NewLoader parses the embedded templates.
func NewLoader() (*Loader, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return &Loader{
		templates:  tmpl,
		customTpls: make(map[string]*template.Template),
	}, nil
}

// SetCustomTemplate overrides a named template with user-supplied content.
func (l *Loader) SetCustomTemplate(name, content string) error {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(content)
	if err != nil {
		return fmt.Errorf("invalid template %s: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.customTpls[name] = tmpl
	return nil
}

// GetTemplate returns the template for a name, preferring custom overrides.
func (l *Loader) GetTemplate(name string) (*template.Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if tmpl, ok := l.customTpls[name]; ok {
		return tmpl, nil
	}
	if tmpl := l.templates.Lookup(name); tmpl != nil {
		return tmpl, nil
	}
	return nil, fmt.Errorf("template not found: %s", name)
}
