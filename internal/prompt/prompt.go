package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed default.tmpl
var defaultTemplate string

// Template renders the instruction text sent to the model. The page content
// is available to the template as {{.Content}}.
type Template struct {
	name string
	tmpl *template.Template
}

// file is the on-disk override format.
type file struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

type data struct {
	Content string
}

// Default returns the embedded product review guideline.
func Default() *Template {
	t, err := Parse("default", defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt template: %v", err))
	}
	return t
}

// Parse compiles raw template text.
func Parse(name, text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("prompt template is empty")
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %q: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// Load returns the template at path, or the default when path is empty.
func Load(path string) (*Template, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode prompt file %s: %w", path, err)
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = path
	}
	return Parse(name, f.Template)
}

// Name identifies the template in logs.
func (t *Template) Name() string { return t.name }

// Render interpolates content into the template.
func (t *Template) Render(content string) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data{Content: content}); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", t.name, err)
	}
	return sb.String(), nil
}
