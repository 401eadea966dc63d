package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// Renderer renders small email templates.
type Renderer struct{}

// Render compiles the provided template text with strict missing-key semantics.
func (Renderer) Render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("templates: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("templates: parse: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templates: execute: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML is Render with contextual escaping of the data.
func (Renderer) RenderHTML(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("templates: template text required")
	}
	t, err := htmltemplate.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("templates: parse: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templates: execute: %w", err)
	}
	return buf.String(), nil
}
