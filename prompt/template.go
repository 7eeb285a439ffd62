// Package prompt builds and renders the message sequences sent to an
// llm.ChatModel: versioned templates, a manager to look them up, and a
// builder that assembles a full prompt in a fixed slot order (system,
// tools, static context, cache breakpoint, dynamic context, user input).
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is a single named, versioned prompt body. Content is a
// text/template string; Variables supplies defaults for any variable not
// present in the map passed to Render.
type Template struct {
	Name      string
	Version   string
	Content   string
	Variables map[string]string
	Metadata  map[string]any
}

// Validate checks that t has a name, content, and parseable template syntax.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("prompt: template name is required")
	}
	if t.Content == "" {
		return fmt.Errorf("prompt: template content is required")
	}
	if _, err := template.New(t.Name).Parse(t.Content); err != nil {
		return fmt.Errorf("prompt: parse error: %w", err)
	}
	return nil
}

// Render executes t.Content with vars, falling back to t.Variables for any
// key vars does not supply.
func (t *Template) Render(vars map[string]any) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	merged := make(map[string]any, len(t.Variables)+len(vars))
	for k, v := range t.Variables {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}

	tmpl, err := template.New(t.Name).Parse(t.Content)
	if err != nil {
		return "", fmt.Errorf("prompt: parse error: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, merged); err != nil {
		return "", fmt.Errorf("prompt: render: %w", err)
	}
	return buf.String(), nil
}
