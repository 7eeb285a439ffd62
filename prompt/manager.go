package prompt

import (
	"fmt"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// TemplateInfo summarizes a Template for listing, without its body.
type TemplateInfo struct {
	Name     string
	Version  string
	Metadata map[string]any
}

// PromptManager stores versioned Templates and renders them into messages.
// Get("name", "") returns the latest registered version.
type PromptManager interface {
	Get(name, version string) (*Template, error)
	Render(name string, vars map[string]any) ([]schema.Message, error)
	List() []TemplateInfo
}

// Manager is an in-memory PromptManager. The zero value is not usable; use
// NewManager.
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
	latest    map[string]*Template
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
		latest:    make(map[string]*Template),
	}
}

// Register adds t, validating it first. Registering a second template under
// the same name replaces what Get(name, "") returns.
func (m *Manager) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.Version != "" {
		m.templates[t.Name+":"+t.Version] = t
	}
	m.latest[t.Name] = t
	return nil
}

func (m *Manager) Get(name, version string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if version != "" {
		t, ok := m.templates[name+":"+version]
		if !ok {
			return nil, fmt.Errorf("prompt: template not found: %s:%s", name, version)
		}
		return t, nil
	}
	t, ok := m.latest[name]
	if !ok {
		return nil, fmt.Errorf("prompt: template not found: %s", name)
	}
	return t, nil
}

func (m *Manager) Render(name string, vars map[string]any) ([]schema.Message, error) {
	t, err := m.Get(name, "")
	if err != nil {
		return nil, err
	}
	rendered, err := t.Render(vars)
	if err != nil {
		return nil, err
	}
	return []schema.Message{schema.NewSystemMessage(rendered)}, nil
}

func (m *Manager) List() []TemplateInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]TemplateInfo, 0, len(m.latest))
	for _, t := range m.latest {
		infos = append(infos, TemplateInfo{Name: t.Name, Version: t.Version, Metadata: t.Metadata})
	}
	return infos
}

var _ PromptManager = (*Manager)(nil)
