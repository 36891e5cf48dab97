package ui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/glace/common"
	"gopkg.in/yaml.v3"
)

// DefaultMemoryFile is where panel positions are kept between runs.
const DefaultMemoryFile = "glace_ui.yaml"

// PanelMemory is the remembered placement of one panel.
type PanelMemory struct {
	X         float32 `yaml:"x"`
	Y         float32 `yaml:"y"`
	Collapsed bool    `yaml:"collapsed"`
}

// Memory maps panel titles to their remembered placement.
type Memory struct {
	Panels map[string]PanelMemory `yaml:"panels"`
}

// LoadMemory reads a memory file. A missing file yields an empty memory.
//
// Parameters:
//   - path: the YAML file to read
//
// Returns:
//   - *Memory: the loaded memory
//   - error: error if the file exists but cannot be read or parsed
func LoadMemory(path string) (*Memory, error) {
	m := &Memory{Panels: map[string]PanelMemory{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ui memory: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse ui memory %s: %w", path, err)
	}
	if m.Panels == nil {
		m.Panels = map[string]PanelMemory{}
	}
	return m, nil
}

// Save writes the memory as YAML.
func (m *Memory) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode ui memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write ui memory: %w", err)
	}
	return nil
}

func (m *Memory) remember(p *Panel) {
	m.Panels[p.Title] = PanelMemory{X: p.pos[0], Y: p.pos[1], Collapsed: p.collapsed}
}

func (m *Memory) restore(p *Panel) {
	pm, ok := m.Panels[p.Title]
	if !ok {
		return
	}
	p.pos = common.Vec2{pm.X, pm.Y}
	p.collapsed = pm.Collapsed
}
