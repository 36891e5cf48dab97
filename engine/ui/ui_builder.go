package ui

// OverlayBuilderOption is a functional option used to configure an Overlay during construction.
type OverlayBuilderOption func(*Overlay)

// WithPanel adds a panel. Later panels draw on top.
//
// Parameters:
//   - p: the panel to add
//
// Returns:
//   - OverlayBuilderOption: a function that appends the panel
func WithPanel(p *Panel) OverlayBuilderOption {
	return func(o *Overlay) {
		o.panels = append(o.panels, p)
	}
}

// WithMemoryFile sets where panel placement is loaded from and saved to.
//
// Parameters:
//   - path: the YAML file path
//
// Returns:
//   - OverlayBuilderOption: a function that sets the memory file
func WithMemoryFile(path string) OverlayBuilderOption {
	return func(o *Overlay) {
		o.memoryFile = path
	}
}

// WithMemory uses an already loaded memory instead of reading the memory file.
func WithMemory(m *Memory) OverlayBuilderOption {
	return func(o *Overlay) {
		o.memory = m
	}
}

// WithVisible sets whether the overlay starts shown.
func WithVisible(visible bool) OverlayBuilderOption {
	return func(o *Overlay) {
		o.visible = visible
	}
}
