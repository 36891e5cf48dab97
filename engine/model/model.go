// Package model defines the CPU-side scene data that the renderer derives GPU resources from:
// meshes, materials, transforms and their GPU byte layouts.
package model

import (
	"sync/atomic"
)

var nextModelID atomic.Uint64

// Model is a drawable asset made of sub-meshes that index into a shared material list.
// Every Model receives a unique ID, from NewModel or on first use; the renderer rebuilds GPU resources when
// an entity's Model ID changes and only rewrites uniforms when the same Model is mutated.
type Model struct {
	id        uint64
	Name      string
	Meshes    []Mesh
	Materials []Material
}

// NewModel creates a new Model with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new Model with a fresh identity
func NewModel(options ...ModelBuilderOption) Model {
	m := Model{id: nextModelID.Add(1)}
	for _, opt := range options {
		opt(&m)
	}
	return m
}

// ID returns the model's identity. A model built as a literal is assigned a fresh identity on
// the first call, so it must be called through the stored value for the identity to stick.
// Not safe for concurrent use.
func (m *Model) ID() uint64 {
	if m.id == 0 {
		m.id = nextModelID.Add(1)
	}
	return m.id
}

// MaterialFor returns the material for mesh i. Out-of-range indices fall back to the first
// material, and a model with no materials yields the default material.
func (m *Model) MaterialFor(i int) Material {
	if len(m.Materials) == 0 {
		return DefaultMaterial()
	}
	idx := m.Meshes[i].MaterialIndex
	if idx < 0 || idx >= len(m.Materials) {
		idx = 0
	}
	return m.Materials[idx]
}

// MaterialIndexFor resolves mesh i's material slot with the same fallback as MaterialFor.
func (m *Model) MaterialIndexFor(i int) int {
	idx := m.Meshes[i].MaterialIndex
	if idx < 0 || idx >= len(m.Materials) {
		return 0
	}
	return idx
}

// SetGloss overwrites the gloss of every material.
func (m *Model) SetGloss(gloss float32) {
	for i := range m.Materials {
		m.Materials[i].Gloss = gloss
	}
}
