package resource_sync

import (
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
)

// MeshBuffers holds the uploaded geometry of one sub-mesh.
type MeshBuffers struct {
	Vertex gpu.Buffer
	Index  gpu.Buffer
	// Edges is a line-list index buffer over the same vertices, drawn by the wireframe pass.
	Edges      gpu.Buffer
	IndexCount uint32
	EdgeCount  uint32
}

// ModelBuffers is the per-entity component holding every sub-mesh's geometry.
type ModelBuffers struct {
	ModelID uint64
	Meshes  []MeshBuffers
}

// Release releases every sub-mesh buffer.
func (m *ModelBuffers) Release() {
	for _, mb := range m.Meshes {
		mb.Vertex.Release()
		mb.Index.Release()
		if mb.Edges != nil {
			mb.Edges.Release()
		}
	}
	m.Meshes = nil
}

// InstanceBuffer is the per-entity vertex buffer of raw instance transforms.
type InstanceBuffer struct {
	Buffer gpu.Buffer
	Rows   uint32
}

// MaterialBundle is the GPU side of one material: uniform, textures, samplers and their bind group.
type MaterialBundle struct {
	Provider bgp.BindGroupProvider
	// Transparent mirrors the material's alpha < 1 at the last sync.
	Transparent bool
	uniform     []byte
}

// BindGroup returns the bundle's bind group for slot 1.
func (b *MaterialBundle) BindGroup() gpu.BindGroup {
	return b.Provider.BindGroup()
}

// MaterialBundles is the per-entity component holding one bundle per material, in material order.
type MaterialBundles struct {
	ModelID uint64
	Bundles []*MaterialBundle
}

// For returns the bundle at index i, falling back to the first bundle when i is out of range.
func (m *MaterialBundles) For(i int) *MaterialBundle {
	if len(m.Bundles) == 0 {
		return nil
	}
	if i < 0 || i >= len(m.Bundles) {
		return m.Bundles[0]
	}
	return m.Bundles[i]
}

// Release releases every bundle.
func (m *MaterialBundles) Release() {
	for _, b := range m.Bundles {
		b.Provider.Release()
	}
	m.Bundles = nil
}
