// Package resource_sync derives per-entity GPU resources from scene components. It runs once per
// frame before the frame is acquired and only touches the GPU when something changed.
package resource_sync

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// Synchronizer uploads meshes, keeps instance buffers current and maintains material bundles.
type Synchronizer struct {
	backend     gpu.Backend
	layouts     *bgp.Layouts
	placeholder gpu.Texture
	// failed remembers model IDs whose upload failed so the error is reported once.
	failed map[uint64]bool
}

// New creates a synchronizer building material bind groups against layouts.
//
// Parameters:
//   - backend: the backend to allocate on
//   - layouts: the shared bind group layouts
//
// Returns:
//   - *Synchronizer: the synchronizer
func New(backend gpu.Backend, layouts *bgp.Layouts) *Synchronizer {
	return &Synchronizer{backend: backend, layouts: layouts, failed: make(map[uint64]bool)}
}

// Run performs one synchronization pass. It is meant to run as a world system so that change
// detection is relative to its previous run.
func (s *Synchronizer) Run(w *world.World) {
	s.syncMeshes(w)
	s.syncInstances(w)
	s.syncMaterials(w)
	s.syncLifecycle(w)
}

// Release frees resources owned by the synchronizer itself. Per-entity resources are freed by Despawn.
func (s *Synchronizer) Release() {
	if s.placeholder != nil {
		s.placeholder.Release()
		s.placeholder = nil
	}
}

// Despawn releases every derived resource of e and then despawns it.
func (s *Synchronizer) Despawn(w *world.World, e world.Entity) error {
	if mb, ok := world.Get[ModelBuffers](w, e); ok {
		mb.Release()
	}
	if ib, ok := world.Get[InstanceBuffer](w, e); ok {
		ib.Buffer.Release()
	}
	if bundles, ok := world.Get[MaterialBundles](w, e); ok {
		bundles.Release()
	}
	return w.Despawn(e)
}

func (s *Synchronizer) syncMeshes(w *world.World) {
	for _, e := range w.Query(world.With[model.Model]()) {
		m, _ := world.Get[model.Model](w, e)
		if existing, ok := world.Get[ModelBuffers](w, e); ok {
			if existing.ModelID == m.ID() {
				continue
			}
			existing.Release()
			world.Remove[ModelBuffers](w, e)
		}
		if s.failed[m.ID()] {
			continue
		}
		buffers, err := s.uploadModel(m)
		if err != nil {
			s.failed[m.ID()] = true
			common.Logger().Error("mesh upload failed", "entity", e.Index(), "model", m.Name, "err", err)
			continue
		}
		_ = world.Insert(w, e, buffers)
	}
}

func (s *Synchronizer) uploadModel(m *model.Model) (ModelBuffers, error) {
	out := ModelBuffers{ModelID: m.ID(), Meshes: make([]MeshBuffers, 0, len(m.Meshes))}
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		mb, err := s.uploadMesh(m.Name, i, mesh)
		if err != nil {
			out.Release()
			return ModelBuffers{}, err
		}
		out.Meshes = append(out.Meshes, mb)
	}
	return out, nil
}

func (s *Synchronizer) uploadMesh(name string, i int, mesh *model.Mesh) (MeshBuffers, error) {
	if err := mesh.Validate(); err != nil {
		return MeshBuffers{}, fmt.Errorf("mesh %d of %q: %w", i, name, err)
	}
	label := fmt.Sprintf("%s/%d", name, i)
	indexData := mesh.Indices
	if len(indexData) == 0 {
		indexData = model.SequentialIndices(len(mesh.Vertices))
	}
	vertices, err := s.createBuffer(label+" vertices", wgpu.BufferUsageVertex, model.MarshalVertices(mesh.Vertices))
	if err != nil {
		return MeshBuffers{}, err
	}
	indices, err := s.createBuffer(label+" indices", wgpu.BufferUsageIndex, model.MarshalIndices(indexData))
	if err != nil {
		vertices.Release()
		return MeshBuffers{}, err
	}
	mb := MeshBuffers{Vertex: vertices, Index: indices, IndexCount: uint32(len(indexData))}

	if edges := mesh.EdgeIndices(); len(edges) > 0 {
		mb.Edges, err = s.createBuffer(label+" edges", wgpu.BufferUsageIndex, model.MarshalIndices(edges))
		if err != nil {
			vertices.Release()
			indices.Release()
			return MeshBuffers{}, err
		}
		mb.EdgeCount = uint32(len(edges))
	}
	return mb, nil
}

func (s *Synchronizer) createBuffer(label string, usage wgpu.BufferUsage, contents []byte) (gpu.Buffer, error) {
	return s.backend.CreateBuffer(gpu.BufferDescriptor{
		Label:    label,
		Usage:    usage,
		Size:     uint64(len(contents)),
		Contents: contents,
	})
}

// instanceRows returns the raw rows for e. Instances wins over Transform when both are present.
func instanceRows(w *world.World, e world.Entity) ([]byte, uint32, bool) {
	if in, ok := world.Get[model.Instances](w, e); ok {
		return in.MarshalRows(), uint32(in.Len()), true
	}
	if t, ok := world.Get[model.Transform](w, e); ok {
		raw := t.ToRaw()
		return raw.Marshal(), 1, true
	}
	return nil, 0, false
}

func (s *Synchronizer) syncInstances(w *world.World) {
	placed := world.Or(world.With[model.Transform](), world.With[model.Instances]())
	for _, e := range w.Query(world.With[model.Model](), placed) {
		existing, has := world.Get[InstanceBuffer](w, e)
		if has && !world.IsChanged[model.Transform](w, e) && !world.IsChanged[model.Instances](w, e) {
			continue
		}
		rows, count, _ := instanceRows(w, e)

		if has && existing.Rows == count {
			s.backend.WriteBuffer(existing.Buffer, 0, rows)
			continue
		}
		if has {
			existing.Buffer.Release()
			world.Remove[InstanceBuffer](w, e)
		}
		if count == 0 {
			continue
		}
		buf, err := s.createBuffer(fmt.Sprintf("instances %d", e.Index()), wgpu.BufferUsageVertex, rows)
		if err != nil {
			common.Logger().Error("instance buffer allocation failed", "entity", e.Index(), "err", err)
			continue
		}
		_ = world.Insert(w, e, InstanceBuffer{Buffer: buf, Rows: count})
	}

	// entities that lost both placements drop their buffer
	for _, e := range w.Query(world.With[InstanceBuffer](), world.Without[model.Transform](), world.Without[model.Instances]()) {
		ib, _ := world.Get[InstanceBuffer](w, e)
		ib.Buffer.Release()
		world.Remove[InstanceBuffer](w, e)
	}
}

func (s *Synchronizer) syncMaterials(w *world.World) {
	for _, e := range w.Query(world.With[model.Model]()) {
		m, _ := world.Get[model.Model](w, e)
		existing, has := world.Get[MaterialBundles](w, e)
		if has && existing.ModelID == m.ID() {
			if world.IsChanged[model.Model](w, e) {
				s.rewriteUniforms(m, existing)
			}
			continue
		}
		if has {
			existing.Release()
			world.Remove[MaterialBundles](w, e)
		}
		bundles, err := s.buildBundles(m)
		if err != nil {
			common.Logger().Error("material bundle creation failed", "entity", e.Index(), "model", m.Name, "err", err)
			continue
		}
		_ = world.Insert(w, e, bundles)
	}
}

// materials returns the model's materials, or the default material for a model without any.
func materials(m *model.Model) []model.Material {
	if len(m.Materials) == 0 {
		return []model.Material{model.DefaultMaterial()}
	}
	return m.Materials
}

func (s *Synchronizer) rewriteUniforms(m *model.Model, bundles *MaterialBundles) {
	for i, mat := range materials(m) {
		if i >= len(bundles.Bundles) {
			break
		}
		b := bundles.Bundles[i]
		u := mat.Uniform()
		data := u.Marshal()
		b.Transparent = mat.IsTransparent()
		if string(data) == string(b.uniform) {
			continue
		}
		if err := b.Provider.Write(s.backend, bgp.BindingMaterial, 0, data); err != nil {
			common.Logger().Error("material uniform rewrite failed", "material", mat.Name, "err", err)
			continue
		}
		b.uniform = data
	}
}

func (s *Synchronizer) buildBundles(m *model.Model) (MaterialBundles, error) {
	out := MaterialBundles{ModelID: m.ID()}
	for i, mat := range materials(m) {
		b, err := s.buildBundle(fmt.Sprintf("%s/%s#%d", m.Name, mat.Name, i), mat)
		if err != nil {
			out.Release()
			return MaterialBundles{}, err
		}
		out.Bundles = append(out.Bundles, b)
	}
	return out, nil
}

func (s *Synchronizer) placeholderTexture() (gpu.Texture, error) {
	if s.placeholder != nil {
		return s.placeholder, nil
	}
	tex, err := gpu.CreateImageTexture(s.backend, "white placeholder", common.SolidTexture(common.ColorWhite), gpu.TextureKindData)
	if err != nil {
		return nil, err
	}
	s.placeholder = tex
	return tex, nil
}

func (s *Synchronizer) buildBundle(label string, mat model.Material) (*MaterialBundle, error) {
	u := mat.Uniform()
	data := u.Marshal()
	var opts []bgp.BindGroupProviderOption
	discard := func() {
		bgp.NewBindGroupProvider(label, opts...).Release()
	}

	uniform, err := s.createBuffer(label+" uniform", wgpu.BufferUsageUniform, data)
	if err != nil {
		return nil, err
	}
	opts = append(opts, bgp.WithBuffer(bgp.BindingMaterial, uniform))

	textures := []struct {
		binding, sampler uint32
		img              *common.TextureStagingData
		kind             gpu.TextureKind
	}{
		{bgp.BindingDiffuse, bgp.BindingDiffuseSampler, &mat.Diffuse, gpu.TextureKindColor},
		{bgp.BindingNormal, bgp.BindingNormalSampler, mat.Normal, gpu.TextureKindData},
		{bgp.BindingSpecular, bgp.BindingSpecularSampler, mat.SpecularMap, gpu.TextureKindColor},
	}
	for _, t := range textures {
		if !common.HasTexture(t.img) {
			tex, err := s.placeholderTexture()
			if err != nil {
				discard()
				return nil, err
			}
			opts = append(opts, bgp.WithBorrowedTexture(t.binding, tex))
		} else {
			tex, err := gpu.CreateImageTexture(s.backend, label, *t.img, t.kind)
			if err != nil {
				discard()
				return nil, err
			}
			opts = append(opts, bgp.WithTexture(t.binding, tex))
		}
		samp, err := s.backend.CreateSampler(label, common.SamplerStagingData{})
		if err != nil {
			discard()
			return nil, err
		}
		opts = append(opts, bgp.WithSampler(t.sampler, samp))
	}

	provider := bgp.NewBindGroupProvider(label, opts...)
	if err := provider.Build(s.backend, s.layouts.Material); err != nil {
		provider.Release()
		return nil, err
	}
	return &MaterialBundle{Provider: provider, Transparent: mat.IsTransparent(), uniform: data}, nil
}

func (s *Synchronizer) syncLifecycle(w *world.World) {
	for _, e := range w.Query(world.With[model.Model]()) {
		want := world.Loaded
		if ready(w, e) {
			want = world.GpuResourcesReady
		}
		if cur, ok := world.Get[world.Lifecycle](w, e); ok {
			if *cur == want {
				continue
			}
			lc, _ := world.GetMut[world.Lifecycle](w, e)
			*lc = want
			continue
		}
		_ = world.Insert(w, e, want)
	}
}

// ready reports whether every resource the passes need for e exists.
func ready(w *world.World, e world.Entity) bool {
	if !world.Has[ModelBuffers](w, e) || !world.Has[MaterialBundles](w, e) {
		return false
	}
	placed := world.Has[model.Transform](w, e) || world.Has[model.Instances](w, e)
	return !placed || world.Has[InstanceBuffer](w, e)
}
