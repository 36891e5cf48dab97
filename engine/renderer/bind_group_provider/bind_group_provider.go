package bind_group_provider

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group built from the resources below, or nil before Build.
	bindGroup gpu.BindGroup
	// buffers holds the GPU buffers for this provider, keyed by binding index.
	buffers map[uint32]gpu.Buffer
	// textures holds the GPU textures for this provider, keyed by binding index.
	textures map[uint32]gpu.Texture
	// samplers holds the GPU samplers for this provider, keyed by binding index.
	samplers map[uint32]gpu.Sampler
	// borrowed marks bindings whose resources belong to someone else and are not released here.
	borrowed map[uint32]bool
}

// BindGroupProvider owns the resources behind one bind group and the group itself.
// Camera and light uniforms, material bundles, the depth view and the overlay each hold one.
//
// Usage pattern:
//  1. Create the buffers, textures and samplers on the backend
//  2. Hand them to NewBindGroupProvider with the With* options
//  3. Call Build with the matching layout
//  4. Update uniforms with Write and bind BindGroup in a pass
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the built bind group, or nil before Build.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group or nil
	BindGroup() gpu.BindGroup

	// Buffer returns the buffer at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the buffer or nil
	Buffer(binding uint32) gpu.Buffer

	// Texture returns the texture at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Texture: the texture or nil
	Texture(binding uint32) gpu.Texture

	// Sampler returns the sampler at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Sampler: the sampler or nil
	Sampler(binding uint32) gpu.Sampler

	// SetTexture swaps the texture at binding. The group must be rebuilt afterwards.
	// A replaced owned texture is released.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the new texture
	//   - owned: whether Release should release tex
	SetTexture(binding uint32, tex gpu.Texture, owned bool)

	// Build creates the bind group from the held resources, releasing any previous group.
	//
	// Parameters:
	//   - backend: the backend to create the group on
	//   - layout: the layout the resources are bound against
	//
	// Returns:
	//   - error: error if the backend rejects the group
	Build(backend gpu.Backend, layout gpu.BindGroupLayout) error

	// Write uploads data into the buffer at binding.
	//
	// Parameters:
	//   - backend: the backend owning the queue
	//   - binding: the buffer binding index
	//   - offset: the byte offset into the buffer
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: error if there is no buffer at binding
	Write(backend gpu.Backend, binding uint32, offset uint64, data []byte) error

	// Release releases the bind group and every owned resource.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider holding the resources given by options.
//
// Parameters:
//   - label: a debug label
//   - options: the resources to hold
//
// Returns:
//   - BindGroupProvider: the provider, not yet built
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		buffers:  make(map[uint32]gpu.Buffer),
		textures: make(map[uint32]gpu.Texture),
		samplers: make(map[uint32]gpu.Sampler),
		borrowed: make(map[uint32]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding uint32) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding uint32) gpu.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) Sampler(binding uint32) gpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetTexture(binding uint32, tex gpu.Texture, owned bool) {
	if old, ok := p.textures[binding]; ok && old != tex && !p.borrowed[binding] {
		old.Release()
	}
	p.textures[binding] = tex
	p.borrowed[binding] = !owned
}

func (p *bindGroupProvider) Build(backend gpu.Backend, layout gpu.BindGroupLayout) error {
	entries := make([]gpu.BindGroupEntry, 0, len(p.buffers)+len(p.textures)+len(p.samplers))
	for binding, buf := range p.buffers {
		entries = append(entries, gpu.BindGroupEntry{Binding: binding, Buffer: buf})
	}
	for binding, tex := range p.textures {
		entries = append(entries, gpu.BindGroupEntry{Binding: binding, Texture: tex})
	}
	for binding, s := range p.samplers {
		entries = append(entries, gpu.BindGroupEntry{Binding: binding, Sampler: s})
	}
	slices.SortFunc(entries, func(a, b gpu.BindGroupEntry) int { return cmp.Compare(a.Binding, b.Binding) })

	bg, err := backend.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("bind group provider %q: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	return nil
}

func (p *bindGroupProvider) Write(backend gpu.Backend, binding uint32, offset uint64, data []byte) error {
	buf, ok := p.buffers[binding]
	if !ok {
		return fmt.Errorf("bind group provider %q: no buffer at binding %d", p.label, binding)
	}
	backend.WriteBuffer(buf, offset, data)
	return nil
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, buf := range p.buffers {
		if !p.borrowed[i] {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	for i, tex := range p.textures {
		if !p.borrowed[i] {
			tex.Release()
		}
		delete(p.textures, i)
	}
	for i, s := range p.samplers {
		if !p.borrowed[i] {
			s.Release()
		}
		delete(p.samplers, i)
	}
}
