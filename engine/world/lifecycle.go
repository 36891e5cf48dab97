package world

// Lifecycle tracks how far an entity's model has progressed towards being drawable.
type Lifecycle int

const (
	// Unloaded entities have a pending asset handle and no model yet.
	Unloaded Lifecycle = iota
	// Loaded entities carry CPU-side model data that has not been uploaded.
	Loaded
	// GpuResourcesReady entities have buffers and bind groups and may be drawn.
	GpuResourcesReady
)

func (l Lifecycle) String() string {
	switch l {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case GpuResourcesReady:
		return "gpu_resources_ready"
	}
	return "unknown"
}
