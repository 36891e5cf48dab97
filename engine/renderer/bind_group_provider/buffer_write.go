package bind_group_provider

import (
	"errors"

	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  uint32
	Offset   uint64
	Data     []byte
}

// Flush applies writes in order and joins any failures.
func Flush(backend gpu.Backend, writes []BufferWrite) error {
	var errs []error
	for _, w := range writes {
		if err := w.Provider.Write(backend, w.Binding, w.Offset, w.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
