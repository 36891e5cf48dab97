// Package loader imports OBJ and glTF model files off the render goroutine. Load hands back a
// Handle immediately and a worker pool decodes the file; systems poll TryGet once per frame
// and spawn the model when it is ready.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
)

var (
	// ErrNotFound is returned by TryGet for a handle this loader never issued.
	ErrNotFound = errors.New("loader: unknown handle")
	// ErrUnsupportedFormat is returned for file extensions without a backend.
	ErrUnsupportedFormat = errors.New("loader: unsupported model format")
	// ErrNoGeometry is returned for files that decode to zero triangle meshes.
	ErrNoGeometry = errors.New("loader: model has no triangle geometry")
)

// Handle identifies one requested asset. The zero Handle is never issued.
type Handle uint64

// LoadedModel is the CPU-side result of an import. Every mesh has been validated, carries
// normals, and carries tangents when its material has a normal map.
type LoadedModel struct {
	Name      string
	Meshes    []model.Mesh
	Materials []model.Material
}

// Model wraps the imported data in a Model with a fresh identity. The meshes are shared with
// the cached LoadedModel; the material slice is copied so per-entity edits stay local. Texture
// pixels are never mutated and stay shared.
func (m *LoadedModel) Model() model.Model {
	return model.NewModel(
		model.WithName(m.Name),
		model.WithMeshes(m.Meshes...),
		model.WithMaterials(slices.Clone(m.Materials)...),
	)
}

// Loader schedules model imports and caches their results by path.
type Loader interface {
	// Load requests the model at path. Repeated requests for the same path return the same
	// handle, and the file is decoded at most once.
	//
	// Parameters:
	//   - path: the model file; the extension selects the format
	//
	// Returns:
	//   - Handle: the handle to poll with TryGet
	Load(path string) Handle

	// TryGet reports the state of a request without blocking.
	//
	// Parameters:
	//   - h: a handle returned by Load
	//
	// Returns:
	//   - *LoadedModel: the model once it is ready and decoded cleanly
	//   - bool: true once the request has finished, successfully or not
	//   - error: the decode error, or ErrNotFound for an unknown handle
	TryGet(h Handle) (*LoadedModel, bool, error)

	// Wait blocks until the request behind h finishes.
	//
	// Parameters:
	//   - h: a handle returned by Load
	//
	// Returns:
	//   - *LoadedModel: the decoded model
	//   - error: the decode error, or ErrNotFound for an unknown handle
	Wait(h Handle) (*LoadedModel, error)
}

type request struct {
	path  string
	done  chan struct{}
	model *LoadedModel
	err   error
}

type loader struct {
	mu       sync.Mutex
	pool     worker.DynamicWorkerPool
	workers  int
	queue    int
	idle     time.Duration
	next     Handle
	requests map[Handle]*request
	byPath   map[string]Handle
}

var _ Loader = &loader{}

// NewLoader creates a Loader backed by a dynamic worker pool.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		workers:  2,
		queue:    64,
		idle:     5 * time.Second,
		requests: make(map[Handle]*request),
		byPath:   make(map[string]Handle),
	}
	for _, opt := range options {
		opt(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queue, l.idle)
	return l
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// issue registers a request for key, returning the existing handle when one is cached.
func (l *loader) issue(key string) (Handle, *request, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.byPath[key]; ok {
		return h, l.requests[h], false
	}
	l.next++
	h := l.next
	req := &request{path: key, done: make(chan struct{})}
	l.requests[h] = req
	l.byPath[key] = h
	return h, req, true
}

func (l *loader) Load(path string) Handle {
	h, req, fresh := l.issue(cacheKey(path))
	if !fresh {
		return h
	}
	common.Logger().Info("loading model", "path", path, "handle", h)
	l.pool.SubmitTask(worker.Task{
		ID: int(h),
		Do: func() (any, error) {
			defer close(req.done)
			req.model, req.err = load(path)
			if req.err != nil {
				common.Logger().Error("model failed to load", "path", path, "error", req.err)
				return nil, req.err
			}
			common.Logger().Info("model loaded", "path", path, "meshes", len(req.model.Meshes), "materials", len(req.model.Materials))
			return req.model, nil
		},
	})
	return h
}

// load runs one import, converting a backend panic into an error so a corrupt file cannot
// take the worker down.
func load(path string) (m *LoadedModel, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("load %s: panic: %v", path, r)
		}
	}()
	backend, err := backendFor(path)
	if err != nil {
		return nil, err
	}
	m, err = backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

func (l *loader) lookup(h Handle) (*request, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	req, ok := l.requests[h]
	return req, ok
}

func (l *loader) TryGet(h Handle) (*LoadedModel, bool, error) {
	req, ok := l.lookup(h)
	if !ok {
		return nil, false, ErrNotFound
	}
	select {
	case <-req.done:
		return req.model, true, req.err
	default:
		return nil, false, nil
	}
}

func (l *loader) Wait(h Handle) (*LoadedModel, error) {
	req, ok := l.lookup(h)
	if !ok {
		return nil, ErrNotFound
	}
	<-req.done
	return req.model, req.err
}
