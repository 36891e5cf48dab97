package loader

import "time"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the maximum number of concurrent imports.
//
// Parameters:
//   - n: the worker limit, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker limit to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithQueueSize sets how many imports may wait for a free worker before Load blocks.
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.queue = max(n, 1)
	}
}

// WithIdleTimeout sets how long an idle worker lingers before exiting.
func WithIdleTimeout(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		l.idle = d
	}
}

// WithModel pre-populates the cache so Load(path) resolves immediately to m.
//
// Parameters:
//   - path: the path the model is cached under
//   - m: the model
//
// Returns:
//   - LoaderBuilderOption: a function that seeds the cache of a loader
func WithModel(path string, m *LoadedModel) LoaderBuilderOption {
	return func(l *loader) {
		if _, req, fresh := l.issue(cacheKey(path)); fresh {
			req.model = m
			close(req.done)
		}
	}
}
