package settings

import "time"

// WatcherBuilderOption is a functional option used to configure a Watcher during construction.
type WatcherBuilderOption func(*Watcher)

// WithDebounce sets how long the file must be quiet before it is reloaded.
//
// Parameters:
//   - d: the quiet period
//
// Returns:
//   - WatcherBuilderOption: a function that sets the debounce
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}
