package loader

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFactory registers the renderer factory for a model kind.
//
// Parameters:
//   - kind: the model kind
//   - f: the factory that builds its renderer
//
// Returns:
//   - LoaderBuilderOption: a function that registers the factory on a loader
func WithFactory(kind ModelKind, f Factory) LoaderBuilderOption {
	return func(l *loader) {
		l.factories[kind] = f
	}
}

// WithPointCloud pre-populates the point cloud cache.
//
// Parameters:
//   - path: the cache key, as later passed in a ModelIdentifier
//   - cloud: the cloud to cache
//
// Returns:
//   - LoaderBuilderOption: a function that caches the cloud on a loader
func WithPointCloud(path string, cloud *renderer.PointCloud) LoaderBuilderOption {
	return func(l *loader) {
		l.cloudCache[path] = cloud
	}
}

// WithLogger sets the logger used for load events.
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
