// Package loader selects and builds the ModelRenderer for a model identifier, reading
// point clouds from disk through a format backend.
package loader

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
)

// LoaderBackendType identifies the point cloud file format backend to use.
type LoaderBackendType int

const (
	// BackendTypePLY selects the PLY loader backend.
	BackendTypePLY LoaderBackendType = iota
)

// ModelKind identifies which renderer draws a model.
type ModelKind int

const (
	// KindSampleBox is the built-in cube; it needs no file.
	KindSampleBox ModelKind = iota
	// KindPointCloud is a point cloud read from a file.
	KindPointCloud
)

func (k ModelKind) String() string {
	switch k {
	case KindSampleBox:
		return "sample-box"
	case KindPointCloud:
		return "point-cloud"
	default:
		return fmt.Sprintf("ModelKind(%d)", int(k))
	}
}

// ParseModelKind converts "sample-box" or "point-cloud" into a ModelKind.
//
// Parameters:
//   - s: the kind name
//
// Returns:
//   - ModelKind: the parsed kind
//   - error: error if s names no known kind
func ParseModelKind(s string) (ModelKind, error) {
	switch s {
	case "sample-box":
		return KindSampleBox, nil
	case "point-cloud":
		return KindPointCloud, nil
	default:
		return KindSampleBox, fmt.Errorf("unknown model kind %q", s)
	}
}

// ModelIdentifier names a model to load.
type ModelIdentifier struct {
	Kind ModelKind

	// Path is the model file. Unused for KindSampleBox.
	Path string
}

func (id ModelIdentifier) String() string {
	if id.Path == "" {
		return id.Kind.String()
	}
	return id.Kind.String() + ":" + id.Path
}

// Factory builds the renderer for a model. cloud is nil for kinds without a file.
type Factory func(id ModelIdentifier, cloud *renderer.PointCloud) (renderer.ModelRenderer, error)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	factories  map[ModelKind]Factory
	cloudCache map[string]*renderer.PointCloud

	current  ModelIdentifier
	active   renderer.ModelRenderer
	hasModel bool

	backend loaderBackend
	logger  *slog.Logger
}

// Loader owns the active ModelRenderer. A renderer is chosen by model kind once per
// load and kept until a different identifier is loaded.
type Loader interface {
	// Load builds the renderer for id and makes it active, releasing the renderer it
	// replaces. Loading the identifier that is already active is a no-op. If building
	// fails the previous renderer stays active.
	// Panics if no factory is registered for the identifier's kind.
	//
	// Parameters:
	//   - id: the model to load
	//
	// Returns:
	//   - renderer.ModelRenderer: the active renderer after the call
	//   - bool: true if a new renderer was built
	//   - error: error if reading the model or building the renderer fails
	Load(id ModelIdentifier) (renderer.ModelRenderer, bool, error)

	// Current returns the active identifier and renderer.
	//
	// Returns:
	//   - ModelIdentifier: the active identifier
	//   - renderer.ModelRenderer: the active renderer
	//   - bool: false if nothing has been loaded
	Current() (ModelIdentifier, renderer.ModelRenderer, bool)

	// ReadPointCloud reads and caches a point cloud file. The backend is selected by
	// file extension.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *renderer.PointCloud: the cloud
	//   - error: error if the format is unsupported or the file is malformed
	ReadPointCloud(path string) (*renderer.PointCloud, error)

	// ReadPointCloudFrom parses a point cloud from a stream without caching it.
	//
	// Parameters:
	//   - r: the reader providing file data
	//
	// Returns:
	//   - *renderer.PointCloud: the cloud
	//   - error: error if the data is malformed
	ReadPointCloudFrom(r io.Reader) (*renderer.PointCloud, error)

	// Register sets the factory for a model kind, replacing any previous one.
	//
	// Parameters:
	//   - kind: the model kind
	//   - f: the factory
	Register(kind ModelKind, f Factory)

	// Release frees the active renderer and forgets the active identifier.
	Release()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of point cloud backend to use (e.g., BackendTypePLY)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		factories:  make(map[ModelKind]Factory),
		cloudCache: make(map[string]*renderer.PointCloud),
		logger:     slog.Default(),
	}

	switch backendType {
	case BackendTypePLY:
		l.backend = newPLYLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(id ModelIdentifier) (renderer.ModelRenderer, bool, error) {
	l.mu.RLock()
	if l.hasModel && l.current == id {
		active := l.active
		l.mu.RUnlock()
		return active, false, nil
	}
	factory, ok := l.factories[id.Kind]
	l.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("loader: no renderer registered for model kind %s", id.Kind))
	}

	var cloud *renderer.PointCloud
	if id.Kind == KindPointCloud {
		var err error
		if cloud, err = l.ReadPointCloud(id.Path); err != nil {
			return l.activeRenderer(), false, err
		}
	}

	r, err := factory(id, cloud)
	if err != nil {
		return l.activeRenderer(), false, fmt.Errorf("failed to build renderer for %s: %w", id, err)
	}

	l.mu.Lock()
	previous := l.active
	l.current = id
	l.active = r
	l.hasModel = true
	l.mu.Unlock()

	if previous != nil {
		previous.Release()
	}
	l.logger.Info("model loaded", "model", id.String())
	return r, true, nil
}

func (l *loader) Release() {
	l.mu.Lock()
	active := l.active
	l.active = nil
	l.current = ModelIdentifier{}
	l.hasModel = false
	l.mu.Unlock()

	if active != nil {
		active.Release()
	}
}

func (l *loader) activeRenderer() renderer.ModelRenderer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

func (l *loader) Current() (ModelIdentifier, renderer.ModelRenderer, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current, l.active, l.hasModel
}

func (l *loader) ReadPointCloud(path string) (*renderer.PointCloud, error) {
	l.mu.RLock()
	if cached, ok := l.cloudCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	cloud, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.cloudCache[path] = cloud
	l.mu.Unlock()

	l.logger.Debug("point cloud read", "path", path, "points", len(cloud.Positions))
	return cloud, nil
}

func (l *loader) ReadPointCloudFrom(r io.Reader) (*renderer.PointCloud, error) {
	cloud, err := l.backend.LoadReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader: %w", err)
	}
	return cloud, nil
}

func (l *loader) Register(kind ModelKind, f Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[kind] = f
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only PLY is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ply":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported point cloud format: %q", ext)
	}
}
