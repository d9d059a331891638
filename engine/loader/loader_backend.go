package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-xr/engine/renderer"
)

// loaderBackend defines the generic interface for reading point clouds from files or streams.
// Concrete implementations (e.g., plyLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load reads a point cloud from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *renderer.PointCloud: the cloud
	//   - error: error if loading fails
	Load(path string) (*renderer.PointCloud, error)

	// LoadReader reads a point cloud from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing file data
	//
	// Returns:
	//   - *renderer.PointCloud: the cloud
	//   - error: error if loading fails
	LoadReader(r io.Reader) (*renderer.PointCloud, error)
}
