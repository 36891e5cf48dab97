package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// loaderBackend decodes one model file format into CPU-side meshes and materials.
type loaderBackend interface {
	// Load reads and decodes the file at path. Relative resources such as buffers, material
	// libraries and textures resolve against the file's directory.
	//
	// Parameters:
	//   - path: the model file
	//
	// Returns:
	//   - *LoadedModel: the decoded model
	//   - error: error if the file is unreadable or malformed
	Load(path string) (*LoadedModel, error)

	// Decode decodes an in-memory file.
	//
	// Parameters:
	//   - name: the model name
	//   - data: the file contents
	//   - baseDir: the directory relative resources resolve against
	//
	// Returns:
	//   - *LoadedModel: the decoded model
	//   - error: error if the data is malformed
	Decode(name string, data []byte, baseDir string) (*LoadedModel, error)
}

// backendFor selects a backend from the file extension.
func backendFor(path string) (loaderBackend, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gltf", ".glb":
		return gltfBackend{}, nil
	case ".obj":
		return objBackend{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
