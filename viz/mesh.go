package viz

import (
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshURIPrefix is the resource scheme used by mesh markers to address files
// below the configured base path.
const MeshURIPrefix = "package://"

// ResolveMeshURI rewrites a mesh resource reference to a loadable path.
// References carrying the package:// prefix are resolved against basePath;
// anything else passes through unchanged.
func ResolveMeshURI(basePath, uri string) string {
	rest, ok := strings.CutPrefix(uri, MeshURIPrefix)
	if !ok {
		return uri
	}
	return path.Join(basePath, rest)
}

// MeshData is the loader-independent form of a loaded mesh: vertices plus the
// edge list the wireframe renderer draws.
type MeshData struct {
	Vertices []mgl64.Vec3
	Edges    [][2]int
}

// MeshLoader loads one mesh file format. Parsing mesh formats is outside this
// repository; loaders are registered by file extension with the shape factory.
type MeshLoader interface {
	Load(path string) (MeshData, error)
}
