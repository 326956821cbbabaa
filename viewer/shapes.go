package viewer

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/robovis/viz"
)

const circleSegments = 16

// Wireframe is the renderable this viewer draws: unit-scale line geometry
// plus per-entity pose, scale and color. Scale is applied at draw time so
// in-place updates never touch the vertex buffer.
type Wireframe struct {
	shape   viz.ShapeType
	meshURI string
	local   viz.Pose
	scale   mgl64.Vec3
	color   viz.Color

	verts []mgl64.Vec3
	edges [][2]int

	geometryReleased bool
	materialReleased bool
}

// ApplyUpdate refreshes pose, scale and color in place. A marker requesting a
// different shape type, or a mesh marker referencing a different resource,
// is rejected; the registry rebuilds instead.
func (w *Wireframe) ApplyUpdate(m viz.Marker) bool {
	if m.Shape != w.shape {
		return false
	}
	if m.Shape == viz.ShapeMesh && m.MeshURI != w.meshURI {
		return false
	}
	w.local = m.Pose
	w.scale = m.Scale
	w.color = m.Color
	return true
}

// ReleaseGeometry drops the vertex and edge buffers.
func (w *Wireframe) ReleaseGeometry() {
	w.verts = nil
	w.edges = nil
	w.geometryReleased = true
}

// ReleaseMaterial drops the material state.
func (w *Wireframe) ReleaseMaterial() {
	w.materialReleased = true
}

// Bounds returns the bounding sphere in the renderable's local frame.
func (w *Wireframe) Bounds() (mgl64.Vec3, float64) {
	radius := 0.0
	for _, v := range w.verts {
		scaled := mgl64.Vec3{v.X() * w.scale.X(), v.Y() * w.scale.Y(), v.Z() * w.scale.Z()}
		if l := scaled.Len(); l > radius {
			radius = l
		}
	}
	return w.local.Position, radius
}

// Shape returns the shape type this renderable was built for.
func (w *Wireframe) Shape() viz.ShapeType {
	return w.shape
}

// Released reports whether both geometry and material have been torn down.
func (w *Wireframe) Released() bool {
	return w.geometryReleased && w.materialReleased
}

// ShapeFactory builds wireframe renderables from marker shape descriptors.
// Mesh markers dispatch on file extension to a registered loader.
type ShapeFactory struct {
	loaders map[string]viz.MeshLoader
}

// NewShapeFactory returns a factory with no mesh loaders registered.
func NewShapeFactory() *ShapeFactory {
	return &ShapeFactory{loaders: make(map[string]viz.MeshLoader)}
}

// RegisterLoader installs a mesh loader for one file extension, given with
// the leading dot (".obj").
func (f *ShapeFactory) RegisterLoader(ext string, loader viz.MeshLoader) {
	f.loaders[strings.ToLower(ext)] = loader
}

// Build constructs a renderable for the marker.
func (f *ShapeFactory) Build(m viz.Marker) (viz.Renderable, error) {
	w := &Wireframe{
		shape: m.Shape,
		local: m.Pose,
		scale: m.Scale,
		color: m.Color,
	}
	switch m.Shape {
	case viz.ShapeBox:
		w.verts, w.edges = boxGeometry()
	case viz.ShapeCylinder:
		w.verts, w.edges = cylinderGeometry()
	case viz.ShapeSphere:
		w.verts, w.edges = sphereGeometry()
	case viz.ShapeMesh:
		ext := strings.ToLower(path.Ext(m.MeshURI))
		loader, ok := f.loaders[ext]
		if !ok {
			return nil, fmt.Errorf("unsupported mesh extension %q in %q", ext, m.MeshURI)
		}
		mesh, err := loader.Load(m.MeshURI)
		if err != nil {
			return nil, fmt.Errorf("loading mesh %q: %w", m.MeshURI, err)
		}
		w.meshURI = m.MeshURI
		w.verts = mesh.Vertices
		w.edges = mesh.Edges
	default:
		return nil, fmt.Errorf("unknown shape type %v", m.Shape)
	}
	return w, nil
}

// boxGeometry is a unit cube centered on the origin.
func boxGeometry() ([]mgl64.Vec3, [][2]int) {
	verts := make([]mgl64.Vec3, 0, 8)
	for _, z := range []float64{-0.5, 0.5} {
		for _, y := range []float64{-0.5, 0.5} {
			for _, x := range []float64{-0.5, 0.5} {
				verts = append(verts, mgl64.Vec3{x, y, z})
			}
		}
	}
	edges := [][2]int{
		{0, 1}, {1, 3}, {3, 2}, {2, 0},
		{4, 5}, {5, 7}, {7, 6}, {6, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	return verts, edges
}

// cylinderGeometry is a unit-diameter, unit-height cylinder along local Z.
func cylinderGeometry() ([]mgl64.Vec3, [][2]int) {
	verts := make([]mgl64.Vec3, 0, circleSegments*2)
	var edges [][2]int
	for _, z := range []float64{-0.5, 0.5} {
		base := len(verts)
		for i := 0; i < circleSegments; i++ {
			a := 2 * math.Pi * float64(i) / circleSegments
			verts = append(verts, mgl64.Vec3{0.5 * math.Cos(a), 0.5 * math.Sin(a), z})
			edges = append(edges, [2]int{base + i, base + (i+1)%circleSegments})
		}
	}
	for i := 0; i < circleSegments; i++ {
		edges = append(edges, [2]int{i, circleSegments + i})
	}
	return verts, edges
}

// sphereGeometry is three unit-diameter great circles, one per plane.
func sphereGeometry() ([]mgl64.Vec3, [][2]int) {
	var verts []mgl64.Vec3
	var edges [][2]int
	addCircle := func(point func(a float64) mgl64.Vec3) {
		base := len(verts)
		for i := 0; i < circleSegments; i++ {
			a := 2 * math.Pi * float64(i) / circleSegments
			verts = append(verts, point(a))
			edges = append(edges, [2]int{base + i, base + (i+1)%circleSegments})
		}
	}
	addCircle(func(a float64) mgl64.Vec3 { return mgl64.Vec3{0.5 * math.Cos(a), 0.5 * math.Sin(a), 0} })
	addCircle(func(a float64) mgl64.Vec3 { return mgl64.Vec3{0.5 * math.Cos(a), 0, 0.5 * math.Sin(a)} })
	addCircle(func(a float64) mgl64.Vec3 { return mgl64.Vec3{0, 0.5 * math.Cos(a), 0.5 * math.Sin(a)} })
	return verts, edges
}
