package viewer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/robovis/viewer"
	"github.com/plus3/robovis/viz"
)

func marker(shape viz.ShapeType) viz.Marker {
	return viz.Marker{
		Namespace: "t",
		ID:        1,
		FrameID:   "base",
		Shape:     shape,
		Pose:      viz.IdentityPose(),
		Scale:     mgl64.Vec3{1, 1, 1},
		Color:     viz.Color{R: 1, A: 1},
	}
}

func TestShapeFactoryPrimitives(t *testing.T) {
	factory := viewer.NewShapeFactory()

	for _, shape := range []viz.ShapeType{viz.ShapeBox, viz.ShapeCylinder, viz.ShapeSphere} {
		t.Run(shape.String(), func(t *testing.T) {
			r, err := factory.Build(marker(shape))
			if err != nil {
				t.Fatalf("Build(%v) failed: %v", shape, err)
			}
			w := r.(*viewer.Wireframe)
			if w.Shape() != shape {
				t.Errorf("expected shape %v, got %v", shape, w.Shape())
			}
			if _, radius := w.Bounds(); radius <= 0 {
				t.Errorf("expected positive bounding radius, got %f", radius)
			}
		})
	}
}

func TestWireframeBoundsScales(t *testing.T) {
	factory := viewer.NewShapeFactory()
	m := marker(viz.ShapeBox)
	m.Scale = mgl64.Vec3{2, 2, 2}

	r, err := factory.Build(m)
	if err != nil {
		t.Fatal(err)
	}

	_, radius := r.Bounds()
	want := math.Sqrt(3) // corner of a 2x2x2 box
	if math.Abs(radius-want) > 1e-9 {
		t.Errorf("expected bounding radius %f, got %f", want, radius)
	}
}

func TestWireframeInPlaceUpdate(t *testing.T) {
	factory := viewer.NewShapeFactory()
	r, err := factory.Build(marker(viz.ShapeBox))
	if err != nil {
		t.Fatal(err)
	}

	update := marker(viz.ShapeBox)
	update.Scale = mgl64.Vec3{4, 1, 1}
	if !r.ApplyUpdate(update) {
		t.Fatal("same-shape update must apply in place")
	}
	if _, radius := r.Bounds(); radius < 2 {
		t.Errorf("updated scale must be reflected in bounds, radius %f", radius)
	}

	if r.ApplyUpdate(marker(viz.ShapeSphere)) {
		t.Error("shape-type change must be rejected")
	}
}

func TestWireframeMeshResourceChangeRejected(t *testing.T) {
	factory := viewer.NewShapeFactory()
	loader := &stubLoader{}
	factory.RegisterLoader(".obj", loader)

	m := marker(viz.ShapeMesh)
	m.MeshURI = "/meshes/a.obj"
	r, err := factory.Build(m)
	if err != nil {
		t.Fatal(err)
	}

	same := m
	same.Scale = mgl64.Vec3{2, 2, 2}
	if !r.ApplyUpdate(same) {
		t.Fatal("same-resource mesh update must apply in place")
	}

	// A different resource needs the loader again; accepting in place would
	// keep drawing the old geometry.
	changed := m
	changed.MeshURI = "/meshes/b.obj"
	if r.ApplyUpdate(changed) {
		t.Error("mesh resource change must be rejected so the entity is rebuilt")
	}
	if len(loader.loaded) != 1 || loader.loaded[0] != "/meshes/a.obj" {
		t.Errorf("loader must only have served the original build, got %v", loader.loaded)
	}
}

func TestWireframeRelease(t *testing.T) {
	factory := viewer.NewShapeFactory()
	r, err := factory.Build(marker(viz.ShapeBox))
	if err != nil {
		t.Fatal(err)
	}
	w := r.(*viewer.Wireframe)

	if w.Released() {
		t.Fatal("fresh renderable must not report released")
	}
	w.ReleaseGeometry()
	w.ReleaseMaterial()
	if !w.Released() {
		t.Error("renderable must report released after both teardown calls")
	}
}

type stubLoader struct {
	loaded []string
	err    error
}

func (s *stubLoader) Load(path string) (viz.MeshData, error) {
	s.loaded = append(s.loaded, path)
	if s.err != nil {
		return viz.MeshData{}, s.err
	}
	return viz.MeshData{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}},
		Edges:    [][2]int{{0, 1}},
	}, nil
}

func TestShapeFactoryMeshDispatch(t *testing.T) {
	factory := viewer.NewShapeFactory()
	loader := &stubLoader{}
	factory.RegisterLoader(".obj", loader)

	m := marker(viz.ShapeMesh)
	m.MeshURI = "/meshes/robot/arm.OBJ"

	r, err := factory.Build(m)
	if err != nil {
		t.Fatalf("expected registered extension to load, got %v", err)
	}
	if len(loader.loaded) != 1 || loader.loaded[0] != m.MeshURI {
		t.Errorf("expected loader called with %q, got %v", m.MeshURI, loader.loaded)
	}
	if _, radius := r.Bounds(); radius <= 0 {
		t.Error("loaded mesh must have positive bounds")
	}
}

func TestShapeFactoryUnsupportedMeshExtension(t *testing.T) {
	factory := viewer.NewShapeFactory()

	m := marker(viz.ShapeMesh)
	m.MeshURI = "/meshes/robot/arm.dae"

	if _, err := factory.Build(m); err == nil {
		t.Fatal("unsupported mesh extension must fail the build")
	}
}

func TestShapeFactoryLoaderError(t *testing.T) {
	factory := viewer.NewShapeFactory()
	factory.RegisterLoader(".stl", &stubLoader{err: errors.New("corrupt file")})

	m := marker(viz.ShapeMesh)
	m.MeshURI = "part.stl"

	if _, err := factory.Build(m); err == nil {
		t.Fatal("loader failure must fail the build")
	}
}
