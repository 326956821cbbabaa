package viz

import (
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType enumerates the renderable shapes a marker can request.
type ShapeType int32

const (
	ShapeBox ShapeType = iota
	ShapeCylinder
	ShapeSphere
	ShapeMesh
)

func (s ShapeType) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeSphere:
		return "sphere"
	case ShapeMesh:
		return "mesh"
	}
	return "shape(" + strconv.Itoa(int(s)) + ")"
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Marker is the payload of an upsert event: everything needed to build or
// refresh one renderable.
type Marker struct {
	Namespace string
	ID        int32
	FrameID   string
	Shape     ShapeType
	Pose      Pose       // pose of the renderable within its frame
	Scale     mgl64.Vec3 // extent of the shape along each local axis
	Color     Color
	MeshURI   string // mesh resource reference, ShapeMesh only

	// Lifetime overrides the registry's default expiry window for this
	// entity. Zero means use the default.
	Lifetime time.Duration
}

// Key returns the registry lookup key addressed by this marker.
func (m Marker) Key() EntityKey {
	return MakeKey(m.Namespace, m.ID)
}
