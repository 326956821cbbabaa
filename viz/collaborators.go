package viz

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// FrameTracker resolves named coordinate frames to poses relative to a fixed
// reference frame. Implementations keep their own notion of time and staleness;
// Resolve reports false while a frame is unknown or currently unresolvable.
type FrameTracker interface {
	Subscribe(frame string)
	Unsubscribe(frame string)
	Resolve(frame string, at time.Time) (Pose, bool)
}

// RenderBackend owns the render scene that managed nodes are inserted into.
type RenderBackend interface {
	AddNode(*SceneNode)
	RemoveNode(*SceneNode)
}

// Renderable is the graphics payload produced for one entity.
type Renderable interface {
	// ApplyUpdate refreshes the renderable in place from a new marker.
	// It reports false when the marker changed a property that cannot be
	// updated in place, in which case the caller must rebuild.
	ApplyUpdate(Marker) bool

	// ReleaseGeometry frees the geometry buffers. Called exactly once per
	// renderable, on teardown.
	ReleaseGeometry()

	// ReleaseMaterial frees the material resources. Called exactly once per
	// renderable, on teardown.
	ReleaseMaterial()

	// Bounds returns the bounding sphere of the renderable in its local
	// frame, for camera fitting.
	Bounds() (center mgl64.Vec3, radius float64)
}

// ShapeFactory builds a renderable from a marker's declarative shape
// description. A factory that cannot serve the marker (for example an
// unsupported mesh format) returns an error and no renderable.
type ShapeFactory interface {
	Build(Marker) (Renderable, error)
}
