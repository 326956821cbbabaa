package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/robovis/viz"
)

type cameraMode int

const (
	cameraManual cameraMode = iota
	cameraFollowing
)

// nodeSource is what the camera needs from the entity registry: direct
// lookup of live nodes by key. The camera holds keys, never nodes, so an
// entity replaced under the same key is followed transparently.
type nodeSource interface {
	Node(viz.EntityKey) (*viz.SceneNode, bool)
	Keys() []viz.EntityKey
}

// Camera is the viewer's eye. It has two control modes: manual orbit around
// a center point, and following, where each tick smooths the eye toward the
// followed entity's view anchor while aiming at the entity itself.
type Camera struct {
	// FOV is the vertical field of view in radians.
	FOV float64
	// Blend is the per-tick exponential smoothing factor used while
	// following, in (0, 1].
	Blend float64
	// AnchorOffset places the view anchor relative to the followed entity,
	// in the entity's frame.
	AnchorOffset mgl64.Vec3

	eye    mgl64.Vec3
	target mgl64.Vec3
	up     mgl64.Vec3

	// manual orbit state
	center      mgl64.Vec3
	yaw, pitch  float64
	orbitRadius float64

	mode      cameraMode
	followKey viz.EntityKey
	scene     nodeSource
}

// NewCamera returns a manual-mode camera at a default oblique view of the
// origin.
func NewCamera(scene nodeSource) *Camera {
	c := &Camera{
		FOV:          math.Pi / 3,
		Blend:        0.1,
		AnchorOffset: mgl64.Vec3{-4, 0, 2},
		eye:          mgl64.Vec3{5, -5, 3},
		target:       mgl64.Vec3{0, 0, 0},
		up:           mgl64.Vec3{0, 0, 1},
		scene:        scene,
	}
	c.seedOrbit()
	return c
}

// Eye returns the camera position in the fixed frame.
func (c *Camera) Eye() mgl64.Vec3 { return c.eye }

// Target returns the point the camera looks at.
func (c *Camera) Target() mgl64.Vec3 { return c.target }

// Up returns the camera up vector.
func (c *Camera) Up() mgl64.Vec3 { return c.up }

// Follow switches to following mode, tracking the entity under key. The
// entity does not need to exist yet; the camera holds still until it appears.
func (c *Camera) Follow(key viz.EntityKey) {
	c.followKey = key
	c.mode = cameraFollowing
}

// Following returns the followed key while in following mode.
func (c *Camera) Following() (viz.EntityKey, bool) {
	if c.mode != cameraFollowing {
		return "", false
	}
	return c.followKey, true
}

// StopFollow returns to manual mode. The orbit state is seeded from the
// current view so manual control resumes without a jump.
func (c *Camera) StopFollow() {
	if c.mode != cameraFollowing {
		return
	}
	c.mode = cameraManual
	c.seedOrbit()
}

// Tick advances the follow interpolation by one step. Manual mode and ticks
// where the followed entity is absent leave the camera untouched.
func (c *Camera) Tick() {
	if c.mode == cameraFollowing {
		c.stepToward(c.Blend)
	}
}

// SnapToView cuts instantly to the followed view: one full-strength step
// instead of the smoothed blend.
func (c *Camera) SnapToView() {
	c.stepToward(1)
}

func (c *Camera) stepToward(factor float64) {
	node, ok := c.scene.Node(c.followKey)
	if !ok {
		return
	}
	entity, anchor := followPoints(node, c.AnchorOffset)
	c.eye = c.eye.Add(anchor.Sub(c.eye).Mul(factor))
	c.target = c.target.Add(entity.Sub(c.target).Mul(factor))
}

// followPoints returns the entity position and its view anchor in the fixed
// frame.
func followPoints(node *viz.SceneNode, offset mgl64.Vec3) (entity, anchor mgl64.Vec3) {
	center, _ := node.Renderable().Bounds()
	entity = node.Transform().Apply(center)
	anchor = node.Transform().Apply(center.Add(offset))
	return entity, anchor
}

// Orbit rotates the manual camera around its center. No-op while following.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	if c.mode != cameraManual {
		return
	}
	c.yaw += dyaw
	c.pitch = mgl64.Clamp(c.pitch+dpitch, -math.Pi/2+0.01, math.Pi/2-0.01)
	c.applyOrbit()
}

// Pan shifts the orbit center within the view plane. No-op while following.
func (c *Camera) Pan(dx, dy float64) {
	if c.mode != cameraManual {
		return
	}
	forward := c.target.Sub(c.eye).Normalize()
	right := forward.Cross(c.up).Normalize()
	upward := right.Cross(forward)
	c.center = c.center.Add(right.Mul(dx)).Add(upward.Mul(dy))
	c.applyOrbit()
}

// Zoom scales the orbit radius. Factors below one move closer. No-op while
// following.
func (c *Camera) Zoom(factor float64) {
	if c.mode != cameraManual {
		return
	}
	c.orbitRadius = math.Max(c.orbitRadius*factor, 0.05)
	c.applyOrbit()
}

// FitEntity frames the entity's bounding volume within the field of view,
// scaled by margin, keeping the current view direction. No-op if the entity
// is absent.
func (c *Camera) FitEntity(key viz.EntityKey, margin float64) {
	node, ok := c.scene.Node(key)
	if !ok {
		return
	}
	localCenter, radius := node.Renderable().Bounds()
	c.fitSphere(node.Transform().Apply(localCenter), radius, margin)
}

// FitEntityOverhead is the FitEntity preset that first moves the eye
// directly above the entity, producing a top-down framing.
func (c *Camera) FitEntityOverhead(key viz.EntityKey, margin float64) {
	node, ok := c.scene.Node(key)
	if !ok {
		return
	}
	localCenter, radius := node.Renderable().Bounds()
	center := node.Transform().Apply(localCenter)
	c.eye = center.Add(mgl64.Vec3{0, 0, 1})
	c.up = mgl64.Vec3{0, 1, 0}
	c.fitSphere(center, radius, margin)
}

// FitAll frames every live entity at once from a wide oblique placement.
func (c *Camera) FitAll(margin float64) {
	keys := c.scene.Keys()
	if len(keys) == 0 {
		return
	}
	var sum mgl64.Vec3
	centers := make([]mgl64.Vec3, 0, len(keys))
	radii := make([]float64, 0, len(keys))
	for _, key := range keys {
		node, ok := c.scene.Node(key)
		if !ok {
			continue
		}
		localCenter, radius := node.Renderable().Bounds()
		center := node.Transform().Apply(localCenter)
		centers = append(centers, center)
		radii = append(radii, radius)
		sum = sum.Add(center)
	}
	if len(centers) == 0 {
		return
	}
	mid := sum.Mul(1 / float64(len(centers)))
	radius := 0.0
	for i, center := range centers {
		if r := center.Sub(mid).Len() + radii[i]; r > radius {
			radius = r
		}
	}
	c.eye = mid.Add(mgl64.Vec3{1, -1, 0.7}.Normalize())
	c.up = mgl64.Vec3{0, 0, 1}
	c.fitSphere(mid, radius, margin)
}

// fitSphere places the eye so a sphere fits the field of view, preserving
// the current view direction onto the sphere center.
func (c *Camera) fitSphere(center mgl64.Vec3, radius, margin float64) {
	if radius <= 0 {
		radius = 0.5
	}
	if margin <= 0 {
		margin = 1
	}
	distance := radius * margin / math.Sin(c.FOV/2)
	dir := c.eye.Sub(center)
	if dir.Len() < 1e-9 {
		dir = mgl64.Vec3{1, -1, 1}
	}
	c.eye = center.Add(dir.Normalize().Mul(distance))
	c.target = center
	if c.mode == cameraManual {
		c.seedOrbit()
	}
}

// seedOrbit derives the orbit parameters from the current eye and target.
func (c *Camera) seedOrbit() {
	c.center = c.target
	offset := c.eye.Sub(c.target)
	c.orbitRadius = offset.Len()
	if c.orbitRadius < 1e-9 {
		c.orbitRadius = 1
		offset = mgl64.Vec3{1, 0, 0}
	}
	c.yaw = math.Atan2(offset.Y(), offset.X())
	c.pitch = math.Asin(mgl64.Clamp(offset.Z()/c.orbitRadius, -1, 1))
}

func (c *Camera) applyOrbit() {
	cp := math.Cos(c.pitch)
	c.eye = c.center.Add(mgl64.Vec3{
		c.orbitRadius * cp * math.Cos(c.yaw),
		c.orbitRadius * cp * math.Sin(c.yaw),
		c.orbitRadius * math.Sin(c.pitch),
	})
	c.target = c.center
	c.up = mgl64.Vec3{0, 0, 1}
}
