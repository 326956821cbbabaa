package viz

import "github.com/go-gl/mathgl/mgl64"

// Pose is a rigid transform: a position and an orientation relative to some
// parent coordinate frame.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// IdentityPose returns the zero-offset, zero-rotation pose.
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.QuatIdent()}
}

// Mul composes two poses. The result maps a point through child first, then
// through p, so a chain of frames composes root-to-leaf as a.Mul(b).Mul(c).
func (p Pose) Mul(child Pose) Pose {
	return Pose{
		Position:    p.Position.Add(p.Orientation.Rotate(child.Position)),
		Orientation: p.Orientation.Mul(child.Orientation).Normalize(),
	}
}

// Apply transforms a point from the pose's local frame into its parent frame.
func (p Pose) Apply(pt mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Orientation.Rotate(pt))
}
