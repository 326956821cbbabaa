package viz

import "time"

// SceneNode couples one renderable to a named coordinate frame and keeps the
// renderable's transform current as the frame moves. A node holds no ownership
// over the tracker it queries; Detach must be called before the node is
// discarded or bound to a different frame, otherwise the frame subscription
// leaks.
type SceneNode struct {
	tracker    FrameTracker
	renderable Renderable
	frameID    string
	attached   bool
	transform  Pose
}

// NewSceneNode wraps a renderable in an unattached node. The transform starts
// at identity.
func NewSceneNode(tracker FrameTracker, r Renderable) *SceneNode {
	return &SceneNode{
		tracker:    tracker,
		renderable: r,
		transform:  IdentityPose(),
	}
}

// Attach begins tracking the named frame. Attaching while already attached
// detaches from the previous frame first.
func (n *SceneNode) Attach(frameID string) {
	if n.attached {
		n.Detach()
	}
	n.frameID = frameID
	n.attached = true
	n.tracker.Subscribe(frameID)
}

// Detach stops tracking the current frame. Safe to call on a detached node.
func (n *SceneNode) Detach() {
	if !n.attached {
		return
	}
	n.tracker.Unsubscribe(n.frameID)
	n.attached = false
}

// Tick refreshes the node's transform from the tracker. While the frame is
// unresolvable the last-known transform is kept.
func (n *SceneNode) Tick(now time.Time) {
	if !n.attached {
		return
	}
	if pose, ok := n.tracker.Resolve(n.frameID, now); ok {
		n.transform = pose
	}
}

// FrameID returns the frame the node currently tracks, or "" when detached.
func (n *SceneNode) FrameID() string {
	if !n.attached {
		return ""
	}
	return n.frameID
}

// Attached reports whether the node currently holds a frame subscription.
func (n *SceneNode) Attached() bool {
	return n.attached
}

// Renderable returns the graphics payload bound to this node.
func (n *SceneNode) Renderable() Renderable {
	return n.renderable
}

// Transform returns the pose of the tracked frame relative to the fixed
// reference frame, as of the most recent successful Tick.
func (n *SceneNode) Transform() Pose {
	return n.transform
}
