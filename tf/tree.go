// Package tf maintains a client-side transform tree: named coordinate frames
// connected by parent edges whose poses update continuously from the bus.
// Tree implements viz.FrameTracker.
package tf

import (
	"slices"
	"time"

	"github.com/kamstrup/intmap"

	"github.com/plus3/robovis/viz"
)

// Update is one decoded transform edge: the pose of Child within Parent.
type Update struct {
	Child  string
	Parent string
	Pose   viz.Pose
	Stamp  time.Time
}

type frameNode struct {
	parent    uint32
	hasParent bool
	pose      viz.Pose
	stamp     time.Time
}

// Tree resolves frame names to poses relative to one fixed reference frame.
// Frame names are interned to dense ids so the hot resolve path walks an
// integer-keyed table instead of hashing strings.
//
// Like the registry it feeds, a Tree is confined to the host loop's
// goroutine.
type Tree struct {
	fixed   string
	fixedID uint32
	ids     map[string]uint32
	names   []string
	nodes   *intmap.Map[uint32, *frameNode]
	subs    map[string]int
}

// NewTree creates a tree rooted at the given fixed reference frame.
func NewTree(fixedFrame string) *Tree {
	t := &Tree{
		fixed: fixedFrame,
		ids:   make(map[string]uint32),
		nodes: intmap.New[uint32, *frameNode](64),
		subs:  make(map[string]int),
	}
	t.fixedID = t.intern(fixedFrame)
	return t
}

func (t *Tree) intern(name string) uint32 {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := uint32(len(t.names))
	t.ids[name] = id
	t.names = append(t.names, name)
	return id
}

// Set upserts the edge placing child within parent. Re-parenting a frame is
// allowed; the old edge is replaced.
func (t *Tree) Set(child, parent string, pose viz.Pose, stamp time.Time) {
	childID := t.intern(child)
	parentID := t.intern(parent)
	node, ok := t.nodes.Get(childID)
	if !ok {
		node = &frameNode{}
		t.nodes.Put(childID, node)
	}
	node.parent = parentID
	node.hasParent = true
	node.pose = pose
	node.stamp = stamp
}

// Apply upserts a batch of edges in order.
func (t *Tree) Apply(updates []Update) {
	for _, u := range updates {
		t.Set(u.Child, u.Parent, u.Pose, u.Stamp)
	}
}

// Resolve composes the child-to-parent chain from frame up to the fixed
// reference frame. It reports false while the frame is unknown, the chain is
// broken, or the chain does not reach the fixed frame (including cycles).
func (t *Tree) Resolve(frame string, _ time.Time) (viz.Pose, bool) {
	id, ok := t.ids[frame]
	if !ok {
		return viz.Pose{}, false
	}
	acc := viz.IdentityPose()
	// A chain longer than the frame count has a cycle.
	for hops := 0; hops <= len(t.names); hops++ {
		if id == t.fixedID {
			return acc, true
		}
		node, ok := t.nodes.Get(id)
		if !ok || !node.hasParent {
			return viz.Pose{}, false
		}
		acc = node.pose.Mul(acc)
		id = node.parent
	}
	return viz.Pose{}, false
}

// Subscribe takes one reference on a frame name. The tree accepts edges for
// any frame regardless; subscriptions exist so hosts can see which frames are
// in use.
func (t *Tree) Subscribe(frame string) {
	t.subs[frame]++
}

// Unsubscribe drops one reference on a frame name.
func (t *Tree) Unsubscribe(frame string) {
	n, ok := t.subs[frame]
	if !ok {
		return
	}
	if n <= 1 {
		delete(t.subs, frame)
		return
	}
	t.subs[frame] = n - 1
}

// SubscriberCount returns the number of live subscriptions on a frame.
func (t *Tree) SubscriberCount(frame string) int {
	return t.subs[frame]
}

// FixedFrame returns the reference frame all poses resolve into.
func (t *Tree) FixedFrame() string {
	return t.fixed
}

// Frames returns every known frame name in sorted order.
func (t *Tree) Frames() []string {
	names := slices.Clone(t.names)
	slices.Sort(names)
	return names
}

// Parent returns the current parent of a frame, if it has an edge.
func (t *Tree) Parent(frame string) (string, bool) {
	id, ok := t.ids[frame]
	if !ok {
		return "", false
	}
	node, ok := t.nodes.Get(id)
	if !ok || !node.hasParent {
		return "", false
	}
	return t.names[node.parent], true
}
