package viz_test

import (
	"errors"
	"io"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/robovis/viz"
)

// Common fakes for the registry and node tests.

type fakeRenderable struct {
	shape        viz.ShapeType
	updates      []viz.Marker
	geomReleases int
	matReleases  int
}

func (f *fakeRenderable) ApplyUpdate(m viz.Marker) bool {
	if m.Shape != f.shape {
		return false
	}
	f.updates = append(f.updates, m)
	return true
}

func (f *fakeRenderable) ReleaseGeometry() { f.geomReleases++ }
func (f *fakeRenderable) ReleaseMaterial() { f.matReleases++ }

func (f *fakeRenderable) Bounds() (mgl64.Vec3, float64) {
	return mgl64.Vec3{}, 0.5
}

type fakeFactory struct {
	built   []*fakeRenderable
	failAll bool
}

func (f *fakeFactory) Build(m viz.Marker) (viz.Renderable, error) {
	if f.failAll {
		return nil, errors.New("factory refused")
	}
	r := &fakeRenderable{shape: m.Shape}
	f.built = append(f.built, r)
	return r, nil
}

type fakeTracker struct {
	subs  map[string]int
	poses map[string]viz.Pose
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		subs:  make(map[string]int),
		poses: make(map[string]viz.Pose),
	}
}

func (f *fakeTracker) Subscribe(frame string)   { f.subs[frame]++ }
func (f *fakeTracker) Unsubscribe(frame string) { f.subs[frame]-- }

func (f *fakeTracker) Resolve(frame string, _ time.Time) (viz.Pose, bool) {
	pose, ok := f.poses[frame]
	return pose, ok
}

type fakeBackend struct {
	added   []*viz.SceneNode
	removed []*viz.SceneNode
}

func (f *fakeBackend) AddNode(n *viz.SceneNode)    { f.added = append(f.added, n) }
func (f *fakeBackend) RemoveNode(n *viz.SceneNode) { f.removed = append(f.removed, n) }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// testClock is a manually-advanced time source.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1000, 0)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
