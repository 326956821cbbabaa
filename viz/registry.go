// Package viz keeps a live 3D scene synchronized with a stream of
// upsert/delete marker events and a continuously-changing transform tree.
// The rendering and transform-lookup backends are collaborators supplied by
// the host; this package owns entity lifecycle and resource teardown.
package viz

import (
	"log"
	"slices"
	"time"
)

// Options configures a Registry.
type Options struct {
	// Lifetime is the default expiry window for entities whose markers carry
	// no lifetime of their own. Zero disables time-based expiry.
	Lifetime time.Duration

	// MeshBasePath resolves package:// mesh resource references.
	MeshBasePath string

	// HiddenShapes are shape types suppressed on ingestion: upserts carrying
	// one of these types never create or modify an entity.
	HiddenShapes []ShapeType

	// Logger receives diagnostics. Defaults to log.Default().
	Logger *log.Logger

	// Clock overrides the time source. Nil means time.Now.
	Clock func() time.Time
}

type managedEntity struct {
	key        EntityKey
	node       *SceneNode
	frameID    string
	renderable Renderable
	updatedAt  time.Time
	lifetime   time.Duration // 0 falls back to the registry default
}

// Registry maps an identity-keyed stream of upsert/delete/clear events onto
// live scene nodes, attaching each node to a frame subscription and tearing
// renderables down on every removal path through one teardown routine.
//
// A Registry is confined to a single goroutine: ApplyEvent, ApplyBatch,
// SweepExpired and Dispose must all be called from the host loop that also
// drives rendering. The render tick therefore always observes a fully-applied
// snapshot and no locking is needed.
type Registry struct {
	factory ShapeFactory
	tracker FrameTracker
	backend RenderBackend

	entities map[EntityKey]*managedEntity
	hidden   map[ShapeType]bool

	observers  []observer
	nextObsID  int
	defaultTTL time.Duration
	meshBase   string
	logger     *log.Logger
	now        func() time.Time
}

type observer struct {
	id int
	fn func()
}

// NewRegistry builds a registry over the given collaborators. The factory
// produces renderables from markers, the tracker serves frame subscriptions,
// and the backend owns the render scene nodes are inserted into.
func NewRegistry(factory ShapeFactory, tracker FrameTracker, backend RenderBackend, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	hidden := make(map[ShapeType]bool, len(opts.HiddenShapes))
	for _, s := range opts.HiddenShapes {
		hidden[s] = true
	}
	return &Registry{
		factory:    factory,
		tracker:    tracker,
		backend:    backend,
		entities:   make(map[EntityKey]*managedEntity),
		hidden:     hidden,
		defaultTTL: opts.Lifetime,
		meshBase:   opts.MeshBasePath,
		logger:     logger,
		now:        clock,
	}
}

// ApplyEvent consumes one decoded event. It never fails: unrecognized action
// codes are logged and dropped. A single change notification fires if the
// event mutated state.
func (r *Registry) ApplyEvent(ev Event) {
	if r.apply(ev) {
		r.notify()
	}
}

// ApplyBatch applies events in order and coalesces change notification to at
// most one for the whole batch.
func (r *Registry) ApplyBatch(events []Event) {
	changed := false
	for _, ev := range events {
		if r.apply(ev) {
			changed = true
		}
	}
	if changed {
		r.notify()
	}
}

func (r *Registry) apply(ev Event) bool {
	switch ev.Action {
	case ActionUpsert:
		return r.upsert(ev.Marker)
	case ActionDeprecated:
		r.logger.Printf("viz: deprecated action code %d for %q, ignoring", ev.Action, ev.Marker.Key())
		return false
	case ActionDelete:
		return r.remove(ev.Marker.Key())
	case ActionDeleteAll:
		return r.removeAll()
	default:
		r.logger.Printf("viz: unknown action code %d, ignoring", ev.Action)
		return false
	}
}

func (r *Registry) upsert(m Marker) bool {
	if r.hidden[m.Shape] {
		return false
	}
	if m.Shape == ShapeMesh {
		// Resolve once so the in-place path and a rebuild compare the same
		// resource reference.
		m.MeshURI = ResolveMeshURI(r.meshBase, m.MeshURI)
	}
	key := m.Key()

	if ent, ok := r.entities[key]; ok {
		if ent.renderable.ApplyUpdate(m) {
			if ent.frameID != m.FrameID {
				ent.node.Detach()
				ent.node.Attach(m.FrameID)
				ent.frameID = m.FrameID
			}
			ent.updatedAt = r.now()
			ent.lifetime = m.Lifetime
			return true
		}
		// The renderable rejected the update (incompatible shape change).
		// Replace under the same key: full teardown, then create as new.
		r.logger.Printf("viz: in-place update rejected for %q, rebuilding", key)
		r.destroy(ent)
		r.insert(m)
		// The old entity is gone even if the rebuild failed.
		return true
	}

	return r.insert(m)
}

func (r *Registry) insert(m Marker) bool {
	renderable, err := r.factory.Build(m)
	if err != nil {
		r.logger.Printf("viz: cannot build renderable for %q: %v", m.Key(), err)
		return false
	}
	node := NewSceneNode(r.tracker, renderable)
	node.Attach(m.FrameID)
	r.backend.AddNode(node)
	r.entities[m.Key()] = &managedEntity{
		key:        m.Key(),
		node:       node,
		frameID:    m.FrameID,
		renderable: renderable,
		updatedAt:  r.now(),
		lifetime:   m.Lifetime,
	}
	return true
}

func (r *Registry) remove(key EntityKey) bool {
	ent, ok := r.entities[key]
	if !ok {
		return false
	}
	r.destroy(ent)
	return true
}

func (r *Registry) removeAll() bool {
	if len(r.entities) == 0 {
		return false
	}
	for _, ent := range r.entities {
		r.destroy(ent)
	}
	return true
}

// destroy is the single teardown routine. Every removal path funnels here:
// explicit delete, replace-on-update, bulk clear, expiry and Dispose.
func (r *Registry) destroy(ent *managedEntity) {
	ent.node.Detach()
	r.backend.RemoveNode(ent.node)
	ent.renderable.ReleaseGeometry()
	ent.renderable.ReleaseMaterial()
	delete(r.entities, ent.key)
}

// SweepExpired destroys every entity whose age exceeds its expiry window and
// returns how many were removed. One change notification fires per sweep that
// removed anything. The host loop drives this at its own poll interval,
// independent of the render cadence; with a zero default lifetime only
// entities carrying per-marker lifetimes are eligible.
func (r *Registry) SweepExpired(now time.Time) int {
	removed := 0
	for _, ent := range r.entities {
		ttl := ent.lifetime
		if ttl == 0 {
			ttl = r.defaultTTL
		}
		if ttl == 0 {
			continue
		}
		if now.Sub(ent.updatedAt) > ttl {
			r.destroy(ent)
			removed++
		}
	}
	if removed > 0 {
		r.notify()
	}
	return removed
}

// Entity returns the renderable managed under key.
func (r *Registry) Entity(key EntityKey) (Renderable, bool) {
	ent, ok := r.entities[key]
	if !ok {
		return nil, false
	}
	return ent.renderable, true
}

// Node returns the scene node managed under key. Consumers such as the
// follow camera hold keys, not nodes, and look up per tick so that
// replace-on-update is transparent to them.
func (r *Registry) Node(key EntityKey) (*SceneNode, bool) {
	ent, ok := r.entities[key]
	if !ok {
		return nil, false
	}
	return ent.node, true
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Keys returns the live entity keys in sorted order.
func (r *Registry) Keys() []EntityKey {
	keys := make([]EntityKey, 0, len(r.entities))
	for key := range r.entities {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// FrameOf returns the frame an entity currently tracks.
func (r *Registry) FrameOf(key EntityKey) (string, bool) {
	ent, ok := r.entities[key]
	if !ok {
		return "", false
	}
	return ent.frameID, true
}

// Age returns how long ago the entity last accepted an update.
func (r *Registry) Age(now time.Time, key EntityKey) (time.Duration, bool) {
	ent, ok := r.entities[key]
	if !ok {
		return 0, false
	}
	return now.Sub(ent.updatedAt), true
}

// OnChange registers an observer invoked after every batch that mutated
// state. The returned cancel function removes the registration.
func (r *Registry) OnChange(fn func()) (cancel func()) {
	id := r.nextObsID
	r.nextObsID++
	r.observers = append(r.observers, observer{id: id, fn: fn})
	return func() {
		r.observers = slices.DeleteFunc(r.observers, func(o observer) bool {
			return o.id == id
		})
	}
}

func (r *Registry) notify() {
	// Dispatch over a snapshot: an observer cancelling itself (or another)
	// mid-notification compacts r.observers underneath a plain range.
	for _, o := range slices.Clone(r.observers) {
		o.fn()
	}
}

// Dispose removes and releases every managed entity. It is idempotent and
// emits no change notification; hosts tearing the scene down are past
// observing it.
func (r *Registry) Dispose() {
	for _, ent := range r.entities {
		r.destroy(ent)
	}
}
