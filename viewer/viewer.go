// Package viewer renders the managed scene with Ebiten: a fixed-TPS loop
// that drains bus intake into the registry, refreshes node transforms, and
// draws every renderable as a projected wireframe.
package viewer

import (
	"context"
	"errors"
	"image/color"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/plus3/robovis/tf"
	"github.com/plus3/robovis/viz"
)

// Options configures a Viewer.
type Options struct {
	Title  string
	Width  int
	Height int

	// TPS caps the update rate, decoupling scene ticks from the display
	// refresh rate. Zero means 30.
	TPS int

	// ExpiryPoll is how often the registry's expiry sweep runs. Zero means
	// one second.
	ExpiryPoll time.Duration

	// FollowKey, when set, is the entity the F key toggles follow mode on.
	FollowKey viz.EntityKey

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Intake is one ordered batch handed to the viewer loop: transform updates
// applied to the tree before marker events are applied to the registry.
type Intake struct {
	Transforms []tf.Update
	Events     []viz.Event
}

// Overlay is an optional debug UI layered over the scene. Layout receives
// the outside size every frame, matching ebiten.Game.Layout.
type Overlay interface {
	Update()
	Draw(screen *ebiten.Image)
	Layout(outsideWidth, outsideHeight int)
}

// Viewer owns the render loop and the scene node list; it implements
// viz.RenderBackend for the registry and ebiten.Game for the loop. All scene
// state is mutated only from Update, which Ebiten runs on one goroutine, so
// the registry's single-goroutine confinement holds.
type Viewer struct {
	opts     Options
	logger   *log.Logger
	registry *viz.Registry
	tree     *tf.Tree
	camera   *Camera
	overlay  Overlay

	nodes  []*viz.SceneNode
	intake chan Intake

	ctx        context.Context
	lastSweep  time.Time
	expiryPoll time.Duration
	now        func() time.Time
}

// New creates a viewer. Bind must be called before Run.
func New(opts Options) *Viewer {
	if opts.TPS <= 0 {
		opts.TPS = 30
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	poll := opts.ExpiryPoll
	if poll <= 0 {
		poll = time.Second
	}
	return &Viewer{
		opts:       opts,
		logger:     opts.Logger,
		intake:     make(chan Intake, 64),
		expiryPoll: poll,
		now:        time.Now,
	}
}

// Bind attaches the registry and transform tree the loop drives. The
// registry must have been built with this viewer as its RenderBackend.
func (v *Viewer) Bind(registry *viz.Registry, tree *tf.Tree) {
	v.registry = registry
	v.tree = tree
	v.camera = NewCamera(registry)
}

// AddNode inserts a node into the render scene.
func (v *Viewer) AddNode(n *viz.SceneNode) {
	v.nodes = append(v.nodes, n)
}

// RemoveNode removes a node from the render scene.
func (v *Viewer) RemoveNode(n *viz.SceneNode) {
	for i, other := range v.nodes {
		if other == n {
			v.nodes = append(v.nodes[:i], v.nodes[i+1:]...)
			return
		}
	}
}

// Camera returns the viewer's camera.
func (v *Viewer) Camera() *Camera {
	return v.camera
}

// Intake returns the channel producers push decoded batches into.
func (v *Viewer) Intake() chan<- Intake {
	return v.intake
}

// SetOverlay installs a debug overlay.
func (v *Viewer) SetOverlay(o Overlay) {
	v.overlay = o
}

// Run enters the render loop and blocks until the window closes or ctx is
// cancelled. Cancellation stops the loop before its next tick; managed
// entities still require registry.Dispose.
func (v *Viewer) Run(ctx context.Context) error {
	v.ctx = ctx
	ebiten.SetWindowSize(v.opts.Width, v.opts.Height)
	ebiten.SetWindowTitle(v.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(v.opts.TPS)
	err := ebiten.RunGame(v)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update applies pending intake, runs the expiry sweep at its poll interval,
// ticks every scene node, and advances the camera.
func (v *Viewer) Update() error {
	if v.ctx != nil && v.ctx.Err() != nil {
		return ebiten.Termination
	}
	v.drainIntake()

	now := v.now()
	if now.Sub(v.lastSweep) >= v.expiryPoll {
		v.registry.SweepExpired(now)
		v.lastSweep = now
	}
	for _, n := range v.nodes {
		n.Tick(now)
	}
	v.camera.Tick()
	v.handleInput()
	if v.overlay != nil {
		v.overlay.Update()
	}
	return nil
}

// drainIntake applies every batch already delivered, in arrival order, and
// returns without blocking once the channel is empty.
func (v *Viewer) drainIntake() {
	for {
		select {
		case in := <-v.intake:
			v.tree.Apply(in.Transforms)
			v.registry.ApplyBatch(in.Events)
		default:
			return
		}
	}
}

func (v *Viewer) handleInput() {
	const orbitStep = 0.03
	const panStep = 0.1
	cam := v.camera
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyLeft):
		cam.Orbit(-orbitStep, 0)
	case ebiten.IsKeyPressed(ebiten.KeyRight):
		cam.Orbit(orbitStep, 0)
	case ebiten.IsKeyPressed(ebiten.KeyUp):
		cam.Orbit(0, orbitStep)
	case ebiten.IsKeyPressed(ebiten.KeyDown):
		cam.Orbit(0, -orbitStep)
	case ebiten.IsKeyPressed(ebiten.KeyA):
		cam.Pan(-panStep, 0)
	case ebiten.IsKeyPressed(ebiten.KeyD):
		cam.Pan(panStep, 0)
	case ebiten.IsKeyPressed(ebiten.KeyW):
		cam.Pan(0, panStep)
	case ebiten.IsKeyPressed(ebiten.KeyS):
		cam.Pan(0, -panStep)
	case ebiten.IsKeyPressed(ebiten.KeyPageUp):
		cam.Zoom(0.97)
	case ebiten.IsKeyPressed(ebiten.KeyPageDown):
		cam.Zoom(1.03)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		cam.FitAll(1.2)
	}
	if v.opts.FollowKey != "" && inpututil.IsKeyJustPressed(ebiten.KeyF) {
		if _, following := cam.Following(); following {
			cam.StopFollow()
		} else {
			cam.Follow(v.opts.FollowKey)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		cam.SnapToView()
	}
}

// Draw projects every live wireframe through the camera and strokes its
// edges.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 16, G: 18, B: 22, A: 255})

	bounds := screen.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())
	view := mgl64.LookAtV(v.camera.Eye(), v.camera.Target(), v.camera.Up())
	proj := mgl64.Perspective(v.camera.FOV, width/height, 0.05, 500)
	vp := proj.Mul4(view)

	for _, n := range v.nodes {
		w, ok := n.Renderable().(*Wireframe)
		if !ok || w.geometryReleased {
			continue
		}
		model := n.Transform().Mul(w.local)
		clr := color.RGBA{
			R: uint8(mgl64.Clamp(float64(w.color.R), 0, 1) * 255),
			G: uint8(mgl64.Clamp(float64(w.color.G), 0, 1) * 255),
			B: uint8(mgl64.Clamp(float64(w.color.B), 0, 1) * 255),
			A: uint8(mgl64.Clamp(float64(w.color.A), 0, 1) * 255),
		}
		for _, edge := range w.edges {
			x0, y0, ok0 := projectVertex(vp, model, w.scale, w.verts[edge[0]], width, height)
			x1, y1, ok1 := projectVertex(vp, model, w.scale, w.verts[edge[1]], width, height)
			if !ok0 || !ok1 {
				continue
			}
			vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, clr, true)
		}
	}

	if v.overlay != nil {
		v.overlay.Draw(screen)
	}
}

func projectVertex(vp mgl64.Mat4, model viz.Pose, scale, vert mgl64.Vec3, width, height float64) (x, y float64, ok bool) {
	local := mgl64.Vec3{vert.X() * scale.X(), vert.Y() * scale.Y(), vert.Z() * scale.Z()}
	world := model.Apply(local)
	clip := vp.Mul4x1(world.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, false
	}
	x = (clip.X()/clip.W() + 1) / 2 * width
	y = (1 - clip.Y()/clip.W()) / 2 * height
	return x, y, true
}

// Layout reports the logical screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if v.overlay != nil {
		v.overlay.Layout(outsideWidth, outsideHeight)
	}
	return v.opts.Width, v.opts.Height
}
