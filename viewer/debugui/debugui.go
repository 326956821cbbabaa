// Package debugui provides a Dear ImGui overlay for the viewer: inspectors
// for the entity registry and the transform tree. It renders through the
// cimgui-go Ebiten backend and plugs into the viewer as its Overlay.
package debugui

import (
	"time"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/robovis/tf"
	"github.com/plus3/robovis/viz"
)

// Overlay drives the ImGui frame around the inspectors. Create one with
// NewOverlay and install it on the viewer before Run.
type Overlay struct {
	backend  *ebitenbackend.EbitenBackend
	registry *RegistryInspector
	frames   *FrameTreeInspector
}

// NewOverlay creates the ImGui backend and both inspectors.
func NewOverlay(title string, width, height int, registry *viz.Registry, tree *tf.Tree) *Overlay {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &Overlay{
		backend:  backend,
		registry: NewRegistryInspector(registry),
		frames:   NewFrameTreeInspector(tree),
	}
}

// Update runs one ImGui frame with every inspector window.
func (o *Overlay) Update() {
	o.backend.BeginFrame()
	o.registry.Render(time.Now())
	o.frames.Render()
	o.backend.EndFrame()
}

// Draw composites the ImGui output over the scene.
func (o *Overlay) Draw(screen *ebiten.Image) {
	o.backend.Draw(screen)
}

// Layout forwards the outside size to the backend.
func (o *Overlay) Layout(outsideWidth, outsideHeight int) {
	o.backend.Layout(outsideWidth, outsideHeight)
}
