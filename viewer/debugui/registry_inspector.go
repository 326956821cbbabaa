package debugui

import (
	"fmt"
	"strings"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/robovis/viz"
)

// RegistryInspector is a window listing every live entity: key, tracked
// frame, shape, and time since the last accepted update.
type RegistryInspector struct {
	registry   *viz.Registry
	filterText string
	selected   viz.EntityKey
}

func NewRegistryInspector(registry *viz.Registry) *RegistryInspector {
	return &RegistryInspector{registry: registry}
}

// Selected returns the entity row the user last clicked.
func (ri *RegistryInspector) Selected() (viz.EntityKey, bool) {
	if ri.selected == "" {
		return "", false
	}
	if _, ok := ri.registry.Entity(ri.selected); !ok {
		return "", false
	}
	return ri.selected, true
}

func (ri *RegistryInspector) Render(now time.Time) {
	if !imgui.BeginV("Entities", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.InputTextWithHint("##filter", "Filter keys...", &ri.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear") {
		ri.filterText = ""
	}

	keys := ri.registry.Keys()
	shown := 0

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Key")
		imgui.TableSetupColumn("Frame")
		imgui.TableSetupColumn("Shape")
		imgui.TableSetupColumn("Age")
		imgui.TableHeadersRow()

		for _, key := range keys {
			if ri.filterText != "" && !strings.Contains(string(key), ri.filterText) {
				continue
			}
			shown++
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := ri.selected == key
			if imgui.SelectableBoolV(string(key), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				ri.selected = key
			}

			imgui.TableNextColumn()
			if frame, ok := ri.registry.FrameOf(key); ok {
				imgui.Text(frame)
			}

			imgui.TableNextColumn()
			imgui.Text(shapeLabel(ri.registry, key))

			imgui.TableNextColumn()
			if age, ok := ri.registry.Age(now, key); ok {
				imgui.Text(fmt.Sprintf("%.1fs", age.Seconds()))
			}
		}

		imgui.EndTable()
	}

	imgui.Text(fmt.Sprintf("%d / %d entities", shown, ri.registry.Len()))
	imgui.End()
}

// shaped is implemented by renderables that can report their shape type.
type shaped interface {
	Shape() viz.ShapeType
}

func shapeLabel(registry *viz.Registry, key viz.EntityKey) string {
	r, ok := registry.Entity(key)
	if !ok {
		return ""
	}
	if s, ok := r.(shaped); ok {
		return s.Shape().String()
	}
	return "renderable"
}
