package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/robovis/tf"
)

// FrameTreeInspector is a window listing every known coordinate frame with
// its parent edge and live subscription count.
type FrameTreeInspector struct {
	tree *tf.Tree
}

func NewFrameTreeInspector(tree *tf.Tree) *FrameTreeInspector {
	return &FrameTreeInspector{tree: tree}
}

func (fi *FrameTreeInspector) Render() {
	if !imgui.BeginV("Frames", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Fixed frame: %s", fi.tree.FixedFrame()))
	imgui.Separator()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("FrameTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Frame")
		imgui.TableSetupColumn("Parent")
		imgui.TableSetupColumn("Subscribers")
		imgui.TableHeadersRow()

		for _, frame := range fi.tree.Frames() {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(frame)

			imgui.TableNextColumn()
			if parent, ok := fi.tree.Parent(frame); ok {
				imgui.Text(parent)
			} else if frame == fi.tree.FixedFrame() {
				imgui.Text("(fixed)")
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", fi.tree.SubscriberCount(frame)))
		}

		imgui.EndTable()
	}

	imgui.End()
}
