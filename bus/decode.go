package bus

import (
	"encoding/json"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/plus3/robovis/tf"
	"github.com/plus3/robovis/viz"
)

type wireVec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireQuat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type wirePose struct {
	Position    wireVec3 `json:"position"`
	Orientation wireQuat `json:"orientation"`
}

type wireColor struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
	A float32 `json:"a"`
}

type wireMarker struct {
	Action       uint8     `json:"action"`
	Namespace    string    `json:"ns"`
	ID           int32     `json:"id"`
	FrameID      string    `json:"frame_id"`
	Type         int32     `json:"type"`
	Pose         wirePose  `json:"pose"`
	Scale        wireVec3  `json:"scale"`
	Color        wireColor `json:"color"`
	MeshResource string    `json:"mesh_resource"`
	Lifetime     float64   `json:"lifetime"` // seconds
}

type wireMarkerArray struct {
	Markers []wireMarker `json:"markers"`
}

type wireTransform struct {
	ChildFrameID string   `json:"child_frame_id"`
	FrameID      string   `json:"frame_id"`
	Translation  wireVec3 `json:"translation"`
	Rotation     wireQuat `json:"rotation"`
	Stamp        float64  `json:"stamp"` // seconds since epoch
}

type wireTransformArray struct {
	Transforms []wireTransform `json:"transforms"`
}

func (v wireVec3) vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func (q wireQuat) quat() mgl64.Quat {
	if q.X == 0 && q.Y == 0 && q.Z == 0 && q.W == 0 {
		// Unset orientation on the wire means identity.
		return mgl64.QuatIdent()
	}
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}.Normalize()
}

func (m wireMarker) event() viz.Event {
	return viz.Event{
		Action: viz.Action(m.Action),
		Marker: viz.Marker{
			Namespace: m.Namespace,
			ID:        m.ID,
			FrameID:   m.FrameID,
			Shape:     viz.ShapeType(m.Type),
			Pose: viz.Pose{
				Position:    m.Pose.Position.vec(),
				Orientation: m.Pose.Orientation.quat(),
			},
			Scale:    m.Scale.vec(),
			Color:    viz.Color{R: m.Color.R, G: m.Color.G, B: m.Color.B, A: m.Color.A},
			MeshURI:  m.MeshResource,
			Lifetime: time.Duration(m.Lifetime * float64(time.Second)),
		},
	}
}

// DecodeMarker decodes a single-marker topic message into one event.
func DecodeMarker(data json.RawMessage) (viz.Event, error) {
	var m wireMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return viz.Event{}, err
	}
	return m.event(), nil
}

// DecodeMarkerArray decodes a batched marker topic message, preserving order.
func DecodeMarkerArray(data json.RawMessage) ([]viz.Event, error) {
	var arr wireMarkerArray
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, err
	}
	events := make([]viz.Event, len(arr.Markers))
	for i, m := range arr.Markers {
		events[i] = m.event()
	}
	return events, nil
}

// DecodeTransforms decodes a transform topic message into tree updates.
func DecodeTransforms(data json.RawMessage) ([]tf.Update, error) {
	var arr wireTransformArray
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, err
	}
	updates := make([]tf.Update, len(arr.Transforms))
	for i, t := range arr.Transforms {
		sec, frac := math.Modf(t.Stamp)
		updates[i] = tf.Update{
			Child:  t.ChildFrameID,
			Parent: t.FrameID,
			Pose: viz.Pose{
				Position:    t.Translation.vec(),
				Orientation: t.Rotation.quat(),
			},
			Stamp: time.Unix(int64(sec), int64(frac*float64(time.Second))),
		}
	}
	return updates, nil
}
