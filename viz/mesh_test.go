package viz_test

import (
	"testing"

	"github.com/plus3/robovis/viz"
)

func TestResolveMeshURI(t *testing.T) {
	cases := []struct {
		name string
		base string
		uri  string
		want string
	}{
		{"package prefix stripped", "/meshes", "package://robot/arm.obj", "/meshes/robot/arm.obj"},
		{"plain path passes through", "/meshes", "/tmp/arm.obj", "/tmp/arm.obj"},
		{"relative path passes through", "/meshes", "arm.stl", "arm.stl"},
		{"empty base keeps resource path", "", "package://robot/arm.obj", "robot/arm.obj"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := viz.ResolveMeshURI(tc.base, tc.uri); got != tc.want {
				t.Errorf("ResolveMeshURI(%q, %q) = %q, want %q", tc.base, tc.uri, got, tc.want)
			}
		})
	}
}

func TestMakeKey(t *testing.T) {
	if got := viz.MakeKey("a", 1); got != "a1" {
		t.Errorf("expected key a1, got %q", got)
	}
	if got := viz.MakeKey("", -3); got != "-3" {
		t.Errorf("expected key -3, got %q", got)
	}
}
