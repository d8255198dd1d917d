package recipe

import (
	"fmt"

	"github.com/ivlev/recipetool/internal/toolerr"
)

// Point is one (time, value) coordinate of an animation curve.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Keyframe is a read-only view over one index of an animation track.
type Keyframe struct {
	Index    int
	Time     float64
	Value    float64
	HasTime  bool
	HasValue bool
	Handles  *HandlePair
}

// Points returns the keyframe point, wrapped by its handle points when
// handles are set.
func (k Keyframe) Points() []Point {
	p := Point{X: k.Time, Y: k.Value}
	if k.Handles == nil {
		return []Point{p}
	}
	h := k.Handles
	return []Point{
		{X: k.Time - h.Dt0, Y: k.Value - h.Dv0},
		p,
		{X: k.Time - h.Dt1, Y: k.Value - h.Dv1},
	}
}

// KeyframeFromPoints is the inverse of Points for one or three points.
func KeyframeFromPoints(pts []Point) (Keyframe, error) {
	switch len(pts) {
	case 1:
		return Keyframe{Time: pts[0].X, Value: pts[0].Y, HasTime: true, HasValue: true}, nil
	case 3:
		t, v := pts[1].X, pts[1].Y
		return Keyframe{
			Time:     t,
			Value:    v,
			HasTime:  true,
			HasValue: true,
			Handles: &HandlePair{
				Dt0: t - pts[0].X,
				Dv0: v - pts[0].Y,
				Dt1: t - pts[2].X,
				Dv1: v - pts[2].Y,
			},
		}, nil
	}
	return Keyframe{}, toolerr.New(toolerr.ErrCardinality, "",
		"keyframe: invalid amount of points (%d) (min: 1 | max: 3)", len(pts))
}

// Store renders the keyframe for inspection output.
func (k Keyframe) Store() map[string]any {
	out := map[string]any{}
	if k.HasTime {
		out["time"] = k.Time
	}
	if k.HasValue {
		out["value"] = k.Value
	}
	if k.Handles != nil {
		out["dt0"] = k.Handles.Dt0
		out["dt1"] = k.Handles.Dt1
		out["dv0"] = k.Handles.Dv0
		out["dv1"] = k.Handles.Dv1
		pts := k.Points()
		out["x0"], out["y0"] = pts[0].X, pts[0].Y
		out["x2"], out["y2"] = pts[2].X, pts[2].Y
	}
	return out
}

func (k Keyframe) String() string {
	if k.Handles == nil {
		return fmt.Sprintf("#%d t=%g v=%g", k.Index, k.Time, k.Value)
	}
	return fmt.Sprintf("#%d t=%g v=%g dt0=%g dt1=%g dv0=%g dv1=%g",
		k.Index, k.Time, k.Value, k.Handles.Dt0, k.Handles.Dt1, k.Handles.Dv0, k.Handles.Dv1)
}

// KeyframePatch holds the fields Adjust overwrites; nil fields are kept.
type KeyframePatch struct {
	Time    *float64
	Value   *float64
	Handles *HandlePair
}
