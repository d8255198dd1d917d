package recipe

import (
	"testing"

	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/toolerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func newTrack(t *testing.T, name string) *Animation {
	t.Helper()
	d := params.MustLookup(name)
	return NewAnimation(d, NewCell(d))
}

func TestManualTwoKeyframes(t *testing.T) {
	a := newTrack(t, "viewContrast")
	err := a.Manual(Props{
		Times:   []float64{1.0, 2.0},
		Values:  []float64{10, 20},
		Initial: f64(5),
	}, params.Strict)
	require.NoError(t, err)
	require.NoError(t, a.Check())

	assert.Equal(t, map[string]any{
		"times":        []any{1.0, 2.0},
		"values":       []any{10, 20},
		"handlePairs":  []any{map[string]any{}, map[string]any{}},
		"initialValue": 5,
	}, a.Store())
}

func TestManualValidation(t *testing.T) {
	a := newTrack(t, "viewContrast")

	err := a.Manual(Props{Times: []float64{1, 2}, Values: []float64{1}}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrCardinality)

	err = a.Manual(Props{Times: []float64{1}, Values: []float64{1}, Dt0: []float64{0.1}}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrCardinality)

	err = a.Manual(Props{Times: []float64{2, 1}, Values: []float64{1, 2}}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrRange)

	err = a.Manual(Props{Times: []float64{1}, Values: []float64{500}}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrRange)
	assert.False(t, a.Active(), "rejected input leaves the track untouched")

	err = a.Manual(Props{
		Times: []float64{1}, Values: []float64{50},
		Dt0: []float64{0.2}, Dt1: []float64{-0.2}, Dv0: []float64{5}, Dv1: []float64{-5},
	}, params.Strict)
	require.NoError(t, err)
	kf, err := a.Keyframe(0)
	require.NoError(t, err)
	require.NotNil(t, kf.Handles)
	want := []Point{{0.8, 45}, {1, 50}, {1.2, 55}}
	got := kf.Points()
	require.Len(t, got, 3)
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-12)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-12)
	}
}

func autoParams(t0, v0, t1, v1 *float64, steps int) AutoParams {
	return AutoParams{
		T0: t0, V0: v0, T1: t1, V1: v1,
		Ease: "in_out", Shape: "quad", Steps: steps,
		Buffer: 0.0001, Duration: 10,
	}
}

func TestAutoInOutQuad(t *testing.T) {
	a := newTrack(t, "viewContrast")
	err := a.Auto(autoParams(f64(0.0001), f64(0), f64(10), f64(100), 12))
	require.NoError(t, err)
	require.NoError(t, a.Check())

	ks, err := a.Keyframes()
	require.NoError(t, err)
	require.Len(t, ks, 4)
	for _, k := range ks {
		t.Logf("%v", k)
	}
	assert.InDelta(t, 0, ks[0].Value, 5)
	assert.InDelta(t, 100, ks[3].Value, 5)
	for i := 1; i < len(ks); i++ {
		assert.Greater(t, ks[i].Time, ks[i-1].Time)
	}

	pts := a.Points()
	assert.Len(t, pts, 12)
	assert.InDelta(t, 0.0001, pts[0].X, 1e-9)
	assert.InDelta(t, 10, pts[len(pts)-1].X, 1e-9)
}

func TestAutoDeterministic(t *testing.T) {
	run := func() any {
		a := newTrack(t, "viewExposure")
		require.NoError(t, a.Auto(autoParams(f64(1), f64(-2), f64(6), f64(3), 12)))
		return a.Store()
	}
	assert.Equal(t, run(), run())
}

func TestAutoStepsRoundUp(t *testing.T) {
	for _, steps := range []int{1, 7, 10, 12, 13} {
		a := newTrack(t, "viewExposure")
		require.NoError(t, a.Auto(autoParams(nil, f64(0), nil, f64(1), steps)))
		pts := a.Points()
		ks, err := a.Keyframes()
		require.NoError(t, err)
		assert.Zero(t, len(pts)%3, "steps %d", steps)
		assert.Equal(t, len(pts)/3, len(ks), "steps %d", steps)
	}
}

func TestAutoContinuesTrack(t *testing.T) {
	a := newTrack(t, "viewExposure")
	require.NoError(t, a.Auto(autoParams(nil, f64(0), f64(5), f64(2), 6)))
	require.NoError(t, a.Auto(autoParams(nil, nil, nil, f64(-1), 6)))
	require.NoError(t, a.Check())

	pts := a.Points()
	require.Len(t, pts, 12)
	assert.InDelta(t, 5.0001, pts[6].X, 1e-9, "t0 follows the last handle point")
	assert.InDelta(t, 2, pts[6].Y, 1e-9, "v0 follows the last handle value")
	assert.InDelta(t, 15.0001, pts[11].X, 1e-9, "t1 defaults to t0 + duration")

	err := a.Auto(autoParams(f64(3), nil, nil, f64(1), 6))
	assert.ErrorIs(t, err, toolerr.ErrInvalid, "t0 before the last keyframe")
}

func TestAutoContinuesFromLastKeyframeOnly(t *testing.T) {
	a := newTrack(t, "viewExposure")
	require.NoError(t, a.Manual(Props{
		Times: []float64{1}, Values: []float64{0},
		Dt0: []float64{0}, Dt1: []float64{-3}, Dv0: []float64{0}, Dv1: []float64{-2},
	}, params.Strict))
	require.NoError(t, a.Manual(Props{Times: []float64{2}, Values: []float64{2}}, params.Strict))

	p := autoParams(nil, nil, nil, f64(4), 6)
	p.Duration = 2
	require.NoError(t, a.Auto(p))

	pts := a.Points()
	// 3 handle points, the plain keyframe, then two eased triples
	require.Len(t, pts, 10)
	assert.Equal(t, Point{X: 2, Y: 2}, pts[3])
	assert.InDelta(t, 2.0001, pts[4].X, 1e-9, "t0 follows the plain last keyframe")
	assert.InDelta(t, 2, pts[4].Y, 1e-9, "v0 is the last keyframe value")
	assert.InDelta(t, 4.0001, pts[9].X, 1e-9)
	assert.InDelta(t, 4, pts[9].Y, 1e-9)
}

func TestAutoStartValue(t *testing.T) {
	a := newTrack(t, "viewTemperature")
	err := a.Auto(autoParams(nil, nil, nil, f64(6000), 12))
	assert.ErrorIs(t, err, toolerr.ErrStartValue)
	assert.EqualError(t, err, "viewTemperature: no starting value found; specify --v0")

	require.NoError(t, a.view.Set(5000, params.Strict))
	require.NoError(t, a.Auto(autoParams(nil, nil, nil, f64(6000), 12)))
	assert.Equal(t, 5000.0, a.Points()[0].Y)

	b := newTrack(t, "viewExposure")
	require.NoError(t, b.Initial.Set(1.5, params.Strict))
	require.NoError(t, b.view.Set(-1.0, params.Strict))
	require.NoError(t, b.Auto(autoParams(nil, nil, nil, f64(2), 3)))
	assert.Equal(t, 1.5, b.Points()[0].Y, "initial value wins over the view value")

	err = b.Auto(AutoParams{Ease: "in", Shape: "quad", Steps: 3})
	assert.ErrorIs(t, err, toolerr.ErrInvalid, "v1 is required")
}

func TestAutoDurationGuard(t *testing.T) {
	a := newTrack(t, "viewExposure")
	err := a.Auto(autoParams(f64(1.0), nil, f64(1.2), f64(5), 12))
	assert.ErrorIs(t, err, toolerr.ErrDuration)
	assert.False(t, a.Active())

	assert.NoError(t, CheckDuration("viewExposure", 1.0, 1.5))
}

func TestEaseRejectsBadInput(t *testing.T) {
	a := newTrack(t, "viewExposure")
	assert.ErrorIs(t, a.Ease(1, 0, 2, 1, "in_out", "quad", 1), toolerr.ErrInvalid)
	assert.ErrorIs(t, a.Ease(1, 0, 2, 1, "in_out", "wobble", 6), toolerr.ErrInvalid)
}

func TestScaleLinearity(t *testing.T) {
	build := func() *Animation {
		a := newTrack(t, "viewExposure")
		require.NoError(t, a.Auto(autoParams(f64(1), f64(-1), f64(4), f64(2), 9)))
		return a
	}

	once := build()
	require.NoError(t, once.Scale(&Span{A: 2, B: 12}, &Span{A: -4, B: 4}))

	twice := build()
	require.NoError(t, twice.Scale(&Span{A: 0.5, B: 3}, &Span{A: 1, B: 2}))
	require.NoError(t, twice.Scale(&Span{A: 2, B: 12}, &Span{A: -4, B: 4}))

	p1, p2 := once.Points(), twice.Points()
	require.Len(t, p2, len(p1))
	for i := range p1 {
		assert.InDelta(t, p1[i].X, p2[i].X, 1e-9)
		assert.InDelta(t, p1[i].Y, p2[i].Y, 1e-9)
	}
	assert.InDelta(t, 2, p1[0].X, 1e-9)
	assert.InDelta(t, 12, p1[len(p1)-1].X, 1e-9)
	assert.InDelta(t, -4, p1[0].Y, 1e-9)
	assert.InDelta(t, 4, p1[len(p1)-1].Y, 1e-9)
	require.NoError(t, once.Check())
}

func TestScaleErrors(t *testing.T) {
	a := newTrack(t, "viewExposure")
	assert.ErrorIs(t, a.Scale(&Span{A: 1, B: 2}, nil), toolerr.ErrInvalid)

	require.NoError(t, a.Manual(Props{Times: []float64{1, 2}, Values: []float64{3, 3}}, params.Strict))
	assert.ErrorIs(t, a.Scale(nil, &Span{A: 0, B: 1}), toolerr.ErrRange)
}

func TestKeyframeEditing(t *testing.T) {
	a := newTrack(t, "viewExposure")
	require.NoError(t, a.Manual(Props{Times: []float64{1, 2, 3}, Values: []float64{0, 1, 2}}, params.Strict))

	require.NoError(t, a.Adjust(1, KeyframePatch{Value: f64(4)}, params.Strict))
	kf, err := a.Keyframe(1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, kf.Value)
	assert.ErrorIs(t, a.Adjust(1, KeyframePatch{Value: f64(40)}, params.Strict), toolerr.ErrRange)
	assert.ErrorIs(t, a.Adjust(9, KeyframePatch{}, params.Strict), toolerr.ErrInvalid)

	require.NoError(t, a.DeleteKeyframe(0))
	assert.Equal(t, []float64{2, 3}, a.XPoints())
	assert.Equal(t, []float64{4, 2}, a.YPoints())
}

func TestPointsSkipPartialKeyframes(t *testing.T) {
	a := newTrack(t, "viewExposure")
	require.NoError(t, a.Manual(Props{Times: []float64{1, 2, 3}, Values: []float64{0, 1, 2}}, params.Strict))
	a.Values.Delete(1)

	assert.Equal(t, []Point{{1, 0}, {3, 2}}, a.Points())
	assert.ErrorIs(t, a.Check(), toolerr.ErrCardinality)
}

func TestAnimationLoad(t *testing.T) {
	a := newTrack(t, "viewContrast")
	err := a.Load(map[string]any{
		"times":        []any{1.0, 2.0},
		"values":       []any{10.0, 20.0},
		"handlePairs":  []any{map[string]any{"dt0": 0.1, "dt1": -0.1, "dv0": 1.0, "dv1": -1.0}, map[string]any{}},
		"initialValue": nil,
	}, params.Strict)
	require.NoError(t, err)
	require.NoError(t, a.Check())
	ks, err := a.Keyframes()
	require.NoError(t, err)
	require.Len(t, ks, 2)
	assert.NotNil(t, ks[0].Handles)
	assert.Nil(t, ks[1].Handles)

	err = a.Load(map[string]any{"speed": 1.0}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrInvalid)
}
