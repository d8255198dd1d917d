package recipe

import (
	"testing"

	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/toolerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellSet(t *testing.T) {
	c := NewCell(params.MustLookup("viewContrast"))
	assert.False(t, c.Active())

	require.NoError(t, c.Set("12.6", params.Strict))
	assert.Equal(t, 13, c.Get())

	err := c.Set(150, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrRange)
	assert.Equal(t, 13, c.Get(), "failed set keeps the old value")

	require.NoError(t, c.Set(150, params.Clip))
	assert.Equal(t, 100, c.Get())

	require.NoError(t, c.Set("", params.Strict))
	assert.False(t, c.Active())
}

func TestListOperations(t *testing.T) {
	l := NewList(params.MustLookup("viewExposure"))
	require.NoError(t, l.Extend([]any{1.0, 2.0, 3.0}, params.Strict))
	require.NoError(t, l.Append(4.0, params.Strict))
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, l.Export())

	l.Delete(1)
	assert.Equal(t, 4, l.Len(), "delete does not shift")
	assert.Equal(t, []any{1.0, 3.0, 4.0}, l.Export())

	l.Arrange()
	assert.Equal(t, 3, l.Len())

	require.NoError(t, l.Insert(1, params.Strict, -1.0, -2.0))
	assert.Equal(t, []any{1.0, -1.0, -2.0, 3.0, 4.0}, l.Export())

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, 4.0, last.Get())
}

func TestListGetOrDefault(t *testing.T) {
	l := NewList(params.MustLookup("viewExposure"))
	require.NoError(t, l.Extend([]any{1.0, 2.0, 3.0}, params.Strict))

	c, ok := l.GetOrDefault(5)
	assert.False(t, ok)
	assert.False(t, c.Active())
	assert.Equal(t, 3, l.Len(), "reading past the end does not grow the list")

	require.NoError(t, l.SetAt(5, 0.5, params.Strict))
	assert.Equal(t, 6, l.Len())
	assert.Equal(t, []any{1.0, 2.0, 3.0, 0.5}, l.Export())

	l.Arrange()
	for i := 0; i < l.Len(); i++ {
		c, ok := l.GetOrDefault(i)
		require.True(t, ok)
		assert.True(t, c.Active(), "index %d", i)
	}
}

func TestHandlePairs(t *testing.T) {
	meta := params.MustLookup("viewContrast").Animation()
	h := NewHandlePairs("viewContrastAnimation", meta)

	require.NoError(t, h.Set(0, &HandlePair{Dt0: 0.5, Dt1: -0.5, Dv0: 10, Dv1: -10}, params.Strict))
	require.NoError(t, h.Set(1, nil, params.Strict))

	p, ok, err := h.At(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, HandlePair{Dt0: 0.5, Dt1: -0.5, Dv0: 10, Dv1: -10}, p)

	_, ok, err = h.At(1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []any{
		map[string]any{"dt0": 0.5, "dt1": -0.5, "dv0": 10, "dv1": -10},
		map[string]any{},
	}, h.Export(2))

	h.Dv1.Delete(0)
	_, _, err = h.At(0)
	assert.ErrorIs(t, err, toolerr.ErrCardinality)
	assert.ErrorIs(t, h.Check(2), toolerr.ErrCardinality)

	err = h.Set(2, &HandlePair{Dt0: -1}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrRange, "dt0 must not be negative")
	err = h.Set(2, &HandlePair{Dt1: 1}, params.Strict)
	assert.ErrorIs(t, err, toolerr.ErrRange, "dt1 must not be positive")
}

func TestKeyframePointsRoundTrip(t *testing.T) {
	tests := []Keyframe{
		{Time: 2, Value: 10, HasTime: true, HasValue: true},
		{Time: 2.5, Value: -3.25, HasTime: true, HasValue: true,
			Handles: &HandlePair{Dt0: 0.5, Dt1: -0.75, Dv0: 1.5, Dv1: -2}},
	}
	for _, kf := range tests {
		pts := kf.Points()
		back, err := KeyframeFromPoints(pts)
		require.NoError(t, err)
		assert.InDelta(t, kf.Time, back.Time, 1e-12)
		assert.InDelta(t, kf.Value, back.Value, 1e-12)
		if kf.Handles == nil {
			assert.Len(t, pts, 1)
			assert.Nil(t, back.Handles)
			continue
		}
		require.Len(t, pts, 3)
		require.NotNil(t, back.Handles)
		assert.InDelta(t, kf.Handles.Dt0, back.Handles.Dt0, 1e-12)
		assert.InDelta(t, kf.Handles.Dt1, back.Handles.Dt1, 1e-12)
		assert.InDelta(t, kf.Handles.Dv0, back.Handles.Dv0, 1e-12)
		assert.InDelta(t, kf.Handles.Dv1, back.Handles.Dv1, 1e-12)
	}

	_, err := KeyframeFromPoints(make([]Point, 2))
	assert.ErrorIs(t, err, toolerr.ErrCardinality)
}

func TestComposites(t *testing.T) {
	crop := NewCrop()
	require.NoError(t, crop.Set("angle", 10.0, params.Strict))
	assert.ErrorIs(t, crop.Set("angle", 50.0, params.Strict), toolerr.ErrRange)
	assert.ErrorIs(t, crop.Set("middle", 0.5, params.Strict), toolerr.ErrInvalid)
	assert.Equal(t, map[string]any{"angle": 10.0}, crop.Store())

	ccm := NewItemList(params.MustLookup("viewCcm"))
	require.NoError(t, ccm.Set([]any{1.0, 0.0, 0.0}, params.Strict))
	assert.ErrorIs(t, ccm.Check(), toolerr.ErrCardinality)
	for i := 3; i < 9; i++ {
		require.NoError(t, ccm.SetAt(i, 0.0, params.Strict))
	}
	assert.NoError(t, ccm.Check())

	prio := NewItemList(params.MustLookup("viewPriorities"))
	require.NoError(t, prio.Set([]any{"viewFocus", "viewFocus"}, params.Strict))
	assert.ErrorIs(t, prio.Check(), toolerr.ErrCardinality)
	assert.Error(t, prio.Set([]any{"viewZoom"}, params.Strict))

	tone := NewToneCurve()
	require.NoError(t, tone.Set([]float64{0, 0.5, 1}, []float64{0, 0.4, 1}, params.Strict))
	assert.NoError(t, tone.Check())
	tone.Points[1].Y.Delete()
	assert.ErrorIs(t, tone.Check(), toolerr.ErrDependency)
	assert.ErrorIs(t, tone.Set([]float64{0}, nil, params.Strict), toolerr.ErrCardinality)
}
