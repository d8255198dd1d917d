package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEasingEndpoints(t *testing.T) {
	for _, ease := range Eases {
		for _, shape := range Shapes {
			f, err := Lookup(ease, shape)
			require.NoError(t, err, "%s - %s", ease, shape)
			assert.InDelta(t, 0, f(0), 1e-3, "%s - %s at 0", ease, shape)
			assert.InDelta(t, 1, f(1), 1e-3, "%s - %s at 1", ease, shape)
		}
	}
}

func TestEasingValues(t *testing.T) {
	f, err := Lookup("in_out", "quad")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f(0.5), 1e-12)
	assert.InDelta(t, 2*0.25*0.25, f(0.25), 1e-12)

	f, err = Lookup("out", "cubic")
	require.NoError(t, err)
	assert.InDelta(t, 1-0.125, f(0.5), 1e-12)

	_, err = Lookup("sideways", "quad")
	assert.EqualError(t, err, "invalid easing function: sideways - quad")
	_, err = Lookup("in", "wobble")
	assert.Error(t, err)

	f, err = Lookup("whatever", "linear")
	require.NoError(t, err)
	assert.Equal(t, 0.3, f(0.3))
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0, 1, 5))
	assert.Equal(t, []float64{2}, Linspace(2, 3, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{0, 1, 2, 4}, 10, 20)
	assert.InDeltaSlice(t, []float64{10, 12.5, 15, 20}, got, 1e-12)
}

func TestScale(t *testing.T) {
	pts := []float64{1, 2, 4}
	once, err := Scale(pts, 10, 20)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{10, 10 + 10.0/3, 20}, once, 1e-12)

	mid, err := Scale(pts, -3, 7)
	require.NoError(t, err)
	twice, err := Scale(mid, 10, 20)
	require.NoError(t, err)
	assert.InDeltaSlice(t, once, twice, 1e-9)

	_, err = Scale([]float64{3, 3}, 0, 1)
	assert.ErrorIs(t, err, ErrZeroWidth)
}

func TestMinDistance(t *testing.T) {
	i, v := MinDistance([]float64{0, 1, 2, 3}, 1.6)
	assert.Equal(t, 2, i)
	assert.Equal(t, 2.0, v)

	i, _ = MinDistance(nil, 1)
	assert.Equal(t, -1, i)
}

func TestInterp(t *testing.T) {
	xs, ys := Interp([]float64{0, 1, 3}, []float64{0, 10, 30}, 7)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2, 2.5, 3}, xs, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 5, 10, 15, 20, 25, 30}, ys, 1e-12)
}

func TestTweenDeterministic(t *testing.T) {
	f, err := Lookup("in_out", "sine")
	require.NoError(t, err)
	x1, y1 := Tween(f, 12)
	x2, y2 := Tween(f, 12)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
	assert.Len(t, y1, 12)
}
