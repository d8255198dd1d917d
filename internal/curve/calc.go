package curve

import (
	"errors"
	"math"
	"sort"
)

// ErrZeroWidth is returned when a series cannot be rescaled.
var ErrZeroWidth = errors.New("series has zero width")

// Linspace returns num evenly spaced samples over [a, b].
func Linspace(a, b float64, num int) []float64 {
	switch {
	case num <= 0:
		return nil
	case num == 1:
		return []float64{a}
	}
	out := make([]float64, num)
	step := (b - a) / float64(num-1)
	for i := range out {
		out[i] = a + step*float64(i)
	}
	out[num-1] = b
	return out
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return (1-t)*a + t*b
}

// Normalize divides by the last element and remaps onto [a, b].
func Normalize(arr []float64, a, b float64) []float64 {
	out := make([]float64, len(arr))
	if len(arr) == 0 {
		return out
	}
	last := arr[len(arr)-1]
	for i, v := range arr {
		out[i] = Lerp(a, b, v/last)
	}
	return out
}

// Tween samples f over num evenly spaced points of [0, 1].
func Tween(f Func, num int) (x, y []float64) {
	x = Linspace(0, 1, num)
	y = make([]float64, len(x))
	for i, v := range x {
		y[i] = f(v)
	}
	return x, y
}

// Scale maps arr linearly so its first element becomes a and its last b.
func Scale(arr []float64, a, b float64) ([]float64, error) {
	if len(arr) == 0 {
		return nil, nil
	}
	first, last := arr[0], arr[len(arr)-1]
	old := last - first
	if old == 0 {
		return nil, ErrZeroWidth
	}
	out := make([]float64, len(arr))
	for i, v := range arr {
		out[i] = (v-first)*(b-a)/old + a
	}
	return out, nil
}

// MinDistance returns the index and value of the element closest to x.
// Ties resolve to the lower index.
func MinDistance(arr []float64, x float64) (int, float64) {
	idx := -1
	best := math.Inf(1)
	for i, v := range arr {
		if d := math.Abs(v - x); d < best {
			best, idx = d, i
		}
	}
	if idx < 0 {
		return -1, 0
	}
	return idx, arr[idx]
}

// Interp resamples the polyline (x, y) linearly onto num points spanning
// x[0]..x[len-1]. x must be sorted.
func Interp(x, y []float64, num int) ([]float64, []float64) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, nil
	}
	if num <= 0 {
		num = len(x)
	}
	xs := Linspace(x[0], x[len(x)-1], num)
	ys := make([]float64, len(xs))
	for i, v := range xs {
		ys[i] = at(x, y, v)
	}
	return xs, ys
}

func at(x, y []float64, v float64) float64 {
	j := sort.SearchFloat64s(x, v)
	switch {
	case j <= 0:
		return y[0]
	case j >= len(x):
		return y[len(y)-1]
	}
	if x[j] == v {
		return y[j]
	}
	x0, x1 := x[j-1], x[j]
	if x1 == x0 {
		return y[j]
	}
	return Lerp(y[j-1], y[j], (v-x0)/(x1-x0))
}
