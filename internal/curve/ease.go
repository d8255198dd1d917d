package curve

import (
	"fmt"
	"math"
	"sort"
)

// Func maps normalized progress [0,1] to normalized output.
type Func func(t float64) float64

// Eases and Shapes are the accepted easing selectors.
var (
	Eases  = []string{"in", "out", "in_out"}
	Shapes = []string{"linear", "quad", "cubic", "quart", "quint", "sine", "expo", "circ", "elastic", "back", "bounce"}
)

type pair struct{ in, out Func }

var registry = map[string]pair{
	"quad":    {func(t float64) float64 { return t * t }, nil},
	"cubic":   {func(t float64) float64 { return t * t * t }, nil},
	"quart":   {func(t float64) float64 { return math.Pow(t, 4) }, nil},
	"quint":   {func(t float64) float64 { return math.Pow(t, 5) }, nil},
	"sine":    {func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) }, nil},
	"expo":    {easeInExpo, nil},
	"circ":    {func(t float64) float64 { return 1 - math.Sqrt(1-t*t) }, nil},
	"elastic": {easeInElastic, easeOutElastic},
	"back":    {easeInBack, nil},
	"bounce":  {nil, easeOutBounce},
}

// Lookup returns the easing function for an ease/shape pair.
// Shape "linear" ignores the ease.
func Lookup(ease, shape string) (Func, error) {
	if shape == "linear" {
		return Linear, nil
	}
	p, ok := registry[shape]
	if !ok {
		return nil, fmt.Errorf("invalid easing function: %s - %s", ease, shape)
	}
	in, out := p.in, p.out
	if in == nil {
		in = mirror(out)
	}
	if out == nil {
		out = mirror(in)
	}
	switch ease {
	case "in":
		return in, nil
	case "out":
		return out, nil
	case "in_out":
		switch shape {
		case "elastic":
			return easeInOutElastic, nil
		case "back":
			return easeInOutBack, nil
		}
		return func(t float64) float64 {
			if t < 0.5 {
				return in(2*t) / 2
			}
			return out(2*t-1)/2 + 0.5
		}, nil
	default:
		return nil, fmt.Errorf("invalid easing function: %s - %s", ease, shape)
	}
}

// Names lists every "ease - shape" combination, sorted.
func Names() []string {
	out := []string{"linear"}
	for _, e := range Eases {
		for s := range registry {
			out = append(out, e+" - "+s)
		}
	}
	sort.Strings(out)
	return out
}

func Linear(t float64) float64 { return t }

// mirror turns an ease-in into an ease-out and back.
func mirror(f Func) Func {
	return func(t float64) float64 { return 1 - f(1-t) }
}

func easeInExpo(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*(t-1))
}

const backOvershoot = 1.70158

func easeInBack(t float64) float64 {
	return t * t * ((backOvershoot+1)*t - backOvershoot)
}

func easeInOutBack(t float64) float64 {
	s := backOvershoot * 1.525
	t *= 2
	if t < 1 {
		return t * t * ((s+1)*t - s) / 2
	}
	t -= 2
	return (t*t*((s+1)*t+s) + 2) / 2
}

func easeOutElastic(t float64) float64 {
	return elasticOut(t, 0.3)
}

func easeInElastic(t float64) float64 {
	return 1 - elasticOut(1-t, 0.3)
}

func easeInOutElastic(t float64) float64 {
	t *= 2
	if t < 1 {
		return (1 - elasticOut(1-t, 0.5)) / 2
	}
	return elasticOut(t-1, 0.5)/2 + 0.5
}

func elasticOut(t, period float64) float64 {
	s := period / (2 * math.Pi) * math.Asin(1)
	return math.Pow(2, -10*t)*math.Sin((t-s)*(2*math.Pi/period)) + 1
}

func easeOutBounce(t float64) float64 {
	const k = 7.5625
	switch {
	case t < 1/2.75:
		return k * t * t
	case t < 2/2.75:
		t -= 1.5 / 2.75
		return k*t*t + 0.75
	case t < 2.5/2.75:
		t -= 2.25 / 2.75
		return k*t*t + 0.9375
	default:
		t -= 2.625 / 2.75
		return k*t*t + 0.984375
	}
}
