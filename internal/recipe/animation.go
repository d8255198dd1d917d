package recipe

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/ivlev/recipetool/internal/curve"
	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/toolerr"
)

// MinDuration is the shortest auto or merge animation accepted, in seconds.
const MinDuration = 0.5

// Animation is the keyframe track of one animatable view parameter.
// Time 0 is never stored; the value at t=0 lives in Initial.
type Animation struct {
	desc    *params.Descriptor
	meta    *params.AnimationMeta
	view    *Cell
	Times   *List
	Values  *List
	Handles *HandlePairs
	Initial *Cell
}

func NewAnimation(d *params.Descriptor, view *Cell) *Animation {
	meta := d.Animation()
	name := params.AnimationKey(d.Name)
	return &Animation{
		desc:    d,
		meta:    meta,
		view:    view,
		Times:   NewList(meta.Times),
		Values:  NewList(meta.Values),
		Handles: NewHandlePairs(name, meta),
		Initial: NewCell(meta.InitialValue),
	}
}

// Name is the recipe key of the track, e.g. viewExposureAnimation.
func (a *Animation) Name() string { return params.AnimationKey(a.desc.Name) }

// Param is the animated view parameter name.
func (a *Animation) Param() string { return a.desc.Name }

func (a *Animation) Descriptor() *params.Descriptor { return a.desc }

func (a *Animation) Active() bool {
	return a.Times.Active() || a.Values.Active() || a.Handles.Active() || a.Initial.Active()
}

// Len is the number of keyframe slots, including partially set ones.
func (a *Animation) Len() int {
	n := a.Times.Len()
	if a.Values.Len() > n {
		n = a.Values.Len()
	}
	if a.Handles.Len() > n {
		n = a.Handles.Len()
	}
	return n
}

// Delete clears the whole track, initial value included.
func (a *Animation) Delete() {
	a.clearKeyframes()
	a.Initial.Delete()
}

func (a *Animation) clearKeyframes() {
	a.Times.Clear()
	a.Values.Clear()
	a.Handles.Clear()
	a.Arrange()
}

// Arrange compacts the parallel lists, dropping keyframe slots with
// nothing set.
func (a *Animation) Arrange() {
	n := a.Len()
	keep := make([]bool, n)
	for i := range keep {
		t, _ := a.Times.GetOrDefault(i)
		v, _ := a.Values.GetOrDefault(i)
		_, hp, _ := a.Handles.At(i)
		keep[i] = t.Active() || v.Active() || hp
	}
	a.Times.Retain(keep)
	a.Values.Retain(keep)
	a.Handles.Retain(keep)
}

// Store renders the track as recipe JSON.
func (a *Animation) Store() any {
	a.Arrange()
	times := a.Times.Export()
	return map[string]any{
		"times":        times,
		"values":       a.Values.Export(),
		"handlePairs":  a.Handles.Export(len(times)),
		"initialValue": a.Initial.Get(),
	}
}

// Load appends the contents of an animation object decoded from JSON.
func (a *Animation) Load(v any, mode params.Mode) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, a.Name(), "%s: expected an object: %v", a.Name(), v)
	}
	start := a.Len()
	for key, val := range obj {
		var err error
		switch key {
		case "times":
			err = a.loadList(a.Times, start, val, mode)
		case "values":
			err = a.loadList(a.Values, start, val, mode)
		case "handlePairs":
			err = a.Handles.Load(val, mode)
		case "initialValue":
			err = a.Initial.Set(val, mode)
		default:
			err = toolerr.New(toolerr.ErrInvalid, a.Name(), "invalid parameter: %s.%s", a.Name(), key)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", a.Name(), err)
		}
	}
	return nil
}

func (a *Animation) loadList(l *List, start int, v any, mode params.Mode) error {
	items, ok := v.([]any)
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, a.Name(), "%s.%s: expected a list: %v", a.Name(), l.desc.Name, v)
	}
	for i, item := range items {
		if err := l.SetAt(start+i, item, mode); err != nil {
			return err
		}
	}
	return nil
}

// Check enforces the structural invariants: complete keyframes, complete
// handle quartets and strictly increasing positive times.
func (a *Animation) Check() error {
	a.Arrange()
	name := a.Name()
	nt, nv := len(a.Times.Export()), len(a.Values.Export())
	if nt != nv {
		return toolerr.New(toolerr.ErrCardinality, name,
			"%s: times and values differ in length (%d != %d)", name, nt, nv)
	}
	for i := 0; i < a.Len(); i++ {
		t, _ := a.Times.GetOrDefault(i)
		v, _ := a.Values.GetOrDefault(i)
		if t.Active() != v.Active() {
			return toolerr.New(toolerr.ErrCardinality, name,
				"%s: keyframe %d requires both a time and a value", name, i)
		}
	}
	if err := a.Handles.Check(nt); err != nil {
		return err
	}
	prev := 0.0
	for i, t := range a.Times.Floats() {
		if t <= prev {
			return toolerr.New(toolerr.ErrRange, name,
				"%s: times must be strictly increasing and greater than 0 (keyframe %d: %g)", name, i, t)
		}
		prev = t
	}
	return nil
}

// Keyframe returns the keyframe view at index i.
func (a *Animation) Keyframe(i int) (Keyframe, error) {
	k := Keyframe{Index: i}
	if i < 0 || i >= a.Len() {
		return k, toolerr.New(toolerr.ErrInvalid, a.Name(), "%s: keyframe index out of range: %d", a.Name(), i)
	}
	t, _ := a.Times.GetOrDefault(i)
	v, _ := a.Values.GetOrDefault(i)
	k.Time, k.HasTime = t.Float()
	k.Value, k.HasValue = v.Float()
	hp, ok, err := a.Handles.At(i)
	if err != nil {
		return k, err
	}
	if ok {
		k.Handles = &hp
	}
	return k, nil
}

// Keyframes returns every keyframe slot in order.
func (a *Animation) Keyframes() ([]Keyframe, error) {
	out := make([]Keyframe, 0, a.Len())
	for i := 0; i < a.Len(); i++ {
		k, err := a.Keyframe(i)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// Points flattens the keyframes into curve points. Keyframes missing a
// time or a value are skipped with a warning.
func (a *Animation) Points() []Point {
	var out []Point
	for i := 0; i < a.Len(); i++ {
		k, err := a.Keyframe(i)
		if err != nil {
			log.Printf("[!] %v, skipping", err)
			continue
		}
		if !k.HasTime && !k.HasValue && k.Handles == nil {
			continue
		}
		if !k.HasTime {
			log.Printf("[!] %s: time not set for keyframe %d, skipping", a.Name(), i)
			continue
		}
		if !k.HasValue {
			log.Printf("[!] %s: value not set for keyframe %d, skipping", a.Name(), i)
			continue
		}
		out = append(out, k.Points()...)
	}
	return out
}

// XPoints returns the time coordinate of every point.
func (a *Animation) XPoints() []float64 {
	pts := a.Points()
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.X
	}
	return out
}

// YPoints returns the value coordinate of every point.
func (a *Animation) YPoints() []float64 {
	pts := a.Points()
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Y
	}
	return out
}

// Adjust overwrites the fields of keyframe i that are set in patch.
func (a *Animation) Adjust(i int, patch KeyframePatch, mode params.Mode) error {
	if i < 0 || i >= a.Len() {
		return toolerr.New(toolerr.ErrInvalid, a.Name(), "%s: keyframe index out of range: %d", a.Name(), i)
	}
	if patch.Time != nil {
		if err := a.Times.SetAt(i, *patch.Time, mode); err != nil {
			return err
		}
	}
	if patch.Value != nil {
		if err := a.Values.SetAt(i, *patch.Value, mode); err != nil {
			return err
		}
	}
	if patch.Handles != nil {
		return a.Handles.Set(i, patch.Handles, mode)
	}
	return nil
}

// DeleteKeyframe removes keyframe i and compacts the track.
func (a *Animation) DeleteKeyframe(i int) error {
	if i < 0 || i >= a.Len() {
		return toolerr.New(toolerr.ErrInvalid, a.Name(), "%s: keyframe index out of range: %d", a.Name(), i)
	}
	a.Times.Delete(i)
	a.Values.Delete(i)
	a.Handles.Delete(i)
	a.Arrange()
	return nil
}

// Props is a manual keyframe entry. Handle lists are either empty or as
// long as Times.
type Props struct {
	Times   []float64
	Values  []float64
	Dt0     []float64
	Dt1     []float64
	Dv0     []float64
	Dv1     []float64
	Initial *float64
}

// Manual appends explicit keyframes after the stored ones.
func (a *Animation) Manual(p Props, mode params.Mode) error {
	name := a.Name()
	if len(p.Times) != len(p.Values) {
		return toolerr.New(toolerr.ErrCardinality, name,
			"%s: times and values differ in length (%d != %d)", name, len(p.Times), len(p.Values))
	}
	hl := []int{len(p.Dt0), len(p.Dt1), len(p.Dv0), len(p.Dv1)}
	for _, n := range hl {
		if n != hl[0] {
			return toolerr.New(toolerr.ErrCardinality, name,
				"%s: dt0, dt1, dv0 and dv1 differ in length (%v)", name, hl)
		}
	}
	if hl[0] != 0 && hl[0] != len(p.Times) {
		return toolerr.New(toolerr.ErrCardinality, name,
			"%s: %d handle pairs for %d keyframes", name, hl[0], len(p.Times))
	}

	prev := 0.0
	if last, ok := a.Times.Last(); ok {
		prev, _ = last.Float()
	}
	for _, t := range p.Times {
		if t <= prev {
			return toolerr.New(toolerr.ErrRange, name,
				"%s: times must be strictly increasing and greater than 0 (%g after %g)", name, t, prev)
		}
		prev = t
	}

	// validate everything before the track is touched
	for i := range p.Times {
		if _, err := a.meta.Times.Coerce(p.Times[i], mode); err != nil {
			return err
		}
		if _, err := a.meta.Values.Coerce(p.Values[i], mode); err != nil {
			return err
		}
		if hl[0] > 0 {
			for _, c := range []struct {
				d *params.Descriptor
				v float64
			}{{a.meta.Dt0, p.Dt0[i]}, {a.meta.Dt1, p.Dt1[i]}, {a.meta.Dv0, p.Dv0[i]}, {a.meta.Dv1, p.Dv1[i]}} {
				if _, err := c.d.Coerce(c.v, mode); err != nil {
					return err
				}
			}
		}
	}
	if p.Initial != nil {
		if err := a.Initial.Set(*p.Initial, mode); err != nil {
			return err
		}
	}

	a.Arrange()
	for i := range p.Times {
		k := Keyframe{Time: p.Times[i], Value: p.Values[i], HasTime: true, HasValue: true}
		if hl[0] > 0 {
			k.Handles = &HandlePair{Dt0: p.Dt0[i], Dt1: p.Dt1[i], Dv0: p.Dv0[i], Dv1: p.Dv1[i]}
		}
		if err := a.appendKeyframe(k, mode); err != nil {
			return err
		}
	}
	return nil
}

func (a *Animation) appendKeyframe(k Keyframe, mode params.Mode) error {
	i := a.Len()
	if err := a.Times.SetAt(i, k.Time, mode); err != nil {
		return err
	}
	if err := a.Values.SetAt(i, k.Value, mode); err != nil {
		return err
	}
	return a.Handles.Set(i, k.Handles, mode)
}

// Calc groups points into triples, padding with the last point, and
// appends one handle keyframe per triple.
func (a *Animation) Calc(points []Point, mode params.Mode) error {
	if len(points) == 0 {
		return nil
	}
	pts := append([]Point{}, points...)
	for len(pts)%3 != 0 {
		pts = append(pts, pts[len(pts)-1])
	}
	a.Arrange()
	for i := 0; i < len(pts); i += 3 {
		k, err := KeyframeFromPoints(pts[i : i+3])
		if err != nil {
			return err
		}
		if err := a.appendKeyframe(k, mode); err != nil {
			return err
		}
	}
	return nil
}

// AutoParams drives Auto. Nil pointers are resolved from the track.
type AutoParams struct {
	T0, V0, T1, V1 *float64
	Ease, Shape    string
	Steps          int
	// Buffer stands in for t=0 and separates consecutive segments.
	Buffer   float64
	Duration float64
}

// Auto appends an eased curve from (t0, v0) to (t1, v1). Missing start
// values continue from the last stored keyframe, through its outgoing
// handle when it has one.
func (a *Animation) Auto(p AutoParams) error {
	name := a.desc.Name
	if p.V1 == nil {
		return toolerr.New(toolerr.ErrInvalid, name, "%s: end value required; specify --v1", name)
	}

	// start from the last keyframe only; handles of earlier ones never apply
	var lastTime, lastValue, lastDt1, lastDv1 *float64
	a.Arrange()
	if n := a.Len(); n > 0 {
		k, err := a.Keyframe(n - 1)
		if err != nil {
			return err
		}
		if k.HasTime {
			lastTime = &k.Time
		}
		if k.HasValue {
			lastValue = &k.Value
		}
		if k.Handles != nil {
			lastDt1, lastDv1 = &k.Handles.Dt1, &k.Handles.Dv1
		}
	}

	var t0 float64
	switch {
	case p.T0 != nil:
		t0 = *p.T0
		if lastTime != nil && t0 <= *lastTime {
			return toolerr.New(toolerr.ErrInvalid, name,
				"%s: t0 (%g) must come after the last keyframe time (%g)", name, t0, *lastTime)
		}
	case lastTime != nil && lastDt1 != nil:
		t0 = p.Buffer + *lastTime - *lastDt1
	case lastTime != nil:
		t0 = p.Buffer + *lastTime
	default:
		t0 = p.Buffer
	}

	var v0 float64
	switch {
	case p.V0 != nil:
		v0 = *p.V0
	case lastValue != nil && lastDv1 != nil:
		v0 = *lastValue - *lastDv1
	case lastValue != nil:
		v0 = *lastValue
	default:
		f, ok := a.startValue()
		if !ok {
			return toolerr.New(toolerr.ErrStartValue, name, "%s: no starting value found; specify --v0", name)
		}
		v0 = f
	}

	t1 := t0 + p.Duration
	if p.T1 != nil {
		t1 = *p.T1
	}
	if err := CheckDuration(name, t0, t1); err != nil {
		return err
	}

	steps := p.Steps
	if steps < 3 {
		steps = 3
	}
	for steps%3 != 0 {
		steps++
	}
	return a.Ease(t0, v0, t1, *p.V1, p.Ease, p.Shape, steps)
}

func (a *Animation) startValue() (float64, bool) {
	if f, ok := a.Initial.Float(); ok {
		return f, true
	}
	if a.view != nil {
		if f, ok := a.view.Float(); ok {
			return f, true
		}
	}
	return toFloat(a.desc.Default)
}

// CheckDuration rejects animations shorter than MinDuration.
func CheckDuration(name string, t0, t1 float64) error {
	if t1-t0 < MinDuration {
		return toolerr.New(toolerr.ErrDuration, name,
			"%s: t0/t1 duration is less than %g seconds; t0=%g, t1=%g", name, MinDuration, t0, t1)
	}
	return nil
}

// Ease samples the easing curve over steps points between (t0, v0) and
// (t1, v1) and appends the resulting keyframes. Values are clipped.
func (a *Animation) Ease(t0, v0, t1, v1 float64, ease, shape string, steps int) error {
	name := a.desc.Name
	if steps < 2 {
		return toolerr.New(toolerr.ErrInvalid, name, "%s: at least 2 steps required, got %d", name, steps)
	}
	f, err := curve.Lookup(ease, shape)
	if err != nil {
		return toolerr.New(toolerr.ErrInvalid, name, "%s: %v", name, err)
	}
	x0, err := a.clipFloat(a.meta.Times, t0)
	if err != nil {
		return err
	}
	x1, err := a.clipFloat(a.meta.Times, t1)
	if err != nil {
		return err
	}
	y0, err := a.clipFloat(a.meta.Values, v0)
	if err != nil {
		return err
	}
	y1, err := a.clipFloat(a.meta.Values, v1)
	if err != nil {
		return err
	}

	x, y := curve.Tween(f, steps)
	xs := curve.Normalize(x, x0, x1)
	ys := curve.Normalize(y, y0, y1)
	pts := make([]Point, len(xs))
	for i := range xs {
		pts[i] = Point{X: xs[i], Y: ys[i]}
	}
	return a.Calc(pts, params.Clip)
}

func (a *Animation) clipFloat(d *params.Descriptor, v float64) (float64, error) {
	typed, err := d.Coerce(v, params.Clip)
	if err != nil {
		return 0, err
	}
	f, _ := toFloat(typed)
	return f, nil
}

// Span is a target [A, B] interval for Scale.
type Span struct {
	A, B float64
}

// Scale rescales the time and/or value axis of the curve so its first and
// last points land on the given span, then rebuilds the keyframes.
// Handle curvature is not preserved.
func (a *Animation) Scale(time, value *Span) error {
	name := a.desc.Name
	pts := a.Points()
	if len(pts) == 0 {
		return toolerr.New(toolerr.ErrInvalid, name, "%s: missing animation data", name)
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	var err error
	if time != nil {
		if xs, err = curve.Scale(xs, time.A, time.B); err != nil {
			return scaleErr(name, "time", err)
		}
	}
	if value != nil {
		if ys, err = curve.Scale(ys, value.A, value.B); err != nil {
			return scaleErr(name, "value", err)
		}
	}
	for i := range pts {
		pts[i] = Point{X: xs[i], Y: ys[i]}
	}
	a.clearKeyframes()
	return a.Calc(pts, params.Clip)
}

func scaleErr(name, axis string, err error) error {
	if errors.Is(err, curve.ErrZeroWidth) {
		return toolerr.New(toolerr.ErrRange, name, "%s: cannot scale %s; first and last points are equal", name, axis)
	}
	return err
}

// Duration returns the first and last point times of the track.
func (a *Animation) Duration() (float64, float64, bool) {
	xs := a.XPoints()
	if len(xs) == 0 {
		return 0, 0, false
	}
	sorted := append([]float64{}, xs...)
	sort.Float64s(sorted)
	return sorted[0], sorted[len(sorted)-1], true
}
