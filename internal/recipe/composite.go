package recipe

import (
	"fmt"
	"strconv"

	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/toolerr"
)

// Crop is the viewCrop object.
type Crop struct {
	fields map[string]*Cell
}

func NewCrop() *Crop {
	c := &Crop{fields: map[string]*Cell{"angle": NewCell(params.CropAngle)}}
	for _, f := range params.CropFields[1:] {
		c.fields[f] = NewCell(params.CropSide(f))
	}
	return c
}

func (c *Crop) Name() string { return "viewCrop" }

// Field returns the cell of a crop property.
func (c *Crop) Field(name string) (*Cell, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Set assigns one crop property.
func (c *Crop) Set(name string, v any, mode params.Mode) error {
	f, ok := c.fields[name]
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, c.Name(), "invalid parameter: viewCrop.%s", name)
	}
	return f.Set(v, mode)
}

func (c *Crop) Active() bool {
	for _, f := range c.fields {
		if f.Active() {
			return true
		}
	}
	return false
}

func (c *Crop) Store() any {
	out := map[string]any{}
	for name, f := range c.fields {
		if f.Active() {
			out[name] = f.Get()
		}
	}
	return out
}

func (c *Crop) Load(v any, mode params.Mode) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, c.Name(), "viewCrop: expected an object: %v", v)
	}
	for k, val := range obj {
		if err := c.Set(k, val, mode); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crop) Delete() {
	for _, f := range c.fields {
		f.Delete()
	}
}

func (c *Crop) Check() error { return nil }

// ItemList is a list-valued parameter with item count bounds
// (viewCcm, viewPriorities).
type ItemList struct {
	desc *params.Descriptor
	*List
}

func NewItemList(d *params.Descriptor) *ItemList {
	return &ItemList{desc: d, List: NewList(d.ItemDescriptor())}
}

func (l *ItemList) Name() string { return l.desc.Name }

func (l *ItemList) Store() any {
	return l.List.Export()
}

// Load replaces the list contents.
func (l *ItemList) Load(v any, mode params.Mode) error {
	items, ok := v.([]any)
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, l.Name(), "%s: expected a list: %v", l.Name(), v)
	}
	l.Delete()
	return l.Extend(items, mode)
}

// Set replaces the list with typed values.
func (l *ItemList) Set(values []any, mode params.Mode) error {
	return l.Load(values, mode)
}

func (l *ItemList) Delete() {
	l.List.Clear()
	l.List.Arrange()
}

func (l *ItemList) Check() error {
	if !l.Active() {
		return nil
	}
	items := l.Export()
	n := len(items)
	if (l.desc.MinItems > 0 && n < l.desc.MinItems) || (l.desc.MaxItems > 0 && n > l.desc.MaxItems) {
		return toolerr.Amount(l.Name(), n, bound(l.desc.MinItems), bound(l.desc.MaxItems))
	}
	if l.desc.Unique {
		seen := map[string]bool{}
		for _, it := range items {
			key := fmt.Sprint(it)
			if seen[key] {
				return toolerr.New(toolerr.ErrCardinality, l.Name(), "%s: duplicate item: %v", l.Name(), it)
			}
			seen[key] = true
		}
	}
	return nil
}

func bound(n int) string {
	if n == 0 {
		return ".."
	}
	return strconv.Itoa(n)
}

// ControlPoint is one x/y pair of the luminance tone curve.
type ControlPoint struct {
	X, Y *Cell
}

// ToneCurve is the viewLuminanceToneCurve object.
type ToneCurve struct {
	desc   *params.Descriptor
	Points []ControlPoint
}

func NewToneCurve() *ToneCurve {
	return &ToneCurve{desc: params.MustLookup("viewLuminanceToneCurve")}
}

func (t *ToneCurve) Name() string { return t.desc.Name }

func (t *ToneCurve) Active() bool {
	for _, p := range t.Points {
		if p.X.Active() || p.Y.Active() {
			return true
		}
	}
	return false
}

// Set replaces the control points.
func (t *ToneCurve) Set(xs, ys []float64, mode params.Mode) error {
	if len(xs) != len(ys) {
		return toolerr.New(toolerr.ErrCardinality, t.Name(),
			"%s: x and y differ in length (%d != %d)", t.Name(), len(xs), len(ys))
	}
	pts := make([]ControlPoint, len(xs))
	for i := range xs {
		pts[i] = ControlPoint{X: NewCell(params.ToneX), Y: NewCell(params.ToneY)}
		if err := pts[i].X.Set(xs[i], mode); err != nil {
			return err
		}
		if err := pts[i].Y.Set(ys[i], mode); err != nil {
			return err
		}
	}
	t.Points = pts
	return nil
}

func (t *ToneCurve) Store() any {
	pts := []any{}
	for _, p := range t.Points {
		obj := map[string]any{}
		if p.X.Active() {
			obj["x"] = p.X.Get()
		}
		if p.Y.Active() {
			obj["y"] = p.Y.Get()
		}
		if len(obj) > 0 {
			pts = append(pts, obj)
		}
	}
	return map[string]any{"controlPoints": pts}
}

func (t *ToneCurve) Load(v any, mode params.Mode) error {
	obj, ok := v.(map[string]any)
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, t.Name(), "%s: expected an object: %v", t.Name(), v)
	}
	t.Points = nil
	for k, val := range obj {
		if k != "controlPoints" {
			return toolerr.New(toolerr.ErrInvalid, t.Name(), "invalid parameter: %s.%s", t.Name(), k)
		}
		items, ok := val.([]any)
		if !ok {
			return toolerr.New(toolerr.ErrInvalid, t.Name(), "%s.controlPoints: expected a list: %v", t.Name(), val)
		}
		for i, item := range items {
			p, ok := item.(map[string]any)
			if !ok {
				return toolerr.New(toolerr.ErrInvalid, t.Name(), "%s.controlPoints.%d: expected an object", t.Name(), i)
			}
			cp := ControlPoint{X: NewCell(params.ToneX), Y: NewCell(params.ToneY)}
			for key, pv := range p {
				var err error
				switch key {
				case "x":
					err = cp.X.Set(pv, mode)
				case "y":
					err = cp.Y.Set(pv, mode)
				default:
					err = toolerr.New(toolerr.ErrInvalid, t.Name(), "invalid parameter: %s.controlPoints.%d.%s", t.Name(), i, key)
				}
				if err != nil {
					return err
				}
			}
			t.Points = append(t.Points, cp)
		}
	}
	return nil
}

func (t *ToneCurve) Delete() { t.Points = nil }

// Check enforces that every control point carries both coordinates.
func (t *ToneCurve) Check() error {
	for i, p := range t.Points {
		path := fmt.Sprintf("%s.controlPoints.%d", t.Name(), i)
		switch {
		case p.X.Active() && !p.Y.Active():
			return toolerr.Depends(path+".x", path+".y")
		case p.Y.Active() && !p.X.Active():
			return toolerr.Depends(path+".y", path+".x")
		}
	}
	return nil
}
