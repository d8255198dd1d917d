package recipe

import (
	"fmt"

	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/toolerr"
)

var handleFields = []string{"dt0", "dt1", "dv0", "dv1"}

// HandlePair is the curve shape around one keyframe. Dt0 >= 0 reaches back
// to the preceding handle point, Dt1 <= 0 forward to the succeeding one.
// Dv0 and Dv1 only have to lie within [-width, width] of the parameter
// range; their sign is not enforced, so a handle may point up or down.
type HandlePair struct {
	Dt0, Dt1, Dv0, Dv1 float64
}

// HandlePairs keeps the four handle offsets as parallel lists.
type HandlePairs struct {
	Dt0, Dt1, Dv0, Dv1 *List
	name               string
}

func NewHandlePairs(name string, meta *params.AnimationMeta) *HandlePairs {
	return &HandlePairs{
		Dt0:  NewList(meta.Dt0),
		Dt1:  NewList(meta.Dt1),
		Dv0:  NewList(meta.Dv0),
		Dv1:  NewList(meta.Dv1),
		name: name,
	}
}

func (h *HandlePairs) lists() []*List {
	return []*List{h.Dt0, h.Dt1, h.Dv0, h.Dv1}
}

// Len is the length of the longest field list.
func (h *HandlePairs) Len() int {
	n := 0
	for _, l := range h.lists() {
		if l.Len() > n {
			n = l.Len()
		}
	}
	return n
}

// At returns the quartet at index i. ok is false when no field is set;
// a partially set quartet is a cardinality error.
func (h *HandlePairs) At(i int) (HandlePair, bool, error) {
	var vals [4]float64
	set := 0
	for n, l := range h.lists() {
		c, _ := l.GetOrDefault(i)
		if f, ok := c.Float(); ok {
			vals[n] = f
			set++
		}
	}
	switch set {
	case 0:
		return HandlePair{}, false, nil
	case 4:
		return HandlePair{Dt0: vals[0], Dt1: vals[1], Dv0: vals[2], Dv1: vals[3]}, true, nil
	}
	return HandlePair{}, false, toolerr.New(toolerr.ErrCardinality, h.name,
		"%s: handle pair %d requires dt0, dt1, dv0 and dv1 (%d of 4 set)", h.name, i, set)
}

// Set writes a full quartet at index i, or clears it when p is nil.
func (h *HandlePairs) Set(i int, p *HandlePair, mode params.Mode) error {
	if p == nil {
		for _, l := range h.lists() {
			if err := l.SetAt(i, nil, mode); err != nil {
				return err
			}
		}
		return nil
	}
	for n, v := range []float64{p.Dt0, p.Dt1, p.Dv0, p.Dv1} {
		if err := h.lists()[n].SetAt(i, v, mode); err != nil {
			return err
		}
	}
	return nil
}

func (h *HandlePairs) Delete(i int) {
	for _, l := range h.lists() {
		l.Delete(i)
	}
}

func (h *HandlePairs) Clear() {
	for _, l := range h.lists() {
		l.Clear()
	}
}

func (h *HandlePairs) Retain(keep []bool) {
	for _, l := range h.lists() {
		l.Retain(keep)
	}
}

func (h *HandlePairs) Active() bool {
	for _, l := range h.lists() {
		if l.Active() {
			return true
		}
	}
	return false
}

// Export renders the first n quartets; unset ones become empty objects.
func (h *HandlePairs) Export(n int) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		obj := map[string]any{}
		for k, l := range h.lists() {
			if c, _ := l.GetOrDefault(i); c.Active() {
				obj[handleFields[k]] = c.Get()
			}
		}
		out = append(out, obj)
	}
	return out
}

// Load appends handle pair objects decoded from JSON.
func (h *HandlePairs) Load(v any, mode params.Mode) error {
	items, ok := v.([]any)
	if !ok {
		return toolerr.New(toolerr.ErrInvalid, h.name, "%s.handlePairs: expected a list: %v", h.name, v)
	}
	start := h.Len()
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return toolerr.New(toolerr.ErrInvalid, h.name, "%s.handlePairs.%d: expected an object: %v", h.name, i, item)
		}
		for key := range obj {
			if !isHandleField(key) {
				return toolerr.New(toolerr.ErrInvalid, h.name, "invalid parameter: %s.handlePairs.%d.%s", h.name, i, key)
			}
		}
		for k, l := range h.lists() {
			if err := l.SetAt(start+i, obj[handleFields[k]], mode); err != nil {
				return fmt.Errorf("handlePairs.%d: %w", i, err)
			}
		}
	}
	return nil
}

// Check validates every quartet up to n and rejects handles past n.
func (h *HandlePairs) Check(n int) error {
	for i := 0; i < h.Len(); i++ {
		_, ok, err := h.At(i)
		if err != nil {
			return err
		}
		if ok && i >= n {
			return toolerr.New(toolerr.ErrCardinality, h.name,
				"%s: handle pair %d has no matching keyframe", h.name, i)
		}
	}
	return nil
}

func isHandleField(key string) bool {
	for _, f := range handleFields {
		if f == key {
			return true
		}
	}
	return false
}
