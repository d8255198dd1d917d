package recipe

import (
	"encoding/json"

	"github.com/ivlev/recipetool/internal/params"
)

// Param is one addressable recipe key: a view value, an animation track
// or a composite parameter.
type Param interface {
	Name() string
	Active() bool
	Store() any
	Load(v any, mode params.Mode) error
	Delete()
	Check() error
}

// Cell holds zero or one value typed by its descriptor.
type Cell struct {
	desc  *params.Descriptor
	value any
}

func NewCell(d *params.Descriptor) *Cell {
	return &Cell{desc: d}
}

func (c *Cell) Descriptor() *params.Descriptor { return c.desc }

func (c *Cell) Name() string { return c.desc.Name }

// Set coerces v through the descriptor. A nil or empty value clears the cell.
func (c *Cell) Set(v any, mode params.Mode) error {
	if empty(v) {
		c.value = nil
		return nil
	}
	typed, err := c.desc.Coerce(v, mode)
	if err != nil {
		return err
	}
	c.value = typed
	return nil
}

func (c *Cell) Get() any { return c.value }

// Float returns the numeric value of the cell.
func (c *Cell) Float() (float64, bool) {
	return toFloat(c.value)
}

func (c *Cell) Delete() { c.value = nil }

func (c *Cell) Active() bool { return c.value != nil }

func (c *Cell) Store() any { return c.value }

func (c *Cell) Load(v any, mode params.Mode) error { return c.Set(v, mode) }

func (c *Cell) Check() error { return nil }

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
