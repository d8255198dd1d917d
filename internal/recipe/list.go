package recipe

import (
	"github.com/ivlev/recipetool/internal/params"
)

// List is an ordered track of cells sharing one descriptor. Deleted
// entries stay in place as inactive cells until Arrange compacts them.
type List struct {
	desc  *params.Descriptor
	cells []*Cell
}

func NewList(d *params.Descriptor) *List {
	return &List{desc: d}
}

func (l *List) Descriptor() *params.Descriptor { return l.desc }

// Len counts every slot, active or not.
func (l *List) Len() int { return len(l.cells) }

func (l *List) Append(v any, mode params.Mode) error {
	c := NewCell(l.desc)
	if err := c.Set(v, mode); err != nil {
		return err
	}
	l.cells = append(l.cells, c)
	return nil
}

func (l *List) Extend(values []any, mode params.Mode) error {
	for _, v := range values {
		if err := l.Append(v, mode); err != nil {
			return err
		}
	}
	return nil
}

// Insert compacts the list and places values at index, shifting the tail.
func (l *List) Insert(index int, mode params.Mode, values ...any) error {
	l.Arrange()
	if index > len(l.cells) {
		index = len(l.cells)
	}
	if index < 0 {
		index = 0
	}
	fresh := make([]*Cell, 0, len(values))
	for _, v := range values {
		c := NewCell(l.desc)
		if err := c.Set(v, mode); err != nil {
			return err
		}
		fresh = append(fresh, c)
	}
	tail := append([]*Cell{}, l.cells[index:]...)
	l.cells = append(append(l.cells[:index], fresh...), tail...)
	return nil
}

// Delete marks the entry at index inactive without shifting.
func (l *List) Delete(index int) {
	if index >= 0 && index < len(l.cells) {
		l.cells[index].Delete()
	}
}

// Clear deactivates every entry.
func (l *List) Clear() {
	for _, c := range l.cells {
		c.Delete()
	}
}

// Arrange drops inactive slots.
func (l *List) Arrange() {
	keep := make([]bool, len(l.cells))
	for i, c := range l.cells {
		keep[i] = c.Active()
	}
	l.Retain(keep)
}

// Retain keeps the slots whose keep flag is set. Slots past len(keep) are dropped.
func (l *List) Retain(keep []bool) {
	out := l.cells[:0]
	for i, c := range l.cells {
		if i < len(keep) && keep[i] {
			out = append(out, c)
		}
	}
	l.cells = out
}

// Export returns the active values in index order.
func (l *List) Export() []any {
	out := []any{}
	for _, c := range l.cells {
		if c.Active() {
			out = append(out, c.Get())
		}
	}
	return out
}

// Floats is Export for numeric tracks.
func (l *List) Floats() []float64 {
	var out []float64
	for _, c := range l.cells {
		if f, ok := c.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// GetOrDefault returns the cell at index, or a fresh inactive cell and
// false past the end.
func (l *List) GetOrDefault(index int) (*Cell, bool) {
	if index < 0 || index >= len(l.cells) {
		return NewCell(l.desc), false
	}
	return l.cells[index], true
}

// SetAt assigns index, padding the list with inactive cells as needed.
func (l *List) SetAt(index int, v any, mode params.Mode) error {
	if index < 0 {
		return nil
	}
	c := NewCell(l.desc)
	if err := c.Set(v, mode); err != nil {
		return err
	}
	for len(l.cells) <= index {
		l.cells = append(l.cells, NewCell(l.desc))
	}
	l.cells[index] = c
	return nil
}

// Last returns the last active cell.
func (l *List) Last() (*Cell, bool) {
	for i := len(l.cells) - 1; i >= 0; i-- {
		if l.cells[i].Active() {
			return l.cells[i], true
		}
	}
	return nil, false
}

func (l *List) Active() bool {
	for _, c := range l.cells {
		if c.Active() {
			return true
		}
	}
	return false
}
