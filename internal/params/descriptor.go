package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/recipetool/internal/toolerr"
)

// Kind is the semantic type of a parameter value.
type Kind int

const (
	Float Kind = iota
	Int
	Enum
	Bool
	List   // fixed or bounded arity list (viewCcm, viewPriorities)
	Object // composite with sub-properties (viewCrop, viewLuminanceToneCurve)
	String // zuluTime
	Opaque // kept verbatim (viewFx)
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Enum:
		return "enum"
	case Bool:
		return "bool"
	case List:
		return "list"
	case Object:
		return "object"
	case String:
		return "string"
	default:
		return "opaque"
	}
}

// Mode selects what happens to an out-of-range number.
type Mode int

const (
	// Clip moves the value to the nearer bound.
	Clip Mode = iota
	// Strict rejects the value with a range error.
	Strict
)

// ZuluLayout is the recipe modification timestamp layout.
const ZuluLayout = "2006-01-02T15:04:05.000000Z"

// Range is a numeric interval; either side may be open.
type Range struct {
	Lo, Hi       float64
	HasLo, HasHi bool
}

func Between(lo, hi float64) *Range { return &Range{Lo: lo, Hi: hi, HasLo: true, HasHi: true} }
func AtLeast(lo float64) *Range     { return &Range{Lo: lo, HasLo: true} }
func AtMost(hi float64) *Range      { return &Range{Hi: hi, HasHi: true} }

// Contains reports whether x lies inside the range.
func (r *Range) Contains(x float64) bool {
	if r == nil {
		return true
	}
	if r.HasLo && x < r.Lo {
		return false
	}
	if r.HasHi && x > r.Hi {
		return false
	}
	return true
}

// Width is hi-lo for closed ranges.
func (r *Range) Width() (float64, bool) {
	if r == nil || !r.HasLo || !r.HasHi {
		return 0, false
	}
	return r.Hi - r.Lo, true
}

// Clip returns the nearer bound for a value outside of the range.
func (r *Range) Clip(x float64) float64 {
	if r.Contains(x) {
		return x
	}
	switch {
	case r.HasLo && r.HasHi:
		if x-r.Lo > math.Abs(x-r.Hi) {
			return r.Hi
		}
		return r.Lo
	case r.HasLo:
		return r.Lo
	default:
		return r.Hi
	}
}

func (r *Range) bounds() (string, string) {
	lo, hi := "..", ".."
	if r.HasLo {
		lo = strconv.FormatFloat(r.Lo, 'g', -1, 64)
	}
	if r.HasHi {
		hi = strconv.FormatFloat(r.Hi, 'g', -1, 64)
	}
	return lo, hi
}

// Descriptor is the immutable metadata of one view parameter
// or of one sub-field of a composite parameter.
type Descriptor struct {
	Name       string
	Kind       Kind
	Item       Kind // item kind for List parameters
	Range      *Range
	Choices    []string
	IntChoices bool // enum values are integers (viewOrientation)
	Default    any
	Versions   []int
	Group      string
	Enabled    bool
	Animatable bool
	Unique     bool
	Depends    []string
	MinItems   int
	MaxItems   int

	anim *AnimationMeta
}

// AnimationMeta holds the descriptors of the animation sub-fields of
// an animatable parameter.
type AnimationMeta struct {
	Times        *Descriptor
	Values       *Descriptor
	InitialValue *Descriptor
	Dt0          *Descriptor
	Dt1          *Descriptor
	Dv0          *Descriptor
	Dv1          *Descriptor
}

// Animation returns the animation sub-descriptors, nil when the parameter
// cannot animate.
func (d *Descriptor) Animation() *AnimationMeta {
	return d.anim
}

// Supports reports whether the parameter exists in the given recipe version.
func (d *Descriptor) Supports(version int) bool {
	for _, v := range d.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// ItemDescriptor describes a single item of a List parameter.
func (d *Descriptor) ItemDescriptor() *Descriptor {
	return &Descriptor{
		Name:    d.Name,
		Kind:    d.Item,
		Range:   d.Range,
		Choices: d.Choices,
	}
}

// Coerce converts v to the descriptor's type and applies its range.
// Numbers arrive as float64, int, json.Number or string.
func (d *Descriptor) Coerce(v any, mode Mode) (any, error) {
	switch d.Kind {
	case Float:
		num, err := d.number(v)
		if err != nil {
			return nil, err
		}
		num, err = d.ranged(v, num, mode)
		if err != nil {
			return nil, err
		}
		return num, nil
	case Int:
		num, err := d.number(v)
		if err != nil {
			return nil, err
		}
		num, err = d.ranged(v, math.Round(num), mode)
		if err != nil {
			return nil, err
		}
		return int(num), nil
	case Enum:
		return d.choice(v)
	case Bool:
		return d.boolean(v)
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, toolerr.New(toolerr.ErrInvalid, d.Name, "%s: expected string value: %v", d.Name, v)
		}
		if d.Name == "zuluTime" {
			if _, err := time.Parse(ZuluLayout, s); err != nil {
				return nil, toolerr.New(toolerr.ErrInvalid, d.Name, "%s: invalid zulu time format: %s", d.Name, s)
			}
		}
		return s, nil
	default:
		return v, nil
	}
}

func (d *Descriptor) ranged(orig any, num float64, mode Mode) (float64, error) {
	if d.Range.Contains(num) {
		return num, nil
	}
	if mode == Strict {
		lo, hi := d.Range.bounds()
		return 0, toolerr.Range(d.Name, orig, lo, hi)
	}
	return d.Range.Clip(num), nil
}

func (d *Descriptor) number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err == nil {
			return f, nil
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f, nil
		}
	}
	t := "float"
	if d.Kind == Int {
		t = "int"
	}
	return 0, toolerr.New(toolerr.ErrRange, d.Name, "%s: could not convert string to %s: %v", d.Name, t, v)
}

func (d *Descriptor) choice(v any) (any, error) {
	s := fmt.Sprint(v)
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		s = strconv.Itoa(int(f))
	}
	if n, ok := v.(json.Number); ok {
		s = n.String()
	}
	for _, c := range d.Choices {
		if c != s {
			continue
		}
		if d.IntChoices {
			i, err := strconv.Atoi(s)
			if err != nil {
				break
			}
			return i, nil
		}
		return s, nil
	}
	return nil, toolerr.New(toolerr.ErrRange, d.Name, "%s: invalid choice: %v (choose from %s)",
		d.Name, v, strings.Join(d.Choices, ", "))
}

func (d *Descriptor) boolean(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, nil
		}
	}
	return nil, toolerr.New(toolerr.ErrRange, d.Name, "%s: expected boolean value: %v", d.Name, v)
}

// AnimationSuffix marks the animation key of a view parameter.
const AnimationSuffix = "Animation"

// AnimationKey returns the recipe key holding name's animation.
func AnimationKey(name string) string {
	if strings.HasSuffix(name, AnimationSuffix) {
		return name
	}
	return name + AnimationSuffix
}

// SplitKey strips the animation suffix from a recipe key.
func SplitKey(key string) (name string, animation bool) {
	if strings.HasSuffix(key, AnimationSuffix) {
		return strings.TrimSuffix(key, AnimationSuffix), true
	}
	return key, false
}
