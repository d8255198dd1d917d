package params

import (
	"sort"
)

var (
	allVersions = []int{1, 2, 3, 4, 5}

	signed5        = Between(-5, 5)
	signedInt100   = Between(-100, 100)
	signedInt150   = Between(-150, 150)
	unsigned10     = Between(0, 10)
	unsignedInt100 = Between(0, 100)
	unsignedInt150 = Between(0, 150)
	unsigned       = AtLeast(0)
)

// Sub-property descriptors of the composite parameters.
var (
	CropAngle = &Descriptor{Name: "angle", Kind: Float, Range: Between(-45, 45), Default: 0.0}
	ToneX     = &Descriptor{Name: "x", Kind: Float, Depends: []string{"y"}}
	ToneY     = &Descriptor{Name: "y", Kind: Float, Depends: []string{"x"}}

	cropSides = map[string]*Descriptor{
		"top":    {Name: "top", Kind: Float, Default: 0.0},
		"left":   {Name: "left", Kind: Float, Default: 0.0},
		"bottom": {Name: "bottom", Kind: Float, Default: 1.0},
		"right":  {Name: "right", Kind: Float, Default: 1.0},
	}
)

// CropSide returns the descriptor of a viewCrop coordinate.
func CropSide(name string) *Descriptor {
	return cropSides[name]
}

// CropFields lists the viewCrop properties in output order.
var CropFields = []string{"angle", "top", "left", "bottom", "right"}

var catalog = map[string]*Descriptor{}

func init() {
	for _, d := range []*Descriptor{
		num("viewAperture", "4D-to-2D", Float, nil, 1.0, allVersions),
		num("viewBlacks", "basicTone", Int, signedInt100, 0, []int{1, 2}),
		num("viewBlacks2", "basicTone", Int, signedInt100, 0, []int{3, 4, 5}),
		{
			Name: "viewCcm", Kind: List, Item: Float, Group: "ccm",
			Versions: []int{4, 5}, Enabled: true, MinItems: 9, MaxItems: 9,
		},
		num("viewColorNoiseReduction", "2D-denoise", Int, unsignedInt100, 50, allVersions),
		num("viewContrast", "contrast", Int, signedInt100, 0, allVersions),
		{Name: "viewCrop", Kind: Object, Group: "crop", Versions: allVersions, Enabled: true},
		{Name: "viewDefringe", Kind: Bool, Group: "defringe", Versions: []int{4, 5}, Enabled: true, Default: false},
		num("viewDefringeRadius", "defringe", Float, unsigned10, 5.5, []int{4, 5}),
		num("viewDefringeThreshold", "defringe", Int, unsignedInt100, 50, []int{4, 5}),
		num("viewExposure", "exposure", Float, signed5, 0.0, allVersions),
		{
			Name: "viewFilterEffect", Kind: Enum, Group: "effect", Versions: allVersions, Default: "none",
			Choices: []string{"none", "Mosaic", "Glass", "Carnival", "Line Art", "Crayon", "Blur+", "Pop", "Film Noir", "8-Track"},
		},
		num("viewFocus", "4D-to-2D", Float, nil, 0.0, allVersions),
		num("viewFocusSpread", "4D-to-2D", Float, nil, 0.0, allVersions),
		depends(num("viewFocusX", "4D-to-2D", Float, nil, 0.5, []int{4, 5}), "viewFocusY"),
		depends(num("viewFocusY", "4D-to-2D", Float, nil, 0.5, []int{4, 5}), "viewFocusX"),
		{
			Name: "viewFx", Kind: Opaque, Group: "effects", Versions: []int{5},
			Default: map[string]any{"fxEnable": true, "fxContainerSequence": []any{}},
		},
		num("viewHighlights", "basicTone", Int, signedInt100, 0, []int{1, 2}),
		num("viewHighlights2", "basicTone", Int, signedInt100, 0, []int{3, 4, 5}),
		num("viewLuminanceNoiseReduction", "2D-denoise", Int, unsignedInt100, 50, allVersions),
		{
			Name: "viewLuminanceToneCurve", Kind: Object, Group: "contrast", Versions: allVersions,
			Default: []any{map[string]any{"x": 0.0, "y": 0.0}, map[string]any{"x": 1.0, "y": 1.0}},
		},
		{
			Name: "viewOrientation", Kind: Enum, Group: "reorient", Versions: allVersions, Enabled: true,
			Default: 1, IntChoices: true, Choices: []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		},
		depends(num("viewPanX", "window", Float, nil, 0.5, allVersions), "viewPanY"),
		depends(num("viewPanY", "window", Float, nil, 0.5, allVersions), "viewPanX"),
		static(num("viewParametricDarks", "parametricTone", Int, signedInt100, 0, allVersions)),
		static(num("viewParametricHighlightSplit", "parametricTone", Int, Between(30, 90), nil, allVersions)),
		static(num("viewParametricHighlights", "parametricTone", Int, signedInt100, 0, allVersions)),
		static(num("viewParametricLights", "parametricTone", Int, signedInt100, 0, allVersions)),
		static(num("viewParametricMidtoneSplit", "parametricTone", Int, Between(20, 80), nil, allVersions)),
		static(num("viewParametricShadowSplit", "parametricTone", Int, Between(10, 70), nil, allVersions)),
		static(num("viewParametricShadows", "parametricTone", Int, signedInt100, 0, allVersions)),
		depends(num("viewPerspectiveU", "4D-to-2D", Float, nil, 0.0, allVersions), "viewPerspectiveV"),
		depends(num("viewPerspectiveV", "4D-to-2D", Float, nil, 0.0, allVersions), "viewPerspectiveU"),
		num("viewPivot", "4D-to-2D", Float, nil, 0.0, allVersions),
		{
			Name: "viewPriorities", Kind: List, Item: Enum, Group: "priority", Versions: allVersions,
			Enabled: true, Unique: true, MaxItems: 2, Default: []any{"viewFocus"},
			Choices: []string{"viewFocus", "viewPerspective"},
		},
		{Name: "viewReduceFlare", Kind: Bool, Group: "4D-to-2D", Versions: []int{4, 5}, Default: false},
		num("viewSaturation", "saturate", Int, signedInt100, 0, allVersions),
		num("viewSaturationBlue", "saturate", Int, signedInt100, 0, []int{2, 3, 4, 5}),
		num("viewSaturationCyan", "saturate", Int, signedInt100, 0, []int{2, 3, 4, 5}),
		num("viewSaturationGreen", "saturate", Int, signedInt100, 0, []int{2, 3, 4, 5}),
		num("viewSaturationMagenta", "saturate", Int, signedInt100, 0, []int{2, 3, 4, 5}),
		num("viewSaturationRed", "saturate", Int, signedInt100, 0, []int{2, 3, 4, 5}),
		num("viewSaturationYellow", "saturate", Int, signedInt100, 0, []int{2, 3, 4, 5}),
		num("viewShadows", "basicTone", Int, signedInt100, 0, []int{1, 2}),
		num("viewShadows2", "basicTone", Int, signedInt100, 0, []int{3, 4, 5}),
		num("viewSharpenDetail", "sharpen", Int, unsignedInt100, 0, []int{3, 4, 5}),
		num("viewSharpenEdgeMasking", "sharpen", Int, unsignedInt100, 0, []int{3, 4, 5}),
		num("viewSharpenRadius", "sharpen", Float, Between(0.5, 3.0), 1.0, allVersions),
		num("viewSharpness", "sharpen", Int, unsignedInt150, 25, []int{1, 2}),
		num("viewSharpness2", "sharpen", Int, unsignedInt150, 25, []int{3, 4, 5}),
		num("viewStereoBaseline", "4D-to-2D", Float, unsigned, 0.0, allVersions),
		num("viewStereoPivot", "4D-to-2D", Float, nil, 0.0, allVersions),
		num("viewTemperature", "white-balance", Int, Between(2000, 50000), nil, allVersions),
		depends(num("viewTiltX", "4D-to-2D", Float, nil, 0.0, allVersions), "viewTiltY"),
		depends(num("viewTiltY", "4D-to-2D", Float, nil, 0.0, allVersions), "viewTiltX"),
		num("viewTint", "white-balance", Int, signedInt150, 0, allVersions),
		num("viewVibrance", "saturate", Int, signedInt100, 0, allVersions),
		{
			Name: "viewWhiteBalance", Kind: Enum, Group: "white-balance", Versions: allVersions, Enabled: true,
			Default: "auto",
			Choices: []string{"as shot", "auto", "daylight", "cloudy", "shade", "tungsten", "fluorescent", "flash", "custom"},
		},
		num("viewWhites", "basicTone", Int, signedInt100, 0, []int{1, 2}),
		num("viewWhites2", "basicTone", Int, signedInt100, 0, []int{3, 4, 5}),
		num("viewZoom", "window", Float, nil, 1.0, allVersions),
		{Name: "zuluTime", Kind: String, Group: "meta", Versions: allVersions, Enabled: true},
	} {
		if d.Animatable {
			d.anim = animationMeta(d)
		}
		catalog[d.Name] = d
	}
}

// num declares an enabled, animatable numeric parameter.
func num(name, group string, kind Kind, r *Range, def any, versions []int) *Descriptor {
	return &Descriptor{
		Name:       name,
		Kind:       kind,
		Range:      r,
		Default:    def,
		Versions:   versions,
		Group:      group,
		Enabled:    true,
		Animatable: true,
	}
}

func depends(d *Descriptor, names ...string) *Descriptor {
	d.Depends = names
	return d
}

// static marks a schema-only parameter: disabled and not animatable.
func static(d *Descriptor) *Descriptor {
	d.Enabled = false
	d.Animatable = false
	return d
}

func animationMeta(d *Descriptor) *AnimationMeta {
	values := func(name string, r *Range) *Descriptor {
		return &Descriptor{Name: name, Kind: d.Kind, Range: r}
	}
	var dv *Range
	if w, ok := d.Range.Width(); ok {
		dv = Between(-w, w)
	}
	return &AnimationMeta{
		Times:        &Descriptor{Name: "times", Kind: Float, Range: AtLeast(0), Unique: true},
		Values:       values("values", d.Range),
		InitialValue: values("initialValue", d.Range),
		Dt0:          &Descriptor{Name: "dt0", Kind: Float, Range: AtLeast(0), Depends: []string{"dt1", "dv0", "dv1"}},
		Dt1:          &Descriptor{Name: "dt1", Kind: Float, Range: AtMost(0), Depends: []string{"dt0", "dv0", "dv1"}},
		Dv0:          values("dv0", dv),
		Dv1:          values("dv1", dv),
	}
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (*Descriptor, bool) {
	d, ok := catalog[name]
	return d, ok
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) *Descriptor {
	d, ok := catalog[name]
	if !ok {
		panic("params: unknown parameter " + name)
	}
	return d
}

// Filter narrows Names and Grouped.
type Filter struct {
	Group      string
	Version    int  // 0 matches every version
	Enabled    bool // only enabled parameters
	Animatable bool // only animatable parameters
	Meta       bool // include the meta group (zuluTime)
	// WithAnimation adds the "<name>Animation" key after each animatable name.
	WithAnimation bool
	Exclude       []string
}

func (f Filter) match(d *Descriptor) bool {
	if f.Group != "" && d.Group != f.Group {
		return false
	}
	if f.Version != 0 && !d.Supports(f.Version) {
		return false
	}
	if f.Enabled && !d.Enabled {
		return false
	}
	if f.Animatable && !d.Animatable {
		return false
	}
	if !f.Meta && d.Group == "meta" {
		return false
	}
	for _, e := range f.Exclude {
		if e == d.Name {
			return false
		}
	}
	return true
}

// Names returns the sorted recipe keys matching f.
func Names(f Filter) []string {
	var out []string
	for _, d := range catalog {
		if !f.match(d) {
			continue
		}
		out = append(out, d.Name)
		if f.WithAnimation && d.Animatable {
			out = append(out, AnimationKey(d.Name))
		}
	}
	sort.Strings(out)
	return out
}

// Grouped returns Names bucketed by group.
func Grouped(f Filter) map[string][]string {
	out := map[string][]string{}
	for _, name := range Names(f) {
		base, _ := SplitKey(name)
		g := catalog[base].Group
		out[g] = append(out[g], name)
	}
	return out
}

// Dependencies returns every descriptor declaring companions, sorted by name.
func Dependencies() []*Descriptor {
	var out []*Descriptor
	for _, d := range catalog {
		if len(d.Depends) > 0 {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsKey reports whether key is a parameter or animation key valid in version.
func IsKey(key string, version int) bool {
	name, anim := SplitKey(key)
	d, ok := catalog[name]
	if !ok || !d.Supports(version) {
		return false
	}
	return !anim || d.Animatable
}
