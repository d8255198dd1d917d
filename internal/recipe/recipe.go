package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/schema"
	"github.com/ivlev/recipetool/internal/toolerr"
)

// DefaultVersion is the recipe format written by new recipes.
const DefaultVersion = 5

// unsupported keys are kept verbatim and written back on flush.
var unsupported = map[string]bool{"viewFx": true}

// Recipe is the view parameter set of one light-field picture.
type Recipe struct {
	Path string

	version     int
	params      map[string]Param
	views       map[string]*Cell
	anims       map[string]*Animation
	crop        *Crop
	ccm         *ItemList
	priorities  *ItemList
	toneCurve   *ToneCurve
	zulu        *Cell
	unsupported map[string]any
	validator   *schema.Validator
	now         func() time.Time
}

// New creates an empty recipe of the given format version.
func New(version int) (*Recipe, error) {
	if version == 0 {
		version = DefaultVersion
	}
	v, err := schema.For(version)
	if err != nil {
		return nil, err
	}
	r := &Recipe{
		version:     version,
		params:      map[string]Param{},
		views:       map[string]*Cell{},
		anims:       map[string]*Animation{},
		unsupported: map[string]any{},
		validator:   v,
		now:         time.Now,
	}
	r.init()
	return r, nil
}

func (r *Recipe) init() {
	for _, name := range params.Names(params.Filter{Version: r.version, Meta: true}) {
		d := params.MustLookup(name)
		switch {
		case unsupported[name]:
			continue
		case name == "viewCrop":
			r.crop = NewCrop()
			r.params[name] = r.crop
		case name == "viewCcm":
			r.ccm = NewItemList(d)
			r.params[name] = r.ccm
		case name == "viewPriorities":
			r.priorities = NewItemList(d)
			r.params[name] = r.priorities
		case name == "viewLuminanceToneCurve":
			r.toneCurve = NewToneCurve()
			r.params[name] = r.toneCurve
		default:
			c := NewCell(d)
			r.views[name] = c
			r.params[name] = c
			if name == "zuluTime" {
				r.zulu = c
			}
			if d.Animatable {
				a := NewAnimation(d, c)
				r.anims[name] = a
				r.params[a.Name()] = a
			}
		}
	}
}

// Load reads, validates and routes a recipe file.
func Load(path string, version int) (*Recipe, error) {
	r, err := New(version)
	if err != nil {
		return nil, err
	}
	data, err := ReadJSON(path)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := r.Apply(data, params.Strict); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.Path = path
	return r, nil
}

// ReadJSON decodes a JSON object keeping numbers as json.Number.
func ReadJSON(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	return data, nil
}

// Apply routes every key of data to its parameter.
func (r *Recipe) Apply(data map[string]any, mode params.Mode) error {
	for _, key := range sortedKeys(data) {
		if unsupported[key] {
			r.unsupported[key] = data[key]
			continue
		}
		p, ok := r.params[key]
		if !ok {
			return toolerr.New(toolerr.ErrInvalid, key, "invalid parameter: %s", key)
		}
		if err := p.Load(data[key], mode); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recipe) Version() int { return r.version }

// SetClock replaces the zuluTime source.
func (r *Recipe) SetClock(now func() time.Time) { r.now = now }

// Param returns the parameter stored under a recipe key.
func (r *Recipe) Param(key string) (Param, bool) {
	p, ok := r.params[key]
	return p, ok
}

// View returns the simple value cell of a parameter.
func (r *Recipe) View(name string) (*Cell, bool) {
	c, ok := r.views[name]
	return c, ok
}

// Animation returns the track of an animatable parameter. Both
// "viewExposure" and "viewExposureAnimation" are accepted.
func (r *Recipe) Animation(name string) (*Animation, bool) {
	base, _ := params.SplitKey(name)
	a, ok := r.anims[base]
	return a, ok
}

// Animations returns every animation track, sorted by parameter.
func (r *Recipe) Animations() []*Animation {
	out := make([]*Animation, 0, len(r.anims))
	for _, name := range sortedKeys(r.anims) {
		out = append(out, r.anims[name])
	}
	return out
}

func (r *Recipe) Crop() *Crop { return r.crop }
func (r *Recipe) Ccm() *ItemList { return r.ccm }
func (r *Recipe) Priorities() *ItemList { return r.priorities }
func (r *Recipe) ToneCurve() *ToneCurve { return r.toneCurve }
func (r *Recipe) Unsupported() map[string]any { return r.unsupported }

func (r *Recipe) store(animation *bool, zulu bool) map[string]any {
	out := map[string]any{}
	for key, p := range r.params {
		if !p.Active() {
			continue
		}
		if key == "zuluTime" && !zulu {
			continue
		}
		_, anim := params.SplitKey(key)
		if animation != nil && *animation != anim {
			continue
		}
		out[key] = p.Store()
	}
	return out
}

// Store returns every active parameter.
func (r *Recipe) Store() map[string]any { return r.store(nil, true) }

// ViewStore returns the active non-animation parameters.
func (r *Recipe) ViewStore() map[string]any {
	f := false
	return r.store(&f, true)
}

// ViewStoreNoZulu is ViewStore without the modification time.
func (r *Recipe) ViewStoreNoZulu() map[string]any {
	f := false
	return r.store(&f, false)
}

// AnimationStore returns the active animation tracks.
func (r *Recipe) AnimationStore() map[string]any {
	t := true
	return r.store(&t, true)
}

// Clear resets every parameter.
func (r *Recipe) Clear() {
	for _, p := range r.params {
		p.Delete()
	}
	r.unsupported = map[string]any{}
}

// Dependencies verifies the declared companions of every active
// parameter, then the structure of each one.
func (r *Recipe) Dependencies() error {
	for _, d := range params.Dependencies() {
		c, ok := r.views[d.Name]
		if !ok || !c.Active() {
			continue
		}
		for _, dep := range d.Depends {
			if other, ok := r.views[dep]; !ok || !other.Active() {
				return toolerr.Depends(d.Name, dep)
			}
		}
	}
	for _, key := range sortedKeys(r.params) {
		p := r.params[key]
		if !p.Active() {
			continue
		}
		if err := p.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs the schema check on the current store.
func (r *Recipe) Validate() error {
	return r.validator.Validate(r.Store())
}

// Stamp sets zuluTime to the current UTC time.
func (r *Recipe) Stamp() {
	r.zulu.value = r.now().UTC().Format(params.ZuluLayout)
}

// Flush validates the recipe, stamps it and writes sorted JSON to Path.
// The file is replaced in a single rename.
func (r *Recipe) Flush() error {
	if err := r.Dependencies(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.Stamp()
	if r.Path == "" {
		return toolerr.New(toolerr.ErrInvalid, "", "recipe output file not set")
	}
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return writeFile(r.Path, data)
}

// Marshal renders the store plus unsupported data as indented JSON.
func (r *Recipe) Marshal() ([]byte, error) {
	out := r.Store()
	for k, v := range r.unsupported {
		out[k] = v
	}
	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal recipe: %w", err)
	}
	return append(data, '\n'), nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".recipe-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Duration returns the earliest and latest point time across all tracks.
func (r *Recipe) Duration() (float64, float64) {
	first, last, seen := 0.0, 0.0, false
	for _, a := range r.Animations() {
		lo, hi, ok := a.Duration()
		if !ok {
			continue
		}
		if !seen || lo < first {
			first = lo
		}
		if !seen || hi > last {
			last = hi
		}
		seen = true
	}
	return first, last
}

// Keyframes returns the keyframes of every track that has any.
func (r *Recipe) Keyframes() (map[string][]Keyframe, error) {
	out := map[string][]Keyframe{}
	for _, a := range r.Animations() {
		ks, err := a.Keyframes()
		if err != nil {
			return nil, err
		}
		if len(ks) > 0 {
			out[a.Name()] = ks
		}
	}
	return out, nil
}

// Points returns the curve points of every active track.
func (r *Recipe) Points() map[string][]Point {
	out := map[string][]Point{}
	for _, a := range r.Animations() {
		if !a.Active() {
			continue
		}
		if pts := a.Points(); len(pts) > 0 {
			out[a.Name()] = pts
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
