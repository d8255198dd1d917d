package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/toolerr"
)

// Validator checks recipe documents of one version against the picture
// schema generated from the parameter catalog.
type Validator struct {
	version int
	schema  *jsonschema.Schema
}

var (
	mu    sync.Mutex
	cache = map[int]*Validator{}
)

// For returns the shared validator of a recipe version.
func For(version int) (*Validator, error) {
	mu.Lock()
	defer mu.Unlock()
	if v, ok := cache[version]; ok {
		return v, nil
	}
	v, err := New(version)
	if err != nil {
		return nil, err
	}
	cache[version] = v
	return v, nil
}

// New compiles the schema of a recipe version.
func New(version int) (*Validator, error) {
	if version < 1 || version > 5 {
		return nil, fmt.Errorf("unsupported recipe version: %d", version)
	}
	raw, err := json.Marshal(Document(version))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := fmt.Sprintf("lfp://picture/recipe%d.json", version)
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{version: version, schema: s}, nil
}

// Key is the views[0] key holding a recipe of the given version.
func Key(version int) string {
	return "recipe" + strconv.Itoa(version)
}

// Validate wraps the recipe in a dummy picture document and validates it.
func (v *Validator) Validate(recipe map[string]any) error {
	doc := map[string]any{
		"picture": map[string]any{},
		"views":   []any{map[string]any{Key(v.version): recipe}},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return toolerr.New(toolerr.ErrSchema, "", "recipe is not serializable: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return toolerr.New(toolerr.ErrSchema, "", "recipe is not serializable: %v", err)
	}

	err = v.schema.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("schema: %w", err)
	}
	leaf := deepest(ve)
	return toolerr.New(toolerr.ErrSchema, "", "schema validation failed at '%s': %s (keyword %s)",
		leaf.InstanceLocation, leaf.Message, leaf.KeywordLocation)
}

func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// Document builds the picture schema for a recipe version.
func Document(version int) map[string]any {
	key := Key(version)
	return map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": []string{"views"},
		"properties": map[string]any{
			"picture": map[string]any{"type": "object"},
			"views": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						key: map[string]any{"$ref": "#/definitions/" + key},
					},
				},
			},
		},
		"definitions": map[string]any{
			key: Recipe(version),
		},
	}
}

// Recipe builds the schema of a single recipe object.
func Recipe(version int) map[string]any {
	props := map[string]any{}
	for _, name := range params.Names(params.Filter{Version: version, Meta: true}) {
		d := params.MustLookup(name)
		props[name] = property(d)
		if d.Animatable {
			props[params.AnimationKey(name)] = animation(d)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func property(d *params.Descriptor) map[string]any {
	switch d.Name {
	case "viewCrop":
		return crop()
	case "viewLuminanceToneCurve":
		return toneCurve()
	}
	switch d.Kind {
	case params.List:
		s := map[string]any{
			"type":  "array",
			"items": scalar(d.ItemDescriptor()),
		}
		if d.MinItems > 0 {
			s["minItems"] = d.MinItems
		}
		if d.MaxItems > 0 {
			s["maxItems"] = d.MaxItems
		}
		if d.Unique {
			s["uniqueItems"] = true
		}
		return s
	case params.Opaque:
		return map[string]any{"type": "object"}
	}
	return scalar(d)
}

func scalar(d *params.Descriptor) map[string]any {
	switch d.Kind {
	case params.Float:
		return ranged(map[string]any{"type": "number"}, d.Range)
	case params.Int:
		return ranged(map[string]any{"type": "integer"}, d.Range)
	case params.Bool:
		return map[string]any{"type": "boolean"}
	case params.String:
		return map[string]any{"type": "string"}
	case params.Enum:
		choices := make([]any, 0, len(d.Choices))
		for _, c := range d.Choices {
			if d.IntChoices {
				n, _ := strconv.Atoi(c)
				choices = append(choices, n)
				continue
			}
			choices = append(choices, c)
		}
		return map[string]any{"enum": choices}
	}
	return map[string]any{}
}

func ranged(s map[string]any, r *params.Range) map[string]any {
	if r == nil {
		return s
	}
	if r.HasLo {
		s["minimum"] = r.Lo
	}
	if r.HasHi {
		s["maximum"] = r.Hi
	}
	return s
}

func crop() map[string]any {
	props := map[string]any{"angle": scalar(params.CropAngle)}
	for _, f := range params.CropFields[1:] {
		props[f] = scalar(params.CropSide(f))
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func toneCurve() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"controlPoints": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"x": scalar(params.ToneX),
						"y": scalar(params.ToneY),
					},
					"required":             []string{"x", "y"},
					"additionalProperties": false,
				},
			},
		},
		"additionalProperties": false,
	}
}

func animation(d *params.Descriptor) map[string]any {
	meta := d.Animation()
	value := scalar(meta.Values)
	pair := map[string]any{}
	for _, h := range []*params.Descriptor{meta.Dt0, meta.Dt1, meta.Dv0, meta.Dv1} {
		pair[h.Name] = scalar(h)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"times": map[string]any{
				"type":  "array",
				"items": scalar(meta.Times),
			},
			"values": map[string]any{
				"type":  "array",
				"items": value,
			},
			"handlePairs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           pair,
					"additionalProperties": false,
				},
			},
			"initialValue": map[string]any{
				"anyOf": []any{scalar(meta.InitialValue), map[string]any{"type": "null"}},
			},
		},
		"additionalProperties": false,
	}
}

// Keys lists the top-level recipe keys accepted by a version.
func Keys(version int) []string {
	props := Recipe(version)["properties"].(map[string]any)
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
