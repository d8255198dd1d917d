package renderer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/recipetool/internal/curve"
	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/recipe"
	"github.com/ivlev/recipetool/internal/tnt"
)

// track is one animated parameter resampled onto evenly spaced times
type track struct {
	desc   *params.Descriptor
	times  []float64
	values []float64
}

// Generator converts an animated recipe into single-view frame recipes
type Generator struct {
	input  *recipe.Recipe
	total  int
	base   map[string]any
	tracks map[string]*track
}

// NewGenerator samples every animated parameter of input onto total points
func NewGenerator(input *recipe.Recipe, total int) (*Generator, error) {
	if total < 2 {
		return nil, fmt.Errorf("frame count must be at least 2, got %d", total)
	}

	g := &Generator{
		input:  input,
		total:  total,
		base:   input.ViewStoreNoZulu(),
		tracks: map[string]*track{},
	}
	for k, v := range input.Unsupported() {
		g.base[k] = v
	}

	for _, a := range input.Animations() {
		if !a.Active() {
			continue
		}
		pts := a.Points()
		if len(pts) == 0 {
			continue
		}
		x, y := make([]float64, len(pts)), make([]float64, len(pts))
		for i, p := range pts {
			x[i], y[i] = p.X, p.Y
		}
		times, values := curve.Interp(x, y, total)
		g.tracks[a.Param()] = &track{desc: a.Descriptor(), times: times, values: values}
	}

	if len(g.tracks) == 0 {
		return nil, fmt.Errorf("%s: no animation data", input.Path)
	}
	return g, nil
}

// Params lists the animated parameters, sorted
func (g *Generator) Params() []string {
	names := make([]string, 0, len(g.tracks))
	for name := range g.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Marks returns total evenly spaced times covering the whole animation
func (g *Generator) Marks() []float64 {
	first, last := g.input.Duration()
	return curve.Linspace(first, last, g.total)
}

// Value returns the sampled value of param nearest to mark, typed for
// the parameter, and the time of that sample.
func (g *Generator) Value(param string, mark float64) (any, float64, error) {
	t, ok := g.tracks[param]
	if !ok {
		return nil, 0, fmt.Errorf("%s is not animated", param)
	}
	idx, at := curve.MinDistance(t.times, mark)
	v, err := t.desc.Coerce(t.values[idx], params.Clip)
	if err != nil {
		return nil, 0, err
	}
	return v, at, nil
}

// Frame builds the single-view recipe at mark
func (g *Generator) Frame(mark float64) (*recipe.Recipe, error) {
	r, err := recipe.New(g.input.Version())
	if err != nil {
		return nil, err
	}
	if err := r.Apply(g.base, params.Clip); err != nil {
		return nil, err
	}
	for _, name := range g.Params() {
		v, _, err := g.Value(name, mark)
		if err != nil {
			return nil, err
		}
		c, ok := r.View(name)
		if !ok {
			return nil, fmt.Errorf("%s has no view value", name)
		}
		if err := c.Set(v, params.Clip); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Sample is a parameter value at one sampled time
type Sample struct {
	Time  float64 `json:"time" yaml:"time"`
	Value any     `json:"value" yaml:"value"`
}

// Review collects the sampled values of every animated parameter at times
func (g *Generator) Review(times []float64) map[string][]Sample {
	out := map[string][]Sample{}
	for _, name := range g.Params() {
		for _, mark := range times {
			v, at, err := g.Value(name, mark)
			if err != nil {
				continue
			}
			out[name] = append(out[name], Sample{Time: at, Value: v})
		}
	}
	return out
}

// FrameOptions control WriteFrames
type FrameOptions struct {
	Dir        string
	Prefix     string
	Processors int

	// Render each frame through tnt when LFP is set
	LFP      string
	Exe      string
	Imagerep string
	Width    int
	Height   int
	Verbose  bool
}

// WriteFrames writes one recipe per mark, concurrently, and returns
// the recipe paths in frame order.
func (g *Generator) WriteFrames(ctx context.Context, opts FrameOptions) ([]string, error) {
	if opts.Prefix == "" {
		opts.Prefix = "frame"
	}
	if opts.Imagerep == "" {
		opts.Imagerep = "png"
	}
	if opts.Processors < 1 {
		opts.Processors = 1
	}

	marks := g.Marks()
	paths := make([]string, len(marks))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Processors)
	for i, mark := range marks {
		i, mark := i, mark
		stem := filepath.Join(opts.Dir, fmt.Sprintf("%s_%04d", opts.Prefix, i))
		paths[i] = stem + ".json"
		eg.Go(func() error {
			r, err := g.Frame(mark)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			r.Path = paths[i]
			if err := r.Flush(); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if opts.LFP == "" {
				return nil
			}
			return render(ctx, opts, r.Path, stem+"."+opts.Imagerep)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func render(ctx context.Context, opts FrameOptions, recipePath, imagePath string) error {
	cmd := tnt.New(opts.Exe)
	cmd.Verbose = opts.Verbose
	for _, set := range []func() error{
		func() error { return cmd.LfpIn(opts.LFP) },
		func() error { return cmd.RecipeIn(recipePath) },
		func() error { return cmd.ImageOut(imagePath) },
		func() error { return cmd.Imagerep(opts.Imagerep) },
		func() error { return cmd.Width(opts.Width) },
		func() error { return cmd.Height(opts.Height) },
	} {
		if err := set(); err != nil {
			return err
		}
	}
	return cmd.Execute(ctx)
}
