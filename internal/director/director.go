package director

import (
	"fmt"
	"log"

	"github.com/ivlev/recipetool/internal/curve"
	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/recipe"
)

// MergeOptions control how a recipe set is turned into a plan
type MergeOptions struct {
	Select   []string           // Restrict to these parameters; missing values become errors
	T0       map[string]float64 // Per-parameter start time (default Buffer)
	T1       map[string]float64 // Per-parameter end time (default T0 + Duration)
	Ease     string
	Shape    string
	Buffer   float64
	Duration float64
}

// Compose gathers the view value of every animatable parameter across the
// sources, in source order.
func Compose(sources []*recipe.Recipe, opts MergeOptions) (*Plan, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no recipes to merge")
	}
	if _, err := curve.Lookup(opts.Ease, opts.Shape); err != nil {
		return nil, err
	}
	first := sources[0]

	plan := &Plan{
		Version: first.Version(),
		Buffer:  opts.Buffer,
		Base:    first.ViewStoreNoZulu(),
	}
	for _, src := range sources {
		plan.Sources = append(plan.Sources, src.Path)
	}

	strict := len(opts.Select) > 0
	names := opts.Select
	if !strict {
		names = params.Names(params.Filter{Version: first.Version(), Animatable: true})
	}

	for _, name := range names {
		d, ok := params.Lookup(name)
		if !ok || !d.Animatable {
			return nil, fmt.Errorf("cannot merge; %s is not an animatable parameter", name)
		}
		if c, ok := first.View(name); !strict && (!ok || !c.Active()) {
			continue
		}

		values, err := gather(sources, name, strict)
		if err != nil {
			return nil, err
		}
		if values == nil {
			continue
		}

		track := Track{
			Param:  name,
			T0:     opts.Buffer,
			Ease:   opts.Ease,
			Shape:  opts.Shape,
			Values: values,
		}
		if t0, ok := opts.T0[name]; ok {
			track.T0 = t0
		}
		track.T1 = track.T0 + opts.Duration
		if t1, ok := opts.T1[name]; ok {
			track.T1 = t1
		}
		if track.Spans() == 0 {
			log.Printf("[!] %s: value never changes, skipping", name)
			continue
		}
		if err := recipe.CheckDuration(name, track.T0, track.T1); err != nil {
			return nil, err
		}
		plan.Tracks = append(plan.Tracks, track)
	}
	return plan, nil
}

// gather returns nil when a non-strict parameter is missing somewhere.
func gather(sources []*recipe.Recipe, name string, strict bool) ([]float64, error) {
	values := make([]float64, 0, len(sources))
	for _, src := range sources {
		c, ok := src.View(name)
		var v float64
		if ok {
			v, ok = c.Float()
		}
		if !ok {
			if strict {
				return nil, fmt.Errorf("cannot merge; %s does not contain a %s value", src.Path, name)
			}
			log.Printf("[!] %s: no value in %s, skipping", name, src.Path)
			return nil, nil
		}
		values = append(values, v)
	}
	return values, nil
}

// Apply writes the plan into dest. The plan is validated first, so
// plans read from disk get the same guards as composed ones. The step
// budget is spread over a shared timeline; each value change of a
// track becomes one eased segment.
func Apply(dest *recipe.Recipe, plan *Plan, steps int) error {
	if steps < 2 {
		return fmt.Errorf("steps must be at least 2, got %d", steps)
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	if err := dest.Apply(plan.Base, params.Clip); err != nil {
		return fmt.Errorf("apply base view: %w", err)
	}

	timeline := curve.Linspace(plan.Buffer, plan.End(), steps)
	for _, track := range plan.Tracks {
		a, ok := dest.Animation(track.Param)
		if !ok {
			return fmt.Errorf("cannot merge; %s is not animatable in recipe version %d", track.Param, dest.Version())
		}
		a.Delete()
		if err := applyTrack(a, track, timeline, plan.Buffer); err != nil {
			return err
		}
	}
	return nil
}

func applyTrack(a *recipe.Animation, track Track, timeline []float64, buffer float64) error {
	spans := track.Spans()
	if spans == 0 {
		return nil
	}
	i0, _ := curve.MinDistance(timeline, track.T0)
	i1, _ := curve.MinDistance(timeline, track.T1)
	paramSteps := i1 - i0
	span := (track.T1 - track.T0) / float64(spans)
	subSteps := paramSteps / spans

	k := 0
	for i := 1; i < len(track.Values); i++ {
		v0, v1 := track.Values[i-1], track.Values[i]
		if v0 == v1 {
			continue
		}
		t0 := track.T0 + float64(k)*span
		t1 := t0 + span - buffer
		n := subSteps
		k++
		if k == spans {
			t1 = track.T1
			n += paramSteps % spans
		}
		if n < 2 {
			return fmt.Errorf("%s: %d steps for a transition of %d; increase steps", track.Param, n, spans)
		}
		if err := a.Ease(t0, v0, t1, v1, track.Ease, track.Shape, n); err != nil {
			return err
		}
	}
	return nil
}
