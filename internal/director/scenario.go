package director

import (
	"fmt"

	"github.com/ivlev/recipetool/internal/curve"
	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/recipe"
	"github.com/ivlev/recipetool/internal/schema"
)

// Plan describes how a recipe set becomes one animated recipe
type Plan struct {
	Version int            `yaml:"version"`
	Buffer  float64        `yaml:"buffer"`
	Sources []string       `yaml:"sources"`
	Base    map[string]any `yaml:"base"` // View store of the first source
	Tracks  []Track        `yaml:"tracks"`
}

// Track is the merge of one parameter across the recipe set
type Track struct {
	Param  string    `yaml:"param"`
	T0     float64   `yaml:"t0"` // Start time in seconds
	T1     float64   `yaml:"t1"` // End time in seconds
	Ease   string    `yaml:"ease"`
	Shape  string    `yaml:"shape"`
	Values []float64 `yaml:"values"` // One value per source, in order
}

// Spans counts the value changes of the track
func (t Track) Spans() int {
	n := 0
	for i := 1; i < len(t.Values); i++ {
		if t.Values[i] != t.Values[i-1] {
			n++
		}
	}
	return n
}

// End returns the latest t1 of the plan
func (p *Plan) End() float64 {
	end := p.Buffer
	for _, t := range p.Tracks {
		if t.T1 > end {
			end = t.T1
		}
	}
	return end
}

// Validate checks the recipe version and every track: an animatable
// parameter, a known easing and t1 - t0 of at least recipe.MinDuration.
func (p *Plan) Validate() error {
	if _, err := schema.For(p.Version); err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	for _, t := range p.Tracks {
		if d, ok := params.Lookup(t.Param); !ok || !d.Animatable {
			return fmt.Errorf("cannot merge; %s is not an animatable parameter", t.Param)
		}
		if len(t.Values) < 2 {
			return fmt.Errorf("%s: a track needs at least 2 values, got %d", t.Param, len(t.Values))
		}
		if _, err := curve.Lookup(t.Ease, t.Shape); err != nil {
			return fmt.Errorf("%s: %w", t.Param, err)
		}
		if err := recipe.CheckDuration(t.Param, t.T0, t.T1); err != nil {
			return err
		}
	}
	return nil
}
