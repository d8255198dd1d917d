package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/recipetool/internal/recipe"
)

// floatList is a comma or space separated list of numbers
type floatList []float64

func (l *floatList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(s string) error {
	for _, f := range split(s) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("could not convert string to float: '%s'", f)
		}
		*l = append(*l, v)
	}
	return nil
}

// stringList is a comma or space separated list of names
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, split(s)...)
	return nil
}

// optFloat is a number flag that remembers whether it was given
type optFloat struct {
	v   float64
	set bool
}

func (o *optFloat) String() string {
	if !o.set {
		return ""
	}
	return strconv.FormatFloat(o.v, 'g', -1, 64)
}

func (o *optFloat) Set(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("could not convert string to float: '%s'", s)
	}
	o.v, o.set = v, true
	return nil
}

// Ptr returns nil when the flag was not given
func (o *optFloat) Ptr() *float64 {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}

// spanFlag is an "a,b" pair
type spanFlag struct {
	span *recipe.Span
}

func (s *spanFlag) String() string {
	if s.span == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", s.span.A, s.span.B)
}

func (s *spanFlag) Set(v string) error {
	var l floatList
	if err := l.Set(v); err != nil {
		return err
	}
	if len(l) != 2 {
		return fmt.Errorf("expected two numbers 'a,b', got %q", v)
	}
	s.span = &recipe.Span{A: l[0], B: l[1]}
	return nil
}

// paramTimes maps parameter names to times: "viewZoom=2,viewFocus=4"
type paramTimes map[string]float64

func (p paramTimes) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, fmt.Sprintf("%s=%g", k, v))
	}
	return strings.Join(parts, ",")
}

func (p paramTimes) Set(s string) error {
	for _, pair := range split(s) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("expected name=time, got %q", pair)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("could not convert string to float: '%s'", value)
		}
		p[name] = v
	}
	return nil
}

func split(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
