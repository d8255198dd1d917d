package main

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatList(t *testing.T) {
	var l floatList
	require.NoError(t, l.Set("1, 2.5"))
	require.NoError(t, l.Set("-3"))
	assert.Equal(t, floatList{1, 2.5, -3}, l)
	assert.Equal(t, "1,2.5,-3", l.String())

	assert.EqualError(t, l.Set("1,x"), "could not convert string to float: 'x'")
}

func TestOptFloat(t *testing.T) {
	fs := flag.NewFlagSet("anim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var t0, v0 optFloat
	fs.Var(&t0, "t0", "")
	fs.Var(&v0, "v0", "")
	require.NoError(t, fs.Parse([]string{"-t0", "0.5"}))

	require.NotNil(t, t0.Ptr())
	assert.Equal(t, 0.5, *t0.Ptr())
	assert.Nil(t, v0.Ptr())

	assert.Error(t, fs.Parse([]string{"-v0", "high"}))
}

func TestSpanFlag(t *testing.T) {
	var s spanFlag
	require.NoError(t, s.Set("1,4"))
	assert.Equal(t, 1.0, s.span.A)
	assert.Equal(t, 4.0, s.span.B)
	assert.Error(t, s.Set("1,2,3"))
}

func TestParamTimes(t *testing.T) {
	p := paramTimes{}
	require.NoError(t, p.Set("viewZoom=2,viewFocus=4.5"))
	assert.Equal(t, paramTimes{"viewZoom": 2, "viewFocus": 4.5}, p)
	assert.Error(t, p.Set("viewZoom"))
	assert.Error(t, p.Set("viewZoom=soon"))
}

func TestStringList(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("viewZoom, viewFocus"))
	assert.Equal(t, stringList{"viewZoom", "viewFocus"}, l)
}
