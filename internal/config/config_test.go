package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)

	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, c.AutoSteps)
	assert.Equal(t, "max", c.Processors)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := "auto_shape: cubic\nauto_steps: 30\nverbose: true\ntnt: /opt/lytro/tnt\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cubic", c.AutoShape)
	assert.Equal(t, 30, c.AutoSteps)
	assert.True(t, c.Verbose)
	assert.Equal(t, "/opt/lytro/tnt", c.Tnt)
	assert.Equal(t, "in_out", c.AutoEase, "unset keys keep defaults")
	assert.Equal(t, 0.0001, c.AutoBuffer)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"version", "recipe_version: 7\n", "recipe_version"},
		{"steps", "auto_steps: 0\n", "auto_steps"},
		{"duration", "auto_duration: -1\n", "auto_duration"},
		{"shape", "auto_shape: wobbly\n", "invalid easing function"},
		{"yaml", "auto_steps: [\n", "error loading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	c := Default()
	c.AutoSteps = 24
	c.Processors = "half"
	require.NoError(t, c.Write(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "auto_steps: 24"))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, *loaded)
}
