package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	s, err := Open("a/b.JSON", Options{})
	require.NoError(t, err)
	assert.IsType(t, &JSONSource{}, s)
	assert.Equal(t, "a/b.JSON", s.Path())

	s, err = Open("pic.lfr", Options{})
	require.NoError(t, err)
	assert.IsType(t, &LFPSource{}, s)

	_, err = Open("slides.pdf", Options{})
	assert.EqualError(t, err, "unsupported input file: slides.pdf")
}

func TestJSONSource(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"viewExposure": 0.5}`), 0644))
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"name": "not a recipe"}`), 0644))

	s, err := Open(good, Options{Version: 5})
	require.NoError(t, err)
	r, err := s.Recipe(context.Background())
	require.NoError(t, err)
	c, _ := r.View("viewExposure")
	assert.Equal(t, 0.5, c.Get())
	assert.Equal(t, good, r.Path)
	assert.NoError(t, s.Close())

	s, err = Open(other, Options{Version: 5})
	require.NoError(t, err)
	_, err = s.Recipe(context.Background())
	assert.Error(t, err)
}

func TestLFPSource(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "tnt")
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  if [ "$1" = "--recipe-out" ]; then echo '{"viewZoom": 1.5}' > "$2"; fi
  shift
done
`
	require.NoError(t, os.WriteFile(exe, []byte(script), 0755))

	pic := filepath.Join(dir, "IMG_0001.lfp")
	s, err := Open(pic, Options{Version: 5, Exe: exe, TempDir: dir})
	require.NoError(t, err)

	r, err := s.Recipe(context.Background())
	require.NoError(t, err)
	c, _ := r.View("viewZoom")
	assert.Equal(t, 1.5, c.Get())
	assert.Equal(t, filepath.Join(dir, "IMG_0001.json"), r.Path)

	tmp := s.(*LFPSource).tmp
	assert.FileExists(t, tmp)
	require.NoError(t, s.Close())
	assert.NoFileExists(t, tmp)
}

func TestLFPSourceToolFailure(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "tnt")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\necho 'no calibration data' >&2\n"), 0755))

	s, err := Open(filepath.Join(dir, "x.lfr"), Options{Exe: exe, TempDir: dir})
	require.NoError(t, err)
	_, err = s.Recipe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no calibration data")
	assert.NoError(t, s.Close())
}
