package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/recipetool/internal/config"
	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := config.Default()
	c.Spinner = false
	return &c
}

func recipes(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".json")
		require.NoError(t, os.WriteFile(paths[i], []byte(`{"viewExposure": 0.5}`), 0644))
	}
	return paths
}

func setExposure(v float64) Action {
	return func(ctx context.Context, r *recipe.Recipe) error {
		c, _ := r.View("viewExposure")
		return c.Set(v, params.Strict)
	}
}

func TestRunFlushesEveryFile(t *testing.T) {
	paths := recipes(t, 6)
	p := NewProject(testConfig(), paths, 3)
	require.NoError(t, p.Run(context.Background(), setExposure(1.25)))

	for _, path := range paths {
		r, err := recipe.Load(path, 5)
		require.NoError(t, err)
		c, _ := r.View("viewExposure")
		assert.Equal(t, 1.25, c.Get())
		assert.Contains(t, r.Store(), "zuluTime")
	}
}

func TestRunWithoutFlush(t *testing.T) {
	paths := recipes(t, 1)
	p := NewProject(testConfig(), paths, 1)
	p.Flush = false
	require.NoError(t, p.Run(context.Background(), setExposure(2)))

	data, err := recipe.ReadJSON(paths[0])
	require.NoError(t, err)
	assert.NotContains(t, data, "zuluTime")
}

func TestRunStopsOnError(t *testing.T) {
	paths := recipes(t, 2)
	p := NewProject(testConfig(), paths, 1)
	boom := errors.New("boom")
	err := p.Run(context.Background(), func(ctx context.Context, r *recipe.Recipe) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), paths[0])

	err = p.Run(context.Background(), setExposure(99))
	assert.Error(t, err, "strict out of range values fail")

	assert.Error(t, NewProject(testConfig(), nil, 1).Run(context.Background(), setExposure(1)))
}

func TestRunVerboseDiff(t *testing.T) {
	cfg := testConfig()
	cfg.Verbose = true
	paths := recipes(t, 1)

	var out bytes.Buffer
	p := NewProject(cfg, paths, 1)
	p.Out = &out
	p.Flush = false
	require.NoError(t, p.Run(context.Background(), setExposure(1.5)))
	assert.Contains(t, out.String(), "viewExposure")
	assert.Contains(t, out.String(), "1.5")
}

func TestLoadKeepsOrder(t *testing.T) {
	paths := recipes(t, 5)
	p := NewProject(testConfig(), paths, 4)
	rs, err := p.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 5)
	for i, r := range rs {
		assert.Equal(t, paths[i], r.Path)
	}

	p.Paths = append(p.Paths, filepath.Join(t.TempDir(), "missing.json"))
	_, err = p.Load(context.Background())
	assert.Error(t, err)
}
