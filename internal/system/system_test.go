package system

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCPUs(t *testing.T, n int) {
	t.Helper()
	orig := cpuCount
	cpuCount = func() (int, error) { return n, nil }
	t.Cleanup(func() { cpuCount = orig })
}

func TestProcessors(t *testing.T) {
	withCPUs(t, 8)

	tests := []struct {
		in   string
		want int
		err  string
	}{
		{"max", 8, ""},
		{"MAX", 8, ""},
		{"", 8, ""},
		{"half", 4, ""},
		{"3", 3, ""},
		{"8", 8, ""},
		{"9", 0, "invalid cpu count: 9; processors available = 8"},
		{"0", 0, "invalid cpu count: 0; processors available = 8"},
		{"many", 0, "invalid cpu count: many; processors available = 8"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Processors(tt.in)
			if tt.err != "" {
				assert.EqualError(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessorsSingleCore(t *testing.T) {
	withCPUs(t, 1)
	n, err := Processors("half")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessorsFallback(t *testing.T) {
	orig := cpuCount
	cpuCount = func() (int, error) { return 0, errors.New("no /proc") }
	t.Cleanup(func() { cpuCount = orig })

	n, err := Processors("max")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func write(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"recipe", `{"viewExposure": 1, "viewExposureAnimation": {}}`, true},
		{"empty object", `{}`, true},
		{"unknown key", `{"viewExposure": 1, "pages": 3}`, false},
		{"array", `[1, 2]`, false},
		{"other version", `{"viewShadows": 0.1}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify(write(t, filepath.Join(dir, tt.name+".json"), tt.body), 5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := Verify(write(t, filepath.Join(dir, "broken.json"), `{"view`), 5)
	assert.Error(t, err)
	_, err = Verify(filepath.Join(dir, "missing.json"), 5)
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	dir := t.TempDir()
	a := write(t, filepath.Join(dir, "a.json"), `{"viewExposure": 1}`)
	write(t, filepath.Join(dir, "nested", "b.json"), `{"viewZoom": 2}`)
	write(t, filepath.Join(dir, "nested", "c.json"), `{"notARecipe": true}`)
	write(t, filepath.Join(dir, "nested", "notes.txt"), `{"viewZoom": 2}`)

	found, err := Search([]string{dir}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{a, filepath.Join(dir, "nested", "b.json")}, found)

	found, err = Search([]string{a}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, found)

	missing := filepath.Join(dir, "nope")
	_, err = Search([]string{missing}, 5)
	assert.EqualError(t, err, "not a valid file or directory : "+missing)
}

func TestFindLatestRecipe(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		write(t, filepath.Join(dir, "one.json"), `{"viewZoom": 1}`),
		write(t, filepath.Join(dir, "two.json"), `{"viewZoom": 2}`),
		write(t, filepath.Join(dir, "three.json"), `{"bogus": 2}`),
	}
	for i, f := range files {
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(f, modTime, modTime))
	}

	latest, err := FindLatestRecipe(dir, 5)
	require.NoError(t, err)
	assert.Equal(t, files[1], latest)

	_, err = FindLatestRecipe(t.TempDir(), 5)
	assert.Error(t, err)
}
