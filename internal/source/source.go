package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ivlev/recipetool/internal/recipe"
	"github.com/ivlev/recipetool/internal/system"
	"github.com/ivlev/recipetool/internal/tnt"
)

// Source yields the recipe of one input file
type Source interface {
	Path() string
	Recipe(ctx context.Context) (*recipe.Recipe, error)
	Close() error
}

// Options configure Open
type Options struct {
	Version int
	Exe     string // Vendor tool used to extract LFP recipes
	TempDir string
	Verbose bool
}

// Open picks a source by file extension
func Open(path string, opts Options) (Source, error) {
	if opts.Version == 0 {
		opts.Version = recipe.DefaultVersion
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &JSONSource{path: path, version: opts.Version}, nil
	case ".lfp", ".lfr":
		return &LFPSource{path: path, opts: opts}, nil
	}
	return nil, fmt.Errorf("unsupported input file: %s", path)
}

// JSONSource is a recipe file on disk
type JSONSource struct {
	path    string
	version int
}

func (s *JSONSource) Path() string { return s.path }

func (s *JSONSource) Recipe(ctx context.Context) (*recipe.Recipe, error) {
	ok, err := system.Verify(s.path, s.version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: not a v%d recipe file", s.path, s.version)
	}
	return recipe.Load(s.path, s.version)
}

func (s *JSONSource) Close() error { return nil }

// LFPSource is a light-field picture whose recipe is extracted with tnt.
// The recipe is written next to the picture on flush.
type LFPSource struct {
	path string
	opts Options
	tmp  string
}

func (s *LFPSource) Path() string { return s.path }

func (s *LFPSource) Recipe(ctx context.Context) (*recipe.Recipe, error) {
	if s.tmp == "" {
		s.tmp = filepath.Join(s.opts.TempDir, fmt.Sprintf("recipe_%s.json", uuid.NewString()))
		if s.opts.TempDir == "" {
			s.tmp = filepath.Join(os.TempDir(), filepath.Base(s.tmp))
		}
	}

	cmd := tnt.New(s.opts.Exe)
	cmd.Verbose = s.opts.Verbose
	if err := cmd.LfpIn(s.path); err != nil {
		return nil, err
	}
	if err := cmd.RecipeOut(s.tmp); err != nil {
		return nil, err
	}
	if err := cmd.Execute(ctx); err != nil {
		return nil, fmt.Errorf("extract recipe from %s: %w", s.path, err)
	}

	r, err := recipe.Load(s.tmp, s.opts.Version)
	if err != nil {
		return nil, err
	}
	r.Path = strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".json"
	return r, nil
}

// Close removes the extracted temporary recipe
func (s *LFPSource) Close() error {
	if s.tmp == "" {
		return nil
	}
	err := os.Remove(s.tmp)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
