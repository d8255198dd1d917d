package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/theckman/yacspin"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/recipetool/internal/config"
	"github.com/ivlev/recipetool/internal/recipe"
	"github.com/ivlev/recipetool/internal/source"
)

// Action edits one recipe in place
type Action func(ctx context.Context, r *recipe.Recipe) error

// Project applies an action to a set of input files with a worker pool
type Project struct {
	Config  *config.Config
	Paths   []string
	Workers int
	Flush   bool      // Write each recipe back after the action
	Out     io.Writer // Verbose diffs go here

	spinner *yacspin.Spinner
	mu      sync.Mutex
}

func NewProject(cfg *config.Config, paths []string, workers int) *Project {
	if workers < 1 {
		workers = 1
	}
	return &Project{
		Config:  cfg,
		Paths:   paths,
		Workers: workers,
		Flush:   true,
		Out:     os.Stdout,
	}
}

func (p *Project) sourceOptions() source.Options {
	return source.Options{
		Version: p.Config.RecipeVersion,
		Exe:     p.Config.Tnt,
		Verbose: p.Config.Verbose,
	}
}

// Run processes every path. The first failure cancels the remaining work.
func (p *Project) Run(ctx context.Context, action Action) error {
	if len(p.Paths) == 0 {
		return fmt.Errorf("нет файлов для обработки")
	}
	startTime := time.Now()
	p.startSpinner(fmt.Sprintf("обработка %d файлов", len(p.Paths)))

	var done atomic.Int64
	total := len(p.Paths)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.Workers)
	for _, path := range p.Paths {
		path := path
		eg.Go(func() error {
			if err := p.process(ctx, path, action); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			p.progress(fmt.Sprintf("%d/%d %s", done.Add(1), total, path))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		p.stopSpinner(false)
		return err
	}
	p.stopSpinner(true)

	if p.Config.Verbose {
		log.Printf("[*] Обработано файлов: %d за %v", total, time.Since(startTime).Round(time.Millisecond))
	}
	return nil
}

func (p *Project) process(ctx context.Context, path string, action Action) error {
	src, err := source.Open(path, p.sourceOptions())
	if err != nil {
		return err
	}
	defer src.Close()

	r, err := src.Recipe(ctx)
	if err != nil {
		return err
	}

	var before map[string]any
	if p.Config.Verbose {
		before = r.Store()
	}
	if err := action(ctx, r); err != nil {
		return err
	}
	if p.Config.Verbose {
		p.diff(path, before, r.Store())
	}

	if !p.Flush {
		return nil
	}
	return r.Flush()
}

// diff prints the store changes made by an action
func (p *Project) diff(path string, before, after map[string]any) {
	d := cmp.Diff(before, after)
	if d == "" {
		d = "(без изменений)\n"
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.Out, "[*] %s\n%s", path, d)
}

// Load reads every path concurrently and returns the recipes in input order
func (p *Project) Load(ctx context.Context) ([]*recipe.Recipe, error) {
	p.startSpinner(fmt.Sprintf("чтение %d файлов", len(p.Paths)))

	recipes := make([]*recipe.Recipe, len(p.Paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.Workers)
	for i, path := range p.Paths {
		i, path := i, path
		eg.Go(func() error {
			src, err := source.Open(path, p.sourceOptions())
			if err != nil {
				return err
			}
			defer src.Close()
			r, err := src.Recipe(ctx)
			if err != nil {
				return err
			}
			recipes[i] = r
			p.progress(path)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		p.stopSpinner(false)
		return nil, err
	}
	p.stopSpinner(true)
	return recipes, nil
}

func (p *Project) startSpinner(msg string) {
	if !p.Config.Spinner || p.Config.Verbose {
		return
	}
	s, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[59],
		Suffix:            " ",
		SuffixAutoColon:   true,
		Message:           msg,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
		Writer:            os.Stderr,
	})
	if err != nil {
		log.Printf("[!] Индикатор прогресса недоступен: %v", err)
		return
	}
	if err := s.Start(); err != nil {
		return
	}
	p.spinner = s
}

func (p *Project) progress(msg string) {
	if p.spinner != nil {
		p.spinner.Message(msg)
	}
}

func (p *Project) stopSpinner(ok bool) {
	if p.spinner == nil {
		return
	}
	if ok {
		p.spinner.Stop()
	} else {
		p.spinner.StopFail()
	}
	p.spinner = nil
}
