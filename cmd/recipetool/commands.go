package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/recipetool/internal/config"
	"github.com/ivlev/recipetool/internal/director"
	"github.com/ivlev/recipetool/internal/engine"
	"github.com/ivlev/recipetool/internal/params"
	"github.com/ivlev/recipetool/internal/recipe"
	"github.com/ivlev/recipetool/internal/renderer"
	"github.com/ivlev/recipetool/internal/source"
	"github.com/ivlev/recipetool/internal/system"
)

// printMu serializes output of concurrent workers
var printMu sync.Mutex

func printf(format string, args ...any) {
	printMu.Lock()
	defer printMu.Unlock()
	fmt.Printf(format, args...)
}

// composite parameters have their own commands; viewFx is never edited
var composite = []string{"viewCrop", "viewCcm", "viewPriorities", "viewLuminanceToneCurve", "viewFx"}

// common holds the flags shared by file processing commands
type common struct {
	processors string
	verbose    bool
	quiet      bool
}

func addCommon(fs *flag.FlagSet, cfg *config.Config) *common {
	c := &common{}
	fs.StringVar(&c.processors, "processors", cfg.Processors, "Потоки: max, half или число")
	fs.BoolVar(&c.verbose, "verbose", cfg.Verbose, "Показывать изменения рецептов")
	fs.BoolVar(&c.quiet, "quiet", false, "Без индикатора прогресса")
	return c
}

// project resolves the worker count and input files of a command
func (c *common) project(cfg *config.Config, paths []string) (*engine.Project, error) {
	workers, err := system.Processors(c.processors)
	if err != nil {
		return nil, err
	}
	run := *cfg
	run.Verbose = c.verbose
	run.Spinner = cfg.Spinner && !c.quiet

	files, err := inputs(paths, cfg.RecipeVersion)
	if err != nil {
		return nil, err
	}
	return engine.NewProject(&run, files, workers), nil
}

// inputs expands paths into recipe files; LFP/LFR pictures pass through
func inputs(paths []string, version int) ([]string, error) {
	if len(paths) == 0 {
		return nil, errors.New("не указаны входные файлы")
	}
	var files []string
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".lfp", ".lfr":
			if _, err := os.Stat(p); err != nil {
				return nil, fmt.Errorf("not a valid file or directory : %s", p)
			}
			files = append(files, p)
			continue
		}
		found, err := system.Search([]string{p}, version)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			fmt.Printf("[!] %s\n", warn("не найдено рецептов в "+p))
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("не найдено файлов рецептов (v%d)", version)
	}
	return files, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runProject(p *engine.Project, action engine.Action) error {
	ctx, cancel := signalContext()
	defer cancel()
	if err := p.Run(ctx, action); err != nil {
		return err
	}
	if p.Flush {
		fmt.Printf("[+++] %s: %d\n", ok("Успех! Обновлено файлов"), len(p.Paths))
	}
	return nil
}

func cmdNew(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	version := fs.Int("version", cfg.RecipeVersion, "Версия формата рецепта (1-5)")
	force := fs.Bool("force", false, "Перезаписать существующие файлы")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("не указаны выходные файлы")
	}
	for _, path := range fs.Args() {
		if _, err := os.Stat(path); err == nil && !*force {
			return fmt.Errorf("%s: файл существует, используйте -force", path)
		}
		r, err := recipe.New(*version)
		if err != nil {
			return err
		}
		r.Path = path
		if err := r.Flush(); err != nil {
			return err
		}
		fmt.Printf("[+++] Создан рецепт: %s\n", path)
	}
	return nil
}

func cmdView(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	c := addCommon(fs, cfg)
	names := params.Names(params.Filter{Version: cfg.RecipeVersion, Enabled: true, Exclude: composite})
	values := map[string]*string{}
	for _, name := range names {
		d := params.MustLookup(name)
		values[name] = fs.String(name, "", fmt.Sprintf("%s (%s)", d.Group, d.Kind))
	}
	var priorities, del stringList
	fs.Var(&priorities, "viewPriorities", "Приоритеты: viewFocus, viewPerspective")
	fs.Var(&del, "delete", "Удалить параметры (через запятую)")
	fs.Parse(args)

	set := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		if v, found := values[f.Name]; found {
			set[f.Name] = *v
		}
	})
	if len(set) == 0 && len(priorities) == 0 && len(del) == 0 {
		return errors.New("не указаны параметры")
	}

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		for _, name := range del {
			param, found := r.Param(name)
			if !found {
				return fmt.Errorf("invalid parameter: %s", name)
			}
			param.Delete()
		}
		for name, v := range set {
			cell, found := r.View(name)
			if !found {
				return fmt.Errorf("invalid parameter: %s", name)
			}
			if err := cell.Set(v, params.Strict); err != nil {
				return err
			}
		}
		if len(priorities) > 0 {
			items := make([]any, len(priorities))
			for i, v := range priorities {
				items[i] = v
			}
			return r.Priorities().Set(items, params.Strict)
		}
		return nil
	})
}

func cmdCrop(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	c := addCommon(fs, cfg)
	values := map[string]*string{}
	for _, f := range params.CropFields {
		values[f] = fs.String(f, "", "viewCrop."+f)
	}
	del := fs.Bool("delete", false, "Удалить viewCrop")
	fs.Parse(args)

	set := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		if v, found := values[f.Name]; found {
			set[f.Name] = *v
		}
	})

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		if *del {
			r.Crop().Delete()
		}
		for name, v := range set {
			if err := r.Crop().Set(name, v, params.Strict); err != nil {
				return err
			}
		}
		return nil
	})
}

func cmdCcm(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ccm", flag.ExitOnError)
	c := addCommon(fs, cfg)
	var values floatList
	fs.Var(&values, "values", "Матрица 3x3 (9 чисел через запятую)")
	index := fs.Int("index", -1, "Индекс элемента для -value")
	var value optFloat
	fs.Var(&value, "value", "Значение элемента -index")
	del := fs.Bool("delete", false, "Удалить viewCcm")
	fs.Parse(args)

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		ccm := r.Ccm()
		if ccm == nil {
			return fmt.Errorf("viewCcm is not supported by recipe version %d", r.Version())
		}
		if *del {
			ccm.Delete()
		}
		if len(values) > 0 {
			items := make([]any, len(values))
			for i, v := range values {
				items[i] = v
			}
			if err := ccm.Set(items, params.Strict); err != nil {
				return err
			}
		}
		if *index >= 0 {
			if !value.set {
				return errors.New("-index requires -value")
			}
			return ccm.SetAt(*index, value.v, params.Strict)
		}
		return nil
	})
}

func cmdLuminance(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("luminance", flag.ExitOnError)
	c := addCommon(fs, cfg)
	var xs, ys floatList
	fs.Var(&xs, "x", "Координаты x контрольных точек")
	fs.Var(&ys, "y", "Координаты y контрольных точек")
	del := fs.Bool("delete", false, "Удалить viewLuminanceToneCurve")
	fs.Parse(args)

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		if *del {
			r.ToneCurve().Delete()
		}
		if len(xs) > 0 || len(ys) > 0 {
			return r.ToneCurve().Set(xs, ys, params.Strict)
		}
		return nil
	})
}

func cmdAnim(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("anim", flag.ExitOnError)
	c := addCommon(fs, cfg)
	param := fs.String("param", "", "Анимируемый параметр, например viewExposure")

	var times, values, dt0, dt1, dv0, dv1 floatList
	fs.Var(&times, "times", "Ручной режим: времена ключевых кадров")
	fs.Var(&values, "values", "Ручной режим: значения ключевых кадров")
	fs.Var(&dt0, "dt0", "Ручной режим: dt0 для каждого кадра")
	fs.Var(&dt1, "dt1", "Ручной режим: dt1 для каждого кадра")
	fs.Var(&dv0, "dv0", "Ручной режим: dv0 для каждого кадра")
	fs.Var(&dv1, "dv1", "Ручной режим: dv1 для каждого кадра")
	var initial optFloat
	fs.Var(&initial, "initial", "Значение при t=0")

	var t0, v0, t1, v1 optFloat
	fs.Var(&t0, "t0", "Авто: время начала")
	fs.Var(&v0, "v0", "Авто: начальное значение")
	fs.Var(&t1, "t1", "Авто: время конца")
	fs.Var(&v1, "v1", "Авто: конечное значение")
	ease := fs.String("ease", cfg.AutoEase, "Авто: in, out, in_out")
	shape := fs.String("shape", cfg.AutoShape, "Авто: linear, quad, cubic, ...")
	steps := fs.Int("steps", cfg.AutoSteps, "Авто: число отсчётов")
	duration := fs.Float64("duration", cfg.AutoDuration, "Авто: длительность без -t1")

	var scaleTime, scaleValue spanFlag
	fs.Var(&scaleTime, "scale-time", "Масштабировать времена в a,b")
	fs.Var(&scaleValue, "scale-value", "Масштабировать значения в a,b")

	adjust := fs.Int("adjust", -1, "Изменить ключевой кадр N (-time, -value, -handles)")
	var atTime, atValue optFloat
	fs.Var(&atTime, "time", "Новое время для -adjust")
	fs.Var(&atValue, "value", "Новое значение для -adjust")
	var handles floatList
	fs.Var(&handles, "handles", "Новые dt0,dt1,dv0,dv1 для -adjust")
	destroy := fs.Int("destroy", -1, "Удалить ключевой кадр N")
	del := fs.Bool("delete", false, "Удалить анимацию")

	show := fs.Bool("show", false, "Показать анимацию")
	points := fs.String("points", "", "Показать точки: all, x, y или номер кадра")
	keyframes := fs.String("keyframes", "", "Показать ключевые кадры: all или номер")
	fs.Parse(args)

	if *param == "" {
		return errors.New("не указан -param")
	}
	name, _ := params.SplitKey(*param)
	d, found := params.Lookup(name)
	if !found || !d.Animatable {
		return fmt.Errorf("%s is not an animatable parameter", *param)
	}
	if *adjust >= 0 && len(handles) != 0 && len(handles) != 4 {
		return errors.New("-handles expects dt0,dt1,dv0,dv1")
	}

	manual := len(times) > 0 || len(values) > 0 || initial.set
	auto := v1.set || t0.set || v0.set || t1.set
	edits := manual || auto || scaleTime.span != nil || scaleValue.span != nil ||
		*adjust >= 0 || *destroy >= 0 || *del

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	p.Flush = edits
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		a, found := r.Animation(d.Name)
		if !found {
			return fmt.Errorf("%s is not animatable in recipe version %d", d.Name, r.Version())
		}
		if *del {
			a.Delete()
		}
		if *destroy >= 0 {
			if err := a.DeleteKeyframe(*destroy); err != nil {
				return err
			}
		}
		if *adjust >= 0 {
			patch := recipe.KeyframePatch{Time: atTime.Ptr(), Value: atValue.Ptr()}
			if len(handles) == 4 {
				patch.Handles = &recipe.HandlePair{Dt0: handles[0], Dt1: handles[1], Dv0: handles[2], Dv1: handles[3]}
			}
			if err := a.Adjust(*adjust, patch, params.Strict); err != nil {
				return err
			}
		}
		if manual {
			props := recipe.Props{
				Times: times, Values: values,
				Dt0: dt0, Dt1: dt1, Dv0: dv0, Dv1: dv1,
				Initial: initial.Ptr(),
			}
			if err := a.Manual(props, params.Strict); err != nil {
				return err
			}
		}
		if auto {
			err := a.Auto(recipe.AutoParams{
				T0: t0.Ptr(), V0: v0.Ptr(), T1: t1.Ptr(), V1: v1.Ptr(),
				Ease: *ease, Shape: *shape, Steps: *steps,
				Buffer: cfg.AutoBuffer, Duration: *duration,
			})
			if err != nil {
				return err
			}
		}
		if scaleTime.span != nil || scaleValue.span != nil {
			if err := a.Scale(scaleTime.span, scaleValue.span); err != nil {
				return err
			}
		}
		return showAnimation(r.Path, a, *show, *points, *keyframes)
	})
}

func showAnimation(path string, a *recipe.Animation, show bool, points, keyframes string) error {
	var out []string
	if show {
		data, err := json.MarshalIndent(a.Store(), "", "    ")
		if err != nil {
			return err
		}
		out = append(out, string(data))
	}

	switch points {
	case "":
	case "all":
		out = append(out, fmt.Sprint(a.Points()))
	case "x":
		out = append(out, fmt.Sprint(a.XPoints()))
	case "y":
		out = append(out, fmt.Sprint(a.YPoints()))
	default:
		var i int
		if _, err := fmt.Sscanf(points, "%d", &i); err != nil {
			return fmt.Errorf("invalid -points: %s", points)
		}
		k, err := a.Keyframe(i)
		if err != nil {
			return err
		}
		out = append(out, fmt.Sprint(k.Points()))
	}

	switch keyframes {
	case "":
	case "all":
		ks, err := a.Keyframes()
		if err != nil {
			return err
		}
		for _, k := range ks {
			out = append(out, k.String())
		}
	default:
		var i int
		if _, err := fmt.Sscanf(keyframes, "%d", &i); err != nil {
			return fmt.Errorf("invalid -keyframes: %s", keyframes)
		}
		k, err := a.Keyframe(i)
		if err != nil {
			return err
		}
		out = append(out, k.String())
	}

	if len(out) > 0 {
		printf("[*] %s %s\n%s\n", path, a.Name(), strings.Join(out, "\n"))
	}
	return nil
}

func cmdDestroy(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("destroy", flag.ExitOnError)
	c := addCommon(fs, cfg)
	var names stringList
	fs.Var(&names, "params", "Удалить только эти параметры (по умолчанию все)")
	animations := fs.Bool("animations", false, "Удалить все анимации")
	fs.Parse(args)

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		switch {
		case *animations:
			for _, a := range r.Animations() {
				a.Delete()
			}
		case len(names) == 0:
			r.Clear()
		}
		for _, name := range names {
			param, found := r.Param(name)
			if !found {
				return fmt.Errorf("invalid parameter: %s", name)
			}
			param.Delete()
		}
		return nil
	})
}

func cmdInfo(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	c := addCommon(fs, cfg)
	format := fs.String("format", "json", "Формат вывода: json или yaml")
	var only stringList
	fs.Var(&only, "params", "Показать только эти параметры")
	points := fs.Bool("points", false, "Показать точки анимаций")
	keyframes := fs.Bool("keyframes", false, "Показать ключевые кадры анимаций")
	fs.Parse(args)

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	p.Flush = false
	p.Config.Verbose = false
	return runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		var data any = r.Store()
		switch {
		case *points:
			data = r.Points()
		case *keyframes:
			ks, err := r.Keyframes()
			if err != nil {
				return err
			}
			out := map[string][]map[string]any{}
			for name, list := range ks {
				for _, k := range list {
					out[name] = append(out[name], k.Store())
				}
			}
			data = out
		}
		if len(only) > 0 {
			data = pick(data, only)
		}
		text, err := render(data, *format)
		if err != nil {
			return err
		}
		printf("[*] %s\n%s\n", r.Path, text)
		return nil
	})
}

// pick keeps the entries named in keys; animation keys match their parameter
func pick(data any, keys []string) any {
	want := map[string]bool{}
	for _, k := range keys {
		name, _ := params.SplitKey(k)
		want[name] = true
	}
	keep := func(k string) bool {
		name, _ := params.SplitKey(k)
		return want[name]
	}
	switch m := data.(type) {
	case map[string]any:
		out := map[string]any{}
		for k, v := range m {
			if keep(k) {
				out[k] = v
			}
		}
		return out
	case map[string][]recipe.Point:
		out := map[string][]recipe.Point{}
		for k, v := range m {
			if keep(k) {
				out[k] = v
			}
		}
		return out
	case map[string][]map[string]any:
		out := map[string][]map[string]any{}
		for k, v := range m {
			if keep(k) {
				out[k] = v
			}
		}
		return out
	}
	return data
}

func render(data any, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		b, err := json.MarshalIndent(data, "", "    ")
		return string(b), err
	case "yaml", "yml":
		b, err := yaml.Marshal(data)
		return strings.TrimRight(string(b), "\n"), err
	}
	return "", fmt.Errorf("unknown format: %s", format)
}

func cmdValidate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	c := addCommon(fs, cfg)
	fs.Parse(args)

	p, err := c.project(cfg, fs.Args())
	if err != nil {
		return err
	}
	p.Flush = false
	if err := runProject(p, func(ctx context.Context, r *recipe.Recipe) error {
		if err := r.Dependencies(); err != nil {
			return err
		}
		return r.Validate()
	}); err != nil {
		return err
	}
	fmt.Printf("[+++] %s: %d\n", ok("Рецепты корректны"), len(p.Paths))
	return nil
}

func cmdMerge(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	c := addCommon(fs, cfg)
	out := fs.String("out", "", "Выходной рецепт (обязательно)")
	steps := fs.Int("steps", 100, "Общее число отсчётов временной шкалы")
	var only stringList
	fs.Var(&only, "params", "Объединять только эти параметры")
	t0s, t1s := paramTimes{}, paramTimes{}
	fs.Var(t0s, "t0", "Время начала по параметрам: viewZoom=2,...")
	fs.Var(t1s, "t1", "Время конца по параметрам: viewZoom=8,...")
	ease := fs.String("ease", cfg.AutoEase, "in, out, in_out")
	shape := fs.String("shape", cfg.AutoShape, "linear, quad, cubic, ...")
	duration := fs.Float64("duration", cfg.AutoDuration, "Длительность без -t1")
	planIn := fs.String("plan", "", "Использовать сохранённый план (файл или папка с планами)")
	planOut := fs.String("save-plan", "", "Сохранить план в папку")
	fs.Parse(args)

	if *out == "" {
		return errors.New("не указан -out")
	}

	ctx, cancel := signalContext()
	defer cancel()

	var plan *director.Plan
	if *planIn != "" {
		path := *planIn
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			if path, err = director.FindLatestPlan(path); err != nil {
				return err
			}
		}
		var err error
		if plan, err = director.ReadPlan(path); err != nil {
			return fmt.Errorf("ошибка чтения плана: %w", err)
		}
		fmt.Printf("[*] Используется план: %s\n", path)
	} else {
		p, err := c.project(cfg, fs.Args())
		if err != nil {
			return err
		}
		sources, err := p.Load(ctx)
		if err != nil {
			return err
		}
		plan, err = director.Compose(sources, director.MergeOptions{
			Select:   only,
			T0:       t0s,
			T1:       t1s,
			Ease:     *ease,
			Shape:    *shape,
			Buffer:   cfg.AutoBuffer,
			Duration: *duration,
		})
		if err != nil {
			return err
		}
	}

	if *planOut != "" {
		if err := os.MkdirAll(*planOut, 0755); err != nil {
			return err
		}
		path := director.GeneratePlanPath(*planOut)
		if err := director.WritePlan(plan, path); err != nil {
			return err
		}
		fmt.Printf("[*] План сохранён: %s\n", path)
	}

	dest, err := mergeTarget(*out, plan.Version)
	if err != nil {
		return err
	}
	if err := director.Apply(dest, plan, *steps); err != nil {
		return err
	}
	if err := dest.Flush(); err != nil {
		return err
	}
	fmt.Printf("[+++] %s: %s (%d параметров)\n", ok("Успех! Результат"), *out, len(plan.Tracks))
	return nil
}

// mergeTarget loads an existing output recipe or starts an empty one
func mergeTarget(path string, version int) (*recipe.Recipe, error) {
	if _, err := os.Stat(path); err == nil {
		return recipe.Load(path, version)
	}
	r, err := recipe.New(version)
	if err != nil {
		return nil, err
	}
	r.Path = path
	return r, nil
}

func cmdFrames(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("frames", flag.ExitOnError)
	c := addCommon(fs, cfg)
	total := fs.Int("total", 30, "Число кадров")
	dir := fs.String("out", "frames", "Папка для рецептов кадров")
	prefix := fs.String("prefix", "frame", "Префикс имён файлов")
	lfp := fs.String("lfp", "", "Отрисовать кадры из этого LFP через tnt")
	imagerep := fs.String("imagerep", "png", "Формат изображений tnt")
	var review floatList
	fs.Var(&review, "review", "Только показать значения в эти моменты времени")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("укажите один анимированный рецепт или папку")
	}
	input := fs.Arg(0)
	if fi, err := os.Stat(input); err == nil && fi.IsDir() {
		if input, err = system.FindLatestRecipe(input, cfg.RecipeVersion); err != nil {
			return err
		}
		fmt.Printf("[*] Используется рецепт: %s\n", input)
	}
	workers, err := system.Processors(c.processors)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	src, err := source.Open(input, source.Options{Version: cfg.RecipeVersion, Exe: cfg.Tnt, Verbose: c.verbose})
	if err != nil {
		return err
	}
	defer src.Close()
	r, err := src.Recipe(ctx)
	if err != nil {
		return err
	}

	gen, err := renderer.NewGenerator(r, *total)
	if err != nil {
		return err
	}
	if len(review) > 0 {
		text, err := render(gen.Review(review), "yaml")
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	if err := os.MkdirAll(*dir, 0755); err != nil {
		return err
	}
	paths, err := gen.WriteFrames(ctx, renderer.FrameOptions{
		Dir:        *dir,
		Prefix:     *prefix,
		Processors: workers,
		LFP:        *lfp,
		Exe:        cfg.Tnt,
		Imagerep:   *imagerep,
		Verbose:    c.verbose,
	})
	if err != nil {
		return err
	}
	fmt.Printf("[+++] %s: %d → %s\n", ok("Успех! Кадров"), len(paths), *dir)
	return nil
}
