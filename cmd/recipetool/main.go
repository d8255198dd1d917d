package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ivlev/recipetool/internal/config"
	"github.com/ivlev/recipetool/internal/system"
)

// Version is the version number. Typically injected via ldflags with git build
var Version = "1"

var (
	warn = color.New(color.FgYellow).SprintFunc()
	fail = color.New(color.FgRed).SprintFunc()
	ok   = color.New(color.FgGreen).SprintFunc()
)

func root() {
	str := `recipetool edits the view parameters and animations of light-field
picture recipes (.json), directly or through LFP/LFR files with tnt.

Usage:
	recipetool <command> [flags] <files or directories>

Commands:
	new        create empty recipe files
	view       set or delete simple view parameters
	crop       set the crop window
	ccm        set the color correction matrix
	luminance  set the luminance tone curve
	anim       create, edit and inspect animations
	destroy    delete parameters
	info       print recipe contents
	validate   check dependencies and schema
	merge      animate a set of recipes into one
	frames     render an animated recipe into single-view frames
	help
	mkconf
	conf
	version

Run 'recipetool <command> -h' for the flags of a command.`
	fmt.Println(str)
}

func help() {
	str := `recipetool is amenable to configuration via its .yml file (` + config.FileName + `).
When no configuration is provided, the defaults are used.
The command mkconf generates the configuration file with the default values.

	auto_ease, auto_shape  easing used by 'anim' and 'merge' (in, out, in_out; linear, quad, cubic, ...)
	auto_steps             keyframe samples per automatic animation
	auto_duration          seconds an automatic animation lasts when -t1 is not given
	auto_buffer            time offset that stands in for t=0 and separates segments
	recipe_version         recipe format version (1-5)
	processors             worker count: max, half or a number
	tnt                    path to the light-field vendor tool
	spinner                show a progress indicator`
	fmt.Println(str)
}

func fatal(err error) {
	log.Fatalf("[-] %s", fail(err))
}

func mkconf(cfg *config.Config) {
	if err := cfg.Write(config.FileName); err != nil {
		fatal(err)
	}
	fmt.Printf("[+++] Конфигурация записана: %s\n", config.FileName)
}

func printconf(cfg *config.Config) {
	if err := cfg.Encode(os.Stdout); err != nil {
		fatal(err)
	}
}

func pversion() {
	fmt.Printf("recipetool version %v\n", Version)
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}

	cfg, err := config.Load(config.FileName)
	if err != nil {
		fatal(err)
	}

	cmd := strings.ToLower(args[1])
	rest := args[2:]
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf(cfg)
		return
	case "conf":
		printconf(cfg)
		return
	case "version":
		pversion()
		return
	}

	commands := map[string]func(*config.Config, []string) error{
		"new":       cmdNew,
		"view":      cmdView,
		"crop":      cmdCrop,
		"ccm":       cmdCcm,
		"luminance": cmdLuminance,
		"anim":      cmdAnim,
		"destroy":   cmdDestroy,
		"info":      cmdInfo,
		"validate":  cmdValidate,
		"merge":     cmdMerge,
		"frames":    cmdFrames,
	}
	run, found := commands[cmd]
	if !found {
		log.Fatalf("[-] %s", fail("unknown command: "+cmd))
	}

	system.InitResourceLimits()
	if err := run(cfg, rest); err != nil {
		fatal(err)
	}
}
