package tnt

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Command builds and runs one invocation of the light-field vendor tool.
type Command struct {
	Exe     string
	Verbose bool
	// OutputWait bounds how long Execute waits for output files to appear.
	OutputWait time.Duration

	args    [][]string
	outputs []string
}

// New creates an empty command for the given executable.
func New(exe string) *Command {
	if exe == "" {
		exe = "tnt"
	}
	return &Command{Exe: exe, OutputWait: 3 * time.Second}
}

// Argument queues a flag. A true value emits the bare flag, empty values
// are ignored. Flags may only repeat when multi is set.
func (c *Command) Argument(flag string, value any, multi bool) error {
	if !strings.HasPrefix(flag, "-") {
		flag = "--" + flag
	}
	if !multi && c.has(flag) {
		return fmt.Errorf("argument already set: %s", flag)
	}

	var set []string
	switch v := value.(type) {
	case nil:
	case bool:
		if v {
			set = []string{flag}
		}
	case string:
		if v != "" {
			set = []string{flag, v}
		}
	case int:
		if v != 0 {
			set = []string{flag, strconv.Itoa(v)}
		}
	case float64:
		set = []string{flag, strconv.FormatFloat(v, 'f', -1, 64)}
	default:
		set = []string{flag, fmt.Sprint(v)}
	}
	if set != nil {
		c.args = append(c.args, set)
	}
	return nil
}

func (c *Command) has(flag string) bool {
	for _, set := range c.args {
		if set[0] == flag {
			return true
		}
	}
	return false
}

func (c *Command) output(flag, path string) error {
	if err := c.Argument(flag, path, false); err != nil {
		return err
	}
	if path != "" {
		c.outputs = append(c.outputs, path)
	}
	return nil
}

func (c *Command) LfpIn(path string) error { return c.Argument("--lfp-in", path, false) }
func (c *Command) RecipeIn(path string) error { return c.Argument("--recipe-in", path, false) }
func (c *Command) LfpOut(path string) error { return c.output("--lfp-out", path) }
func (c *Command) RecipeOut(path string) error { return c.output("--recipe-out", path) }
func (c *Command) ImageOut(path string) error { return c.output("--image-out", path) }

// Imagerep selects the image representation (png, jpg, ...).
func (c *Command) Imagerep(rep string) error { return c.Argument("--imagerep", rep, false) }

func (c *Command) Width(px int) error { return c.Argument("--width", px, false) }
func (c *Command) Height(px int) error { return c.Argument("--height", px, false) }
func (c *Command) Threads(n int) error { return c.Argument("--threads", n, false) }

// Args returns the queued arguments without the executable.
func (c *Command) Args() []string {
	var out []string
	for _, set := range c.args {
		out = append(out, set...)
	}
	return out
}

// Outputs lists the files the command is expected to produce.
func (c *Command) Outputs() []string {
	return append([]string(nil), c.outputs...)
}

func (c *Command) String() string {
	parts := []string{c.Exe}
	for _, a := range c.Args() {
		if strings.Contains(a, " ") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Reset empties the argument queue.
func (c *Command) Reset() {
	c.args = nil
	c.outputs = nil
}

// Execute runs the queued command. A non-zero exit status or any output
// on stderr fails the run. The queue is reset afterwards.
func (c *Command) Execute(ctx context.Context) error {
	defer c.Reset()

	if c.Verbose {
		log.Printf("[>] %s", c.String())
	}

	cmd := exec.CommandContext(ctx, c.Exe, c.Args()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Exe, err, strings.TrimSpace(stderr.String()))
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%s: %s", c.Exe, msg)
	}
	if c.Verbose && stdout.Len() > 0 {
		log.Printf("[*] %s", strings.TrimSpace(stdout.String()))
	}
	return c.awaitOutputs(ctx)
}

// awaitOutputs polls for the expected files; the tool may flush them
// after exiting.
func (c *Command) awaitOutputs(ctx context.Context) error {
	for _, path := range c.outputs {
		b := &backoff.ExponentialBackOff{
			InitialInterval:     25 * time.Millisecond,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         time.Second,
			MaxElapsedTime:      c.OutputWait,
			Clock:               backoff.SystemClock,
		}
		b.Reset()
		op := func() error {
			_, err := os.Stat(path)
			return err
		}
		if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
			return fmt.Errorf("%s: output not produced: %w", c.Exe, err)
		}
	}
	return nil
}
